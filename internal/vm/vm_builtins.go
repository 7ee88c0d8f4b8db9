package vm

import (
	"math"
	"slices"
	"time"
	"unicode/utf8"
)

type builtin struct {
	name  string
	arity int
	fn    NativeFn
}

var builtins = []builtin{
	{"clock", 0, builtinClock},
	{"sqrt", 1, builtinSqrt},
	{"sleep", 1, builtinSleep},
	{"len", 1, builtinLen},
	{"push", 2, builtinPush},
	{"at", 2, builtinAt},
	{"str", 1, builtinStr},
	{"type", 1, builtinType},
}

// BuiltinNames lists the natives installed by RegisterBuiltins
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

// RegisterBuiltins registers the standard natives in VM globals, except the
// ones named in skip.
func (vm *VM) RegisterBuiltins(skip ...string) {
	for _, b := range builtins {
		if slices.Contains(skip, b.name) {
			continue
		}
		vm.RegisterNative(b.name, b.arity, b.fn)
	}
}

func numberArg(name string, v Value) (float64, error) {
	if !v.IsNumber() {
		return 0, NewRuntimeError(ErrTypeMismatch, "%s expects a number, got %s", name, v.Type)
	}
	return v.AsNumber(), nil
}

func listArg(name string, v Value) (*List, error) {
	if !v.IsList() {
		return nil, NewRuntimeError(ErrTypeMismatch, "%s expects a list, got %s", name, v.Type)
	}
	return v.AsList(), nil
}

// clock returns seconds since the Unix epoch
func builtinClock(args []Value) (Value, error) {
	return NumberVal(float64(time.Now().UnixNano()) / 1e9), nil
}

func builtinSqrt(args []Value) (Value, error) {
	x, err := numberArg("sqrt", args[0])
	if err != nil {
		return NilVal(), err
	}
	return NumberVal(math.Sqrt(x)), nil
}

// sleep blocks the calling task for the given number of milliseconds
func builtinSleep(args []Value) (Value, error) {
	ms, err := numberArg("sleep", args[0])
	if err != nil {
		return NilVal(), err
	}
	if ms > 0 {
		time.Sleep(time.Duration(ms * float64(time.Millisecond)))
	}
	return NilVal(), nil
}

func builtinLen(args []Value) (Value, error) {
	switch v := args[0]; v.Type {
	case ValList:
		return NumberVal(float64(v.AsList().Len())), nil
	case ValString:
		return NumberVal(float64(utf8.RuneCountInString(v.AsString()))), nil
	default:
		return NilVal(), NewRuntimeError(ErrTypeMismatch, "len expects a list or string, got %s", v.Type)
	}
}

// push appends in place and returns the same list
func builtinPush(args []Value) (Value, error) {
	l, err := listArg("push", args[0])
	if err != nil {
		return NilVal(), err
	}
	l.Append(args[1])
	return args[0], nil
}

func builtinAt(args []Value) (Value, error) {
	l, err := listArg("at", args[0])
	if err != nil {
		return NilVal(), err
	}
	f, err := numberArg("at", args[1])
	if err != nil {
		return NilVal(), err
	}
	if f != math.Trunc(f) {
		return NilVal(), NewRuntimeError(ErrTypeMismatch, "at expects an integer index, got %s", FormatNumber(f))
	}
	v, ok := l.Get(int(f))
	if !ok {
		return NilVal(), NewRuntimeError(ErrNative, "index %s out of range for list of length %d", FormatNumber(f), l.Len())
	}
	return v, nil
}

func builtinStr(args []Value) (Value, error) {
	return StringVal(args[0].String()), nil
}

func builtinType(args []Value) (Value, error) {
	return StringVal(args[0].Type.String()), nil
}
