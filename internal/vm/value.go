package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// ValueType identifies the variant held by a Value.
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValString
	ValList
	ValNative
	ValFunction
)

var valueTypeNames = [...]string{
	ValNil:      "nil",
	ValBool:     "bool",
	ValNumber:   "number",
	ValString:   "string",
	ValList:     "list",
	ValNative:   "native",
	ValFunction: "function",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("ValueType(%d)", t)
}

// Value is a tagged variant. Scalars live in Data, reference types in Obj.
// Values are passed by copy; only List has shared mutable state.
type Value struct {
	Type ValueType
	Data uint64
	Obj  interface{}
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func BoolVal(b bool) Value {
	if b {
		return Value{Type: ValBool, Data: 1}
	}
	return Value{Type: ValBool}
}

func NumberVal(f float64) Value {
	return Value{Type: ValNumber, Data: math.Float64bits(f)}
}

func StringVal(s string) Value {
	return Value{Type: ValString, Obj: s}
}

func ListVal(l *List) Value {
	return Value{Type: ValList, Obj: l}
}

func NativeVal(n *NativeFunction) Value {
	return Value{Type: ValNative, Obj: n}
}

func FunctionVal(f *ScriptFunction) Value {
	return Value{Type: ValFunction, Obj: f}
}

// Type checks

func (v Value) IsNil() bool { return v.Type == ValNil }
func (v Value) IsBool() bool { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsString() bool { return v.Type == ValString }
func (v Value) IsList() bool { return v.Type == ValList }
func (v Value) IsNative() bool { return v.Type == ValNative }
func (v Value) IsFunction() bool { return v.Type == ValFunction }

// Accessors. Callers check the type first.

func (v Value) AsBool() bool { return v.Data != 0 }
func (v Value) AsNumber() float64 { return math.Float64frombits(v.Data) }
func (v Value) AsString() string { return v.Obj.(string) }
func (v Value) AsList() *List { return v.Obj.(*List) }
func (v Value) AsNative() *NativeFunction { return v.Obj.(*NativeFunction) }
func (v Value) AsFunction() *ScriptFunction { return v.Obj.(*ScriptFunction) }

// IsFalsey reports whether v is nil, false or the number 0.
func (v Value) IsFalsey() bool {
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return !v.AsBool()
	case ValNumber:
		return v.AsNumber() == 0
	}
	return false
}

// toNumber unwraps a numeric operand. Nothing else converts, booleans included.
func (v Value) toNumber() (float64, bool) {
	if v.Type == ValNumber {
		return v.AsNumber(), true
	}
	return 0, false
}

// String returns the canonical form used by print and string concatenation.
func (v Value) String() string {
	return v.format(0)
}

const maxFormatDepth = 32

func (v Value) format(depth int) string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case ValNumber:
		return FormatNumber(v.AsNumber())
	case ValString:
		return v.AsString()
	case ValList:
		if depth >= maxFormatDepth {
			return "[...]"
		}
		elems := v.AsList().Elements()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.format(depth + 1)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValNative:
		return "<native " + v.AsNative().Name + ">"
	case ValFunction:
		return "<fn " + v.AsFunction().Name + ">"
	}
	return "<unknown>"
}

// FormatNumber renders f without an exponent unless |f| >= 1e21.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equals is structural equality. Values of different kinds are never equal,
// NaN is not equal to itself and functions compare by identity.
func (v Value) Equals(other Value) bool {
	return v.equals(other, 0)
}

func (v Value) equals(other Value, depth int) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return v.AsBool() == other.AsBool()
	case ValNumber:
		return v.AsNumber() == other.AsNumber()
	case ValString:
		return v.AsString() == other.AsString()
	case ValList:
		a, b := v.AsList(), other.AsList()
		if a == b {
			return true
		}
		if depth >= maxFormatDepth {
			return false
		}
		ea, eb := a.Elements(), b.Elements()
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !ea[i].equals(eb[i], depth+1) {
				return false
			}
		}
		return true
	case ValNative:
		return v.AsNative() == other.AsNative()
	case ValFunction:
		return v.AsFunction() == other.AsFunction()
	}
	return false
}

// List is the only mutable value. It may be aliased across tasks, so every
// access goes through its lock.
type List struct {
	mu       sync.RWMutex
	elements []Value
}

func NewList(elements []Value) *List {
	return &List{elements: elements}
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.elements)
}

// Get returns the element at i and whether i was in range.
func (l *List) Get(i int) (Value, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.elements) {
		return NilVal(), false
	}
	return l.elements[i], true
}

func (l *List) Append(v Value) {
	l.mu.Lock()
	l.elements = append(l.elements, v)
	l.mu.Unlock()
}

// Elements returns a copy of the current contents.
func (l *List) Elements() []Value {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Value, len(l.elements))
	copy(out, l.elements)
	return out
}

// NativeFn is the Go implementation behind a native function.
type NativeFn func(args []Value) (Value, error)

// Variadic marks a native that accepts any number of arguments.
const Variadic = -1

type NativeFunction struct {
	Name  string
	Arity int
	Fn    NativeFn
}

// ScriptFunction is a compiled function. Entry is an absolute offset into
// Chunk.Code; Chunk is kept so functions defined by one REPL line stay
// callable from later ones.
type ScriptFunction struct {
	Name  string
	Arity int
	Entry int
	Chunk *Chunk
}
