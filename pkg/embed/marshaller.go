package jihll

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/funvibe/jihll/internal/vm"
)

var (
	valueType = reflect.TypeOf(vm.Value{})
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Marshaller handles conversion between Go and script values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a script value. Functions become natives.
func (m *Marshaller) ToValue(val interface{}) (vm.Value, error) {
	if val == nil {
		return vm.NilVal(), nil
	}
	if v, ok := val.(vm.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return vm.NilVal(), nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.NumberVal(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return vm.NumberVal(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return vm.NumberVal(v.Float()), nil
	case reflect.Bool:
		return vm.BoolVal(v.Bool()), nil
	case reflect.String:
		return vm.StringVal(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToList(v)
	case reflect.Func:
		return m.funcToNative("<host>", v)
	case reflect.Ptr:
		if v.IsNil() {
			return vm.NilVal(), nil
		}
		return m.ToValue(v.Elem().Interface())
	default:
		return vm.NilVal(), fmt.Errorf("unsupported Go type %s", v.Type())
	}
}

// FromValue converts a script value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
func (m *Marshaller) FromValue(val vm.Value, targetType reflect.Type) (interface{}, error) {
	if targetType == valueType {
		return val, nil
	}

	switch val.Type {
	case vm.ValNil:
		return nil, nil
	case vm.ValBool:
		return val.AsBool(), nil
	case vm.ValString:
		return val.AsString(), nil
	case vm.ValNumber:
		return m.fromNumber(val.AsNumber(), targetType)
	case vm.ValList:
		return m.listToSlice(val.AsList(), targetType)
	default:
		// Functions stay opaque; they can be passed back to Call.
		return val, nil
	}
}

func (m *Marshaller) fromNumber(f float64, targetType reflect.Type) (interface{}, error) {
	if targetType == nil {
		return f, nil
	}
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("%s is not an integer", vm.FormatNumber(f))
		}
		return reflect.ValueOf(int64(f)).Convert(targetType).Interface(), nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(f).Convert(targetType).Interface(), nil
	}
	return f, nil
}

func (m *Marshaller) sliceToList(v reflect.Value) (vm.Value, error) {
	elements := make([]vm.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		val, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return vm.NilVal(), err
		}
		elements[i] = val
	}
	return vm.ListVal(vm.NewList(elements)), nil
}

func (m *Marshaller) listToSlice(l *vm.List, targetType reflect.Type) (interface{}, error) {
	// If targetType is nil, default to []interface{}
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if targetType != nil && targetType.Kind() == reflect.Slice {
		elemType = targetType.Elem()
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, l.Len())
	for _, el := range l.Elements() {
		rv, err := m.goValue(el, elemType)
		if err != nil {
			return nil, err
		}
		slice = reflect.Append(slice, rv)
	}
	return slice.Interface(), nil
}

// goValue converts val into a reflect.Value assignable to target.
func (m *Marshaller) goValue(val vm.Value, target reflect.Type) (reflect.Value, error) {
	goVal, err := m.FromValue(val, target)
	if err != nil {
		return reflect.Value{}, err
	}
	if goVal == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(goVal)
	switch {
	case rv.Type().AssignableTo(target):
		return rv, nil
	case rv.Type().ConvertibleTo(target):
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", val.Type, target)
}

// funcToNative wraps a Go function as a native. A trailing error result
// becomes a native error; other results are returned as a single value, or
// a list when there are several.
func (m *Marshaller) funcToNative(name string, fn reflect.Value) (vm.Value, error) {
	fnType := fn.Type()
	numIn := fnType.NumIn()
	isVariadic := fnType.IsVariadic()

	arity := numIn
	if isVariadic {
		arity = vm.Variadic
	}

	returnsErr := fnType.NumOut() > 0 && fnType.Out(fnType.NumOut()-1) == errorType

	native := &vm.NativeFunction{Name: name, Arity: arity}
	native.Fn = func(args []vm.Value) (vm.Value, error) {
		if isVariadic && len(args) < numIn-1 {
			return vm.NilVal(), vm.NewRuntimeError(vm.ErrArityMismatch,
				"%s expects at least %d arguments, got %d", native.Name, numIn-1, len(args))
		}

		goArgs := make([]reflect.Value, len(args))
		for i, arg := range args {
			// Determine target type
			var targetType reflect.Type
			if isVariadic && i >= numIn-1 {
				targetType = fnType.In(numIn - 1).Elem()
			} else {
				targetType = fnType.In(i)
			}

			rv, err := m.goValue(arg, targetType)
			if err != nil {
				return vm.NilVal(), vm.NewRuntimeError(vm.ErrTypeMismatch,
					"%s argument %d: %s", native.Name, i+1, err)
			}
			goArgs[i] = rv
		}

		results := fn.Call(goArgs)
		if returnsErr {
			last := results[len(results)-1]
			results = results[:len(results)-1]
			if !last.IsNil() {
				return vm.NilVal(), last.Interface().(error)
			}
		}

		switch len(results) {
		case 0:
			return vm.NilVal(), nil
		case 1:
			return m.ToValue(results[0].Interface())
		}
		elements := make([]vm.Value, len(results))
		for i, res := range results {
			val, err := m.ToValue(res.Interface())
			if err != nil {
				return vm.NilVal(), err
			}
			elements[i] = val
		}
		return vm.ListVal(vm.NewList(elements)), nil
	}
	return vm.NativeVal(native), nil
}

// ErrNotFound is returned by Get and Call for unbound names.
var ErrNotFound = errors.New("not found")

// ErrInvalidName is returned by Bind and Set for names that are keywords.
var ErrInvalidName = errors.New("not a usable identifier")
