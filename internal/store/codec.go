package store

import (
	"errors"
	"fmt"

	"github.com/funvibe/jihll/internal/vm"
	"gopkg.in/yaml.v3"
)

// ErrNotData is returned for values that only make sense inside the process
// that created them: natives and compiled functions.
var ErrNotData = errors.New("value is not plain data")

const maxDepth = 64

// Encode renders a data value as YAML
func Encode(v vm.Value) (string, error) {
	tree, err := toTree(v, 0)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Decode parses a value written by Encode
func Decode(text string) (vm.Value, error) {
	var tree interface{}
	if err := yaml.Unmarshal([]byte(text), &tree); err != nil {
		return vm.NilVal(), err
	}
	return fromTree(tree, 0)
}

func toTree(v vm.Value, depth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrNotData, maxDepth)
	}
	switch v.Type {
	case vm.ValNil:
		return nil, nil
	case vm.ValBool:
		return v.AsBool(), nil
	case vm.ValNumber:
		return v.AsNumber(), nil
	case vm.ValString:
		return v.AsString(), nil
	case vm.ValList:
		elems := v.AsList().Elements()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			t, err := toTree(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotData, v.Type)
}

func fromTree(tree interface{}, depth int) (vm.Value, error) {
	if depth > maxDepth {
		return vm.NilVal(), fmt.Errorf("nesting deeper than %d", maxDepth)
	}
	switch t := tree.(type) {
	case nil:
		return vm.NilVal(), nil
	case bool:
		return vm.BoolVal(t), nil
	case int:
		return vm.NumberVal(float64(t)), nil
	case int64:
		return vm.NumberVal(float64(t)), nil
	case uint64:
		return vm.NumberVal(float64(t)), nil
	case float64:
		return vm.NumberVal(t), nil
	case string:
		return vm.StringVal(t), nil
	case []interface{}:
		elems := make([]vm.Value, len(t))
		for i, e := range t {
			v, err := fromTree(e, depth+1)
			if err != nil {
				return vm.NilVal(), err
			}
			elems[i] = v
		}
		return vm.ListVal(vm.NewList(elems)), nil
	}
	return vm.NilVal(), fmt.Errorf("unsupported YAML value %T", tree)
}
