package vm

import "context"

// RegisterNative binds a host function as a global, replacing any previous
// binding of name. Use Variadic as arity to accept any argument count.
func (vm *VM) RegisterNative(name string, arity int, fn NativeFn) {
	vm.globals.Define(name, NativeVal(&NativeFunction{Name: name, Arity: arity, Fn: fn}))
}

// Globals returns the table shared by all tasks of this VM
func (vm *VM) Globals() *Globals {
	return vm.globals
}

// GetGlobal returns a global variable
func (vm *VM) GetGlobal(name string) (Value, bool) {
	return vm.globals.Get(name)
}

// SetGlobal sets a global variable
func (vm *VM) SetGlobal(name string, value Value) {
	vm.globals.Set(name, value)
}

// Call runs callee with args on a fresh task and waits for its result. The
// task shares the global table with every other task of the VM.
func (vm *VM) Call(ctx context.Context, callee Value, args ...Value) (Value, error) {
	if ctx == nil {
		ctx = vm.ctx
	}

	switch callee.Type {
	case ValNative:
		fn := callee.AsNative()
		if err := checkArity(fn.Name, fn.Arity, len(args)); err != nil {
			return NilVal(), err
		}
		return invokeNative(fn, args)
	case ValFunction:
		fn := callee.AsFunction()
		if err := checkArity(fn.Name, fn.Arity, len(args)); err != nil {
			return NilVal(), err
		}
		if fn.Chunk == nil {
			return NilVal(), NewRuntimeError(ErrInvalidBytecode, "function %s has no chunk", fn.Name)
		}
		t := vm.newTask(ctx, fn.Chunk)
		if err := t.runFunction(callee, args); err != nil {
			return NilVal(), err
		}
		return t.stack[len(t.stack)-1], nil
	}
	return NilVal(), NewRuntimeError(ErrTypeMismatch, "can only call functions, got %s", callee.Type)
}
