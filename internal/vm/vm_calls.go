package vm

import (
	"context"
	"errors"
	"fmt"
)

// callValue dispatches CALL on the callee sitting argc slots below the top.
func (t *task) callValue(argc int) error {
	calleeIdx := len(t.stack) - 1 - argc
	if calleeIdx < 0 {
		return NewRuntimeError(ErrStackUnderflow, "call with %d arguments on a stack of %d", argc, len(t.stack))
	}
	callee := t.stack[calleeIdx]

	switch callee.Type {
	case ValNative:
		fn := callee.AsNative()
		if err := checkArity(fn.Name, fn.Arity, argc); err != nil {
			return err
		}
		args := make([]Value, argc)
		copy(args, t.stack[calleeIdx+1:])
		t.truncate(calleeIdx)

		result, err := invokeNative(fn, args)
		if err != nil {
			return err
		}
		t.push(result)
		return nil

	case ValFunction:
		fn := callee.AsFunction()
		if err := checkArity(fn.Name, fn.Arity, argc); err != nil {
			return err
		}
		if len(t.frames) >= t.vm.limits.MaxFrames {
			return NewRuntimeError(ErrStackOverflow, "call depth exceeds %d frames", t.vm.limits.MaxFrames)
		}
		t.frames = append(t.frames, CallFrame{
			chunk:         t.chunk,
			returnAddress: t.ip,
			base:          calleeIdx + 1,
		})
		t.enter(fn)
		return nil
	}

	return NewRuntimeError(ErrTypeMismatch, "can only call functions, got %s", callee.Type)
}

// enter moves execution to the first instruction of fn
func (t *task) enter(fn *ScriptFunction) {
	if fn.Chunk != nil {
		t.chunk = fn.Chunk
	}
	t.ip = fn.Entry
}

// returnFromCall pops the current frame and reports whether the task halts.
// The frame's window and the callee below it are replaced by the result.
func (t *task) returnFromCall() bool {
	result := t.pop()

	if len(t.frames) == 0 {
		return true
	}
	frame := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]

	t.truncate(frame.base - 1)
	t.push(result)

	if len(t.frames) == 0 {
		return true
	}
	t.chunk = frame.chunk
	t.ip = frame.returnAddress
	return false
}

func checkArity(name string, arity, argc int) error {
	if arity == Variadic || arity == argc {
		return nil
	}
	return NewRuntimeError(ErrArityMismatch, "%s expects %d arguments, got %d", name, arity, argc)
}

// invokeNative calls a host function. A plain Go error or a panic becomes a
// NativeError; a *RuntimeError returned by the native keeps its kind.
func invokeNative(fn *NativeFunction, args []Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = NilVal()
			err = &RuntimeError{
				Kind:    ErrNative,
				Message: fmt.Sprintf("%s panicked: %v", fn.Name, r),
			}
		}
	}()

	result, err = fn.Fn(args)
	if err == nil {
		return result, nil
	}

	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return NilVal(), rerr
	}
	return NilVal(), &RuntimeError{
		Kind:    ErrNative,
		Message: fmt.Sprintf("%s: %v", fn.Name, err),
		Err:     err,
	}
}

// spawn starts the callee on a new task. Arity and callability are checked
// here so those faults belong to the spawning task.
func (t *task) spawn(argc int) error {
	calleeIdx := len(t.stack) - 1 - argc
	if calleeIdx < 0 {
		return NewRuntimeError(ErrStackUnderflow, "spawn with %d arguments on a stack of %d", argc, len(t.stack))
	}
	callee := t.stack[calleeIdx]

	switch callee.Type {
	case ValNative:
		fn := callee.AsNative()
		if err := checkArity(fn.Name, fn.Arity, argc); err != nil {
			return err
		}
	case ValFunction:
		fn := callee.AsFunction()
		if err := checkArity(fn.Name, fn.Arity, argc); err != nil {
			return err
		}
	default:
		return NewRuntimeError(ErrTypeMismatch, "can only spawn functions, got %s", callee.Type)
	}

	args := make([]Value, argc)
	copy(args, t.stack[calleeIdx+1:])
	t.truncate(calleeIdx)

	t.vm.spawnTask(t.ctx, t.chunk, t.id, callee, args)
	return nil
}

// spawnTask runs callee on its own goroutine. Faults are logged and kept on
// the VM; they never reach the parent.
func (vm *VM) spawnTask(ctx context.Context, chunk *Chunk, parent string, callee Value, args []Value) {
	child := vm.newTask(ctx, chunk)
	vm.logger.Debug("task spawned", "task", child.id, "parent", parent, "callee", callee.String())

	vm.tasks.Go(func() error {
		var err error
		if callee.IsNative() {
			var rerr error
			if _, rerr = invokeNative(callee.AsNative(), args); rerr != nil {
				rerr.(*RuntimeError).Task = child.id
				err = rerr
			}
		} else {
			err = child.runFunction(callee, args)
		}

		if err != nil {
			vm.recordFault(child.id, err)
		} else {
			vm.logger.Debug("task finished", "task", child.id)
		}
		return nil
	})
}

// runFunction prepares the stack as [callee, args...] with one frame whose
// window starts at 1 and runs until that frame returns.
func (t *task) runFunction(callee Value, args []Value) error {
	fn := callee.AsFunction()
	t.enter(fn)

	t.stack = append(t.stack, callee)
	t.stack = append(t.stack, args...)
	t.frames = append(t.frames, CallFrame{returnAddress: len(t.chunk.Code), base: 1})

	return t.run()
}
