package vm

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// CallFrame represents a single ongoing function call
type CallFrame struct {
	chunk         *Chunk // chunk to resume in; nil for a task's outermost frame
	returnAddress int    // ip to resume at in chunk
	base          int    // first argument slot; the callee sits at base-1
}

// task is one thread of execution. Everything here is private to the
// goroutine running it; only globals and output are shared.
type task struct {
	vm  *VM
	id  string
	ctx context.Context

	chunk   *Chunk
	ip      int
	opStart int // offset of the instruction being executed

	stack  []Value // len(stack) is the stack pointer
	frames []CallFrame
}

func (vm *VM) newTask(ctx context.Context, chunk *Chunk) *task {
	return &task{
		vm:     vm,
		id:     uuid.NewString(),
		ctx:    ctx,
		chunk:  chunk,
		stack:  make([]Value, 0, 256),
		frames: make([]CallFrame, 0, 16),
	}
}

// run executes until the task halts, faults or its context is cancelled.
func (t *task) run() error {
	ops := 0
	for {
		ops++
		if ops%1000 == 1 {
			if err := t.ctx.Err(); err != nil {
				return err
			}
		}

		done, err := t.step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// step executes one instruction. Faults raised with panic by the stack and
// decode helpers are recovered here and returned as errors.
func (t *task) step() (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(*RuntimeError)
			if !ok {
				rerr = NewRuntimeError(ErrInvalidBytecode, "%v", r)
			}
			err = t.decorate(rerr)
			done = true
		}
	}()

	if t.ip >= len(t.chunk.Code) {
		// Falling off the end halts the task
		return true, nil
	}

	t.opStart = t.ip
	op := Opcode(t.readByte())

	if op == OP_RETURN {
		return t.returnFromCall(), nil
	}

	if err := t.executeOneOp(op); err != nil {
		return true, t.decorate(err)
	}
	return false, nil
}

// decorate attaches the source line and task id to a runtime fault.
func (t *task) decorate(err error) error {
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		return err
	}
	if rerr.Line == 0 {
		rerr.Line = t.chunk.LineAt(t.opStart)
	}
	if rerr.Task == "" {
		rerr.Task = t.id
	}
	return rerr
}

func (t *task) executeOneOp(op Opcode) error {
	switch op {
	case OP_CONSTANT:
		t.push(t.readConstant())

	case OP_PRINT:
		if err := t.vm.print(t.pop().String()); err != nil {
			return NewRuntimeError(ErrNative, "print: %v", err)
		}

	case OP_POP:
		t.pop()

	case OP_DEFINE_GLOBAL:
		name := t.readName()
		t.vm.globals.Define(name, t.pop())

	case OP_SET_GLOBAL:
		name := t.readName()
		t.vm.globals.Set(name, t.peek(0))

	case OP_GET_GLOBAL:
		name := t.readName()
		v, ok := t.vm.globals.Get(name)
		if !ok {
			return NewRuntimeError(ErrUndefinedGlobal, "undefined variable '%s'", name)
		}
		t.push(v)

	case OP_GET_LOCAL:
		slot := t.localSlot(int(t.readByte()))
		t.push(t.stack[slot])

	case OP_SET_LOCAL:
		slot := t.localSlot(int(t.readByte()))
		t.stack[slot] = t.peek(0)

	case OP_ADD:
		return t.add()

	case OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE:
		return t.arithmetic(op)

	case OP_LESS, OP_GREATER:
		return t.compare(op)

	case OP_EQUAL:
		b := t.pop()
		a := t.pop()
		t.push(BoolVal(a.Equals(b)))

	case OP_JUMP_IF_FALSE:
		offset := t.readJumpOffset()
		if t.pop().IsFalsey() {
			t.jump(offset)
		}

	case OP_JUMP:
		t.jump(t.readJumpOffset())

	case OP_BUILD_LIST:
		t.buildList(int(t.readByte()))

	case OP_CALL:
		return t.callValue(int(t.readByte()))

	case OP_SPAWN:
		return t.spawn(int(t.readByte()))

	default:
		return NewRuntimeError(ErrInvalidBytecode, "unknown opcode %d", op)
	}
	return nil
}

// Stack helpers

func (t *task) push(v Value) {
	if len(t.stack) >= t.vm.limits.MaxStack {
		panic(NewRuntimeError(ErrStackOverflow, "operand stack exceeds %d values", t.vm.limits.MaxStack))
	}
	t.stack = append(t.stack, v)
}

func (t *task) pop() Value {
	n := len(t.stack)
	if n == 0 {
		panic(NewRuntimeError(ErrStackUnderflow, "pop from empty stack"))
	}
	v := t.stack[n-1]
	t.stack[n-1] = Value{}
	t.stack = t.stack[:n-1]
	return v
}

func (t *task) peek(distance int) Value {
	idx := len(t.stack) - 1 - distance
	if idx < 0 {
		panic(NewRuntimeError(ErrStackUnderflow, "peek past bottom of stack"))
	}
	return t.stack[idx]
}

// truncate drops everything at and above height
func (t *task) truncate(height int) {
	if height < 0 {
		height = 0
	}
	if height >= len(t.stack) {
		return
	}
	clear(t.stack[height:])
	t.stack = t.stack[:height]
}

func (t *task) localSlot(slot int) int {
	if len(t.frames) == 0 {
		panic(NewRuntimeError(ErrInvalidBytecode, "local access outside a call"))
	}
	idx := t.frames[len(t.frames)-1].base + slot
	if idx >= len(t.stack) {
		panic(NewRuntimeError(ErrStackUnderflow, "local slot %d outside the frame", slot))
	}
	return idx
}

// Decode helpers

func (t *task) readByte() byte {
	if t.ip >= len(t.chunk.Code) {
		panic(NewRuntimeError(ErrInvalidBytecode, "truncated bytecode at %d", t.ip))
	}
	b := t.chunk.Code[t.ip]
	t.ip++
	return b
}

func (t *task) readIndex() int {
	hi := t.readByte()
	lo := t.readByte()
	return int(hi)<<8 | int(lo)
}

func (t *task) readConstant() Value {
	idx := t.readIndex()
	if idx >= len(t.chunk.Constants) {
		panic(NewRuntimeError(ErrInvalidBytecode, "invalid constant index %d", idx))
	}
	return t.chunk.Constants[idx]
}

func (t *task) readName() string {
	v := t.readConstant()
	if !v.IsString() {
		panic(NewRuntimeError(ErrInvalidBytecode, "global name is %s, not string", v.Type))
	}
	return v.AsString()
}

// readJumpOffset decodes a signed offset relative to the byte after it
func (t *task) readJumpOffset() int {
	return int(int16(uint16(t.readIndex())))
}

func (t *task) jump(offset int) {
	target := t.ip + offset
	if target < 0 || target > len(t.chunk.Code) {
		panic(NewRuntimeError(ErrInvalidBytecode, "jump to %d outside code", target))
	}
	t.ip = target
}
