package vm

import "fmt"

// add concatenates canonical forms when either operand is a string and
// sums numerically otherwise.
func (t *task) add() error {
	b := t.pop()
	a := t.pop()

	if a.IsString() || b.IsString() {
		t.push(StringVal(a.String() + b.String()))
		return nil
	}

	x, okA := a.toNumber()
	y, okB := b.toNumber()
	if !okA || !okB {
		return operandMismatch("+", a, b)
	}
	t.push(NumberVal(x + y))
	return nil
}

// arithmetic handles SUBTRACT, MULTIPLY and DIVIDE. Division by zero follows
// IEEE 754 and yields inf or NaN.
func (t *task) arithmetic(op Opcode) error {
	b := t.pop()
	a := t.pop()

	x, okA := a.toNumber()
	y, okB := b.toNumber()
	if !okA || !okB {
		return operandMismatch(opSymbol(op), a, b)
	}

	switch op {
	case OP_SUBTRACT:
		t.push(NumberVal(x - y))
	case OP_MULTIPLY:
		t.push(NumberVal(x * y))
	case OP_DIVIDE:
		t.push(NumberVal(x / y))
	}
	return nil
}

func (t *task) compare(op Opcode) error {
	b := t.pop()
	a := t.pop()

	x, okA := a.toNumber()
	y, okB := b.toNumber()
	if !okA || !okB {
		return operandMismatch(opSymbol(op), a, b)
	}

	if op == OP_LESS {
		t.push(BoolVal(x < y))
	} else {
		t.push(BoolVal(x > y))
	}
	return nil
}

// buildList pops n values and pushes them as a list in source order
func (t *task) buildList(n int) {
	if n > len(t.stack) {
		panic(NewRuntimeError(ErrStackUnderflow, "list of %d elements with %d on stack", n, len(t.stack)))
	}
	start := len(t.stack) - n
	elements := make([]Value, n)
	copy(elements, t.stack[start:])
	t.truncate(start)
	t.push(ListVal(NewList(elements)))
}

func opSymbol(op Opcode) string {
	switch op {
	case OP_SUBTRACT:
		return "-"
	case OP_MULTIPLY:
		return "*"
	case OP_DIVIDE:
		return "/"
	case OP_LESS:
		return "<"
	case OP_GREATER:
		return ">"
	}
	return op.String()
}

func operandMismatch(symbol string, a, b Value) *RuntimeError {
	return &RuntimeError{
		Kind:    ErrTypeMismatch,
		Message: fmt.Sprintf("operands of '%s' must be numbers, got %s and %s", symbol, a.Type, b.Type),
	}
}
