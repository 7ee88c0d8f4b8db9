package vm

import "math"

// functionScope describes the function body being compiled. There are no
// closures: a nested function sees only its own parameters.
type functionScope struct {
	name      string
	params    []string
	enclosing *functionScope
}

// beginFunction enters a function body
func (c *Compiler) beginFunction(name string, params []string) {
	c.function = &functionScope{name: name, params: params, enclosing: c.function}
}

// endFunction leaves the current function body
func (c *Compiler) endFunction() {
	c.function = c.function.enclosing
}

// resolveLocal returns the frame slot of a parameter of the current function,
// or -1 when name refers to a global.
func (c *Compiler) resolveLocal(name string) int {
	if c.function == nil {
		return -1
	}
	// Later parameters shadow earlier ones with the same name
	for i := len(c.function.params) - 1; i >= 0; i-- {
		if c.function.params[i] == name {
			return i
		}
	}
	return -1
}

// Emit helpers

func (c *Compiler) emit(op Opcode) {
	c.chunk.WriteOp(op, c.line)
}

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.line)
}

func (c *Compiler) emitWithOperand(op Opcode, operand int) {
	c.emit(op)
	c.emitByte(byte(operand))
}

func (c *Compiler) emitWithIndex(op Opcode, idx int) {
	c.emit(op)
	c.emitByte(byte(idx >> 8))
	c.emitByte(byte(idx))
}

func (c *Compiler) emitConstant(value Value) {
	c.emitWithIndex(OP_CONSTANT, c.makeConstant(value))
}

// makeConstant adds value to the pool, failing once indices no longer fit
// in two bytes.
func (c *Compiler) makeConstant(value Value) int {
	if len(c.chunk.Constants) > math.MaxUint16 {
		c.fail("too many constants in one chunk")
	}
	return c.chunk.AddConstant(value)
}

// identifierConstant interns a global name in the constant pool
func (c *Compiler) identifierConstant(name string) int {
	if idx, ok := c.names[name]; ok {
		return idx
	}
	idx := c.makeConstant(StringVal(name))
	c.names[name] = idx
	return idx
}

// emitJump writes op with a placeholder offset and returns the operand position
func (c *Compiler) emitJump(op Opcode) int {
	c.emit(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk.Len() - 2
}

// patchJump points the jump whose operand is at offset to the current end of code.
func (c *Compiler) patchJump(offset int) {
	jump := c.chunk.Len() - (offset + 2)

	if jump > math.MaxInt16 {
		c.fail("jump too far")
	}

	c.chunk.Code[offset] = byte(uint16(jump) >> 8)
	c.chunk.Code[offset+1] = byte(uint16(jump))
}
