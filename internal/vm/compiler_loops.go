package vm

import (
	"math"

	"github.com/funvibe/jihll/internal/ast"
)

// emitLoop emits a backward JUMP to loopStart
func (c *Compiler) emitLoop(loopStart int) {
	c.emit(OP_JUMP)

	// Offset is measured from the byte after the two operand bytes
	offset := loopStart - (c.chunk.Len() + 2)
	if offset < math.MinInt16 {
		c.fail("loop body too large")
	}

	c.emitByte(byte(uint16(int16(offset)) >> 8))
	c.emitByte(byte(uint16(int16(offset))))
}

func (c *Compiler) compileWhileStatement(s *ast.WhileStatement) {
	loopStart := c.chunk.Len()

	c.compileExpression(s.Condition)
	exitJump := c.emitJump(OP_JUMP_IF_FALSE)

	c.compileStatement(s.Body)
	c.line = s.Token.Line
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
}
