package vm

import (
	"math"

	"github.com/funvibe/jihll/internal/ast"
)

func (c *Compiler) compileVarStatement(s *ast.VarStatement) {
	if s.Name == nil {
		c.fail("variable declaration without a name")
	}
	if s.Value != nil {
		c.compileExpression(s.Value)
	} else {
		c.emitConstant(NumberVal(0))
	}
	// Redeclaring a parameter rebinds its slot
	if slot := c.resolveLocal(s.Name.Value); slot >= 0 {
		c.emitWithOperand(OP_SET_LOCAL, slot)
		c.emit(OP_POP)
		return
	}
	c.emitWithIndex(OP_DEFINE_GLOBAL, c.identifierConstant(s.Name.Value))
}

// Blocks do not open a scope.
func (c *Compiler) compileBlock(block *ast.BlockStatement) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		c.compileStatement(stmt)
	}
}

func (c *Compiler) compileIfStatement(s *ast.IfStatement) {
	c.compileExpression(s.Condition)

	thenJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.compileStatement(s.Consequence)
	elseJump := c.emitJump(OP_JUMP)

	c.patchJump(thenJump)
	if s.Alternative != nil {
		c.compileStatement(s.Alternative)
	}
	c.patchJump(elseJump)
}

// compileFunctionStatement lays the body out inline behind a skip jump and
// binds the resulting function as a global.
func (c *Compiler) compileFunctionStatement(s *ast.FunctionStatement) {
	if s.Name == nil || s.Body == nil {
		c.fail("malformed function declaration")
	}
	if len(s.Parameters) > math.MaxUint8 {
		c.fail("function %s has more than %d parameters", s.Name.Value, math.MaxUint8)
	}

	skip := c.emitJump(OP_JUMP)
	entry := c.chunk.Len()

	params := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		params[i] = p.Value
	}

	c.beginFunction(s.Name.Value, params)
	c.compileBlock(s.Body)
	if !endsWithReturn(s.Body) {
		c.emitConstant(NilVal())
		c.emit(OP_RETURN)
	}
	c.endFunction()

	c.patchJump(skip)

	fn := &ScriptFunction{
		Name:  s.Name.Value,
		Arity: len(params),
		Entry: entry,
		Chunk: c.chunk,
	}
	c.emitWithIndex(OP_CONSTANT, c.makeConstant(FunctionVal(fn)))
	c.emitWithIndex(OP_SET_GLOBAL, c.identifierConstant(s.Name.Value))
	c.emit(OP_POP)
}

func endsWithReturn(block *ast.BlockStatement) bool {
	if len(block.Statements) == 0 {
		return false
	}
	_, ok := block.Statements[len(block.Statements)-1].(*ast.ReturnStatement)
	return ok
}

func (c *Compiler) compileReturnStatement(s *ast.ReturnStatement) {
	if s.Value != nil {
		c.compileExpression(s.Value)
	} else {
		c.emitConstant(NilVal())
	}
	c.emit(OP_RETURN)
}

func (c *Compiler) compileSpawnStatement(s *ast.SpawnStatement) {
	if s.Call == nil {
		c.fail("spawn requires a call")
	}
	argc := c.compileCallee(s.Call)
	c.emitWithOperand(OP_SPAWN, argc)
}
