package vm

import (
	"math"

	"github.com/funvibe/jihll/internal/ast"
)

func (c *Compiler) compileLiteral(lit *ast.Literal) {
	switch v := lit.Value.(type) {
	case nil:
		c.emitConstant(NilVal())
	case bool:
		c.emitConstant(BoolVal(v))
	case float64:
		c.emitConstant(NumberVal(v))
	case int:
		c.emitConstant(NumberVal(float64(v)))
	case string:
		c.emitConstant(StringVal(v))
	default:
		c.fail("unsupported literal %T", lit.Value)
	}
}

func (c *Compiler) compileIdentifier(ident *ast.Identifier) {
	if slot := c.resolveLocal(ident.Value); slot >= 0 {
		c.emitWithOperand(OP_GET_LOCAL, slot)
		return
	}
	c.emitWithIndex(OP_GET_GLOBAL, c.identifierConstant(ident.Value))
}

// compileAssign leaves the assigned value on the stack.
func (c *Compiler) compileAssign(e *ast.AssignExpression) {
	if e.Name == nil {
		c.fail("assignment without a target")
	}
	c.compileExpression(e.Value)
	if slot := c.resolveLocal(e.Name.Value); slot >= 0 {
		c.emitWithOperand(OP_SET_LOCAL, slot)
		return
	}
	c.emitWithIndex(OP_SET_GLOBAL, c.identifierConstant(e.Name.Value))
}

var infixOps = map[string]Opcode{
	"+":  OP_ADD,
	"-":  OP_SUBTRACT,
	"*":  OP_MULTIPLY,
	"/":  OP_DIVIDE,
	"<":  OP_LESS,
	">":  OP_GREATER,
	"==": OP_EQUAL,
}

func (c *Compiler) compileInfix(e *ast.InfixExpression) {
	op, ok := infixOps[e.Operator]
	if !ok {
		c.fail("unsupported operator %q", e.Operator)
	}
	c.compileExpression(e.Left)
	c.compileExpression(e.Right)
	c.line = e.Token.Line
	c.emit(op)
}

func (c *Compiler) compileCall(e *ast.CallExpression) {
	argc := c.compileCallee(e)
	c.emitWithOperand(OP_CALL, argc)
}

// compileCallee pushes the callee and arguments shared by CALL and SPAWN.
func (c *Compiler) compileCallee(e *ast.CallExpression) int {
	if len(e.Arguments) > math.MaxUint8 {
		c.fail("more than %d arguments", math.MaxUint8)
	}
	c.compileExpression(e.Function)
	for _, arg := range e.Arguments {
		c.compileExpression(arg)
	}
	c.line = e.Token.Line
	return len(e.Arguments)
}

func (c *Compiler) compileList(e *ast.ListLiteral) {
	if len(e.Elements) > math.MaxUint8 {
		c.fail("list literal has more than %d elements", math.MaxUint8)
	}
	for _, el := range e.Elements {
		c.compileExpression(el)
	}
	c.line = e.Token.Line
	c.emitWithOperand(OP_BUILD_LIST, len(e.Elements))
}
