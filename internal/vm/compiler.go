package vm

import (
	"fmt"

	"github.com/funvibe/jihll/internal/ast"
)

// Compiler compiles AST to bytecode in a single pass. Variables are global;
// the only locals are the parameters of the function being compiled.
type Compiler struct {
	chunk *Chunk

	// names interns global names so each one occupies a single constant slot
	names map[string]int

	// function is the innermost function body being compiled, nil at top level
	function *functionScope

	// line of the node currently being compiled, used for Lines and errors
	line int
}

// NewCompiler creates a new compiler
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile translates a program into a fresh Chunk. The chunk ends with
// CONSTANT nil; RETURN so the main task halts through the frame mechanism.
func (c *Compiler) Compile(program *ast.Program) (chunk *Chunk, err error) {
	if program == nil {
		return nil, &TranslationError{Message: "nil program"}
	}

	c.chunk = NewChunk()
	c.chunk.File = program.File
	c.names = make(map[string]int)
	c.function = nil
	c.line = 0

	defer func() {
		if r := recover(); r != nil {
			if te, ok := r.(*TranslationError); ok {
				chunk, err = nil, te
				return
			}
			panic(r)
		}
	}()

	for _, stmt := range program.Statements {
		c.compileStatement(stmt)
	}

	c.emitConstant(NilVal())
	c.emit(OP_RETURN)

	return c.chunk, nil
}

func (c *Compiler) compileStatement(stmt ast.Statement) {
	if stmt == nil {
		c.fail("nil statement")
	}
	if tok := stmt.GetToken(); tok.Line > 0 {
		c.line = tok.Line
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		c.compileExpression(s.Expression)
		c.emit(OP_POP)
	case *ast.PrintStatement:
		c.compileExpression(s.Value)
		c.emit(OP_PRINT)
	case *ast.VarStatement:
		c.compileVarStatement(s)
	case *ast.BlockStatement:
		c.compileBlock(s)
	case *ast.IfStatement:
		c.compileIfStatement(s)
	case *ast.WhileStatement:
		c.compileWhileStatement(s)
	case *ast.FunctionStatement:
		c.compileFunctionStatement(s)
	case *ast.ReturnStatement:
		c.compileReturnStatement(s)
	case *ast.SpawnStatement:
		c.compileSpawnStatement(s)
	default:
		c.fail("unsupported statement %T", stmt)
	}
}

func (c *Compiler) compileExpression(expr ast.Expression) {
	if expr == nil {
		c.fail("nil expression")
	}
	if tok := expr.GetToken(); tok.Line > 0 {
		c.line = tok.Line
	}

	switch e := expr.(type) {
	case *ast.Literal:
		c.compileLiteral(e)
	case *ast.Identifier:
		c.compileIdentifier(e)
	case *ast.AssignExpression:
		c.compileAssign(e)
	case *ast.InfixExpression:
		c.compileInfix(e)
	case *ast.CallExpression:
		c.compileCall(e)
	case *ast.ListLiteral:
		c.compileList(e)
	default:
		c.fail("unsupported expression %T", expr)
	}
}

// fail aborts compilation; Compile turns the panic into its error result.
func (c *Compiler) fail(format string, args ...interface{}) {
	panic(&TranslationError{Line: c.line, Message: fmt.Sprintf(format, args...)})
}
