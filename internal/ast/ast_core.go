package ast

import (
	"github.com/funvibe/jihll/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Visitor walks statements and expressions.
type Visitor interface {
	VisitProgram(p *Program)
	VisitExpressionStatement(s *ExpressionStatement)
	VisitPrintStatement(s *PrintStatement)
	VisitVarStatement(s *VarStatement)
	VisitBlockStatement(s *BlockStatement)
	VisitIfStatement(s *IfStatement)
	VisitWhileStatement(s *WhileStatement)
	VisitFunctionStatement(s *FunctionStatement)
	VisitReturnStatement(s *ReturnStatement)
	VisitSpawnStatement(s *SpawnStatement)
	VisitLiteral(e *Literal)
	VisitIdentifier(e *Identifier)
	VisitAssignExpression(e *AssignExpression)
	VisitInfixExpression(e *InfixExpression)
	VisitCallExpression(e *CallExpression)
	VisitListLiteral(e *ListLiteral)
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// ExpressionStatement evaluates an expression and discards its value.
type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) Accept(v Visitor)      { v.VisitExpressionStatement(es) }
func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }

// PrintStatement writes the canonical form of its value followed by a newline.
type PrintStatement struct {
	Token token.Token // The 'print' token
	Value Expression
}

func (ps *PrintStatement) Accept(v Visitor)      { v.VisitPrintStatement(ps) }
func (ps *PrintStatement) statementNode()        {}
func (ps *PrintStatement) TokenLiteral() string  { return ps.Token.Lexeme }
func (ps *PrintStatement) GetToken() token.Token { return ps.Token }

// VarStatement declares a global. Value is nil when there is no initializer.
type VarStatement struct {
	Token token.Token // var, int, double, string or bool
	Name  *Identifier
	Value Expression
}

func (vs *VarStatement) Accept(v Visitor)      { v.VisitVarStatement(vs) }
func (vs *VarStatement) statementNode()        {}
func (vs *VarStatement) TokenLiteral() string  { return vs.Token.Lexeme }
func (vs *VarStatement) GetToken() token.Token { return vs.Token }

// BlockStatement groups statements. It does not open a scope.
type BlockStatement struct {
	Token      token.Token // The '{' token
	Statements []Statement
}

func (bs *BlockStatement) Accept(v Visitor)      { v.VisitBlockStatement(bs) }
func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }

type IfStatement struct {
	Token       token.Token // The 'if' token
	Condition   Expression
	Consequence Statement
	Alternative Statement // nil without else
}

func (is *IfStatement) Accept(v Visitor)      { v.VisitIfStatement(is) }
func (is *IfStatement) statementNode()        {}
func (is *IfStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token { return is.Token }

type WhileStatement struct {
	Token     token.Token // The 'while' token
	Condition Expression
	Body      Statement
}

func (ws *WhileStatement) Accept(v Visitor)      { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()        {}
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token { return ws.Token }

// FunctionStatement declares a global script function.
type FunctionStatement struct {
	Token      token.Token // The 'fun' token
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (fs *FunctionStatement) Accept(v Visitor)      { v.VisitFunctionStatement(fs) }
func (fs *FunctionStatement) statementNode()        {}
func (fs *FunctionStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *FunctionStatement) GetToken() token.Token { return fs.Token }

// ReturnStatement. Value is nil for a bare return.
type ReturnStatement struct {
	Token token.Token // The 'return' token
	Value Expression
}

func (rs *ReturnStatement) Accept(v Visitor)      { v.VisitReturnStatement(rs) }
func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }

// SpawnStatement starts Call on a new concurrent task.
type SpawnStatement struct {
	Token token.Token // The 'spawn' token
	Call  *CallExpression
}

func (ss *SpawnStatement) Accept(v Visitor)      { v.VisitSpawnStatement(ss) }
func (ss *SpawnStatement) statementNode()        {}
func (ss *SpawnStatement) TokenLiteral() string  { return ss.Token.Lexeme }
func (ss *SpawnStatement) GetToken() token.Token { return ss.Token }
