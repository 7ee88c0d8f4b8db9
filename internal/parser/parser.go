package parser

import (
	"fmt"

	"github.com/funvibe/jihll/internal/ast"
	"github.com/funvibe/jihll/internal/diagnostics"
	"github.com/funvibe/jihll/internal/pipeline"
	"github.com/funvibe/jihll/internal/token"
)

// MaxArguments bounds parameter and argument lists; counts are encoded in one byte.
const MaxArguments = 255

const (
	_ int = iota
	LOWEST
	ASSIGN      // =
	EQUALS      // ==
	LESSGREATER // > or <
	SUM         // + -
	PRODUCT     // * /
	CALL        // f(x)
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:   ASSIGN,
	token.EQ:       EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.LPAREN:   CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens []token.Token
	pos    int
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	// failed is set by the first error in a statement and cleared on resync.
	failed bool

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{tokens: tokens, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.NUMBER:   p.parseNumberLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBooleanLiteral,
		token.FALSE:    p.parseBooleanLiteral,
		token.NIL:      p.parseNilLiteral,
		token.LBRACKET: p.parseListLiteral,
		token.LPAREN:   p.parseGroupedExpression,
		token.MINUS:    p.parsePrefixMinus,
	}
	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.PLUS:     p.parseInfixExpression,
		token.MINUS:    p.parseInfixExpression,
		token.ASTERISK: p.parseInfixExpression,
		token.SLASH:    p.parseInfixExpression,
		token.LT:       p.parseInfixExpression,
		token.GT:       p.parseInfixExpression,
		token.EQ:       p.parseInfixExpression,
		token.ASSIGN:   p.parseAssignExpression,
		token.LPAREN:   p.parseCallExpression,
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// ParseProgram parses declarations until EOF. Errors are recorded on the
// pipeline context; statements that failed to parse are left out.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.ctx.FilePath}
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseDeclaration()
		if p.failed {
			p.synchronize()
			continue
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}
	return program
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = token.Token{Type: token.EOF, Line: p.curToken.Line, Column: p.curToken.Column}
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) peekError(t token.TokenType) {
	p.errorAt(diagnostics.ErrP001, p.peekToken,
		fmt.Sprintf("expected %s, got %s", describe(t), describeToken(p.peekToken)))
}

func (p *Parser) errorAt(code string, tok token.Token, msg string) {
	if p.failed {
		return
	}
	p.failed = true
	p.ctx.AddError(diagnostics.NewError(code, tok, msg))
}

// synchronize skips to the start of the next statement after an error.
func (p *Parser) synchronize() {
	p.failed = false
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) || p.curTokenIs(token.RBRACE) {
			p.nextToken()
			return
		}
		switch p.peekToken.Type {
		case token.FUN, token.VAR, token.PRINT, token.IF, token.WHILE, token.RETURN, token.SPAWN,
			token.TYPE_INT, token.TYPE_DOUBLE, token.TYPE_STRING, token.TYPE_BOOL:
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

func describe(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.EOF:
		return "end of input"
	}
	return fmt.Sprintf("'%s'", string(t))
}

func describeToken(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}
