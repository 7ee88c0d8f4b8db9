package parser

import (
	"fmt"

	"github.com/funvibe/jihll/internal/ast"
	"github.com/funvibe/jihll/internal/diagnostics"
	"github.com/funvibe/jihll/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorAt(diagnostics.ErrP001, p.curToken,
			fmt.Sprintf("expected expression, got %s", describeToken(p.curToken)))
		return nil
	}
	leftExp := prefix()

	for !p.failed && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}
	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	return &ast.Literal{Token: p.curToken, Value: p.curToken.Literal.(float64)}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.Literal{Token: p.curToken, Value: p.curToken.Literal.(string)}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.Literal{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.Literal{Token: p.curToken, Value: nil}
}

// parsePrefixMinus reads -x as 0 - x; the VM has no negate instruction.
func (p *Parser) parsePrefixMinus() ast.Expression {
	tok := p.curToken
	p.nextToken()
	operand := p.parseExpression(PRODUCT)
	zero := token.Token{Type: token.NUMBER, Lexeme: "0", Literal: 0.0, Line: tok.Line, Column: tok.Column}
	return &ast.InfixExpression{
		Token:    tok,
		Left:     &ast.Literal{Token: zero, Value: 0.0},
		Operator: "-",
		Right:    operand,
	}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}
	list.Elements = p.parseExpressionList(token.RBRACKET)
	return list
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	return expression
}

// parseAssignExpression is right-associative: a = b = 1 assigns both.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.errorAt(diagnostics.ErrP002, p.curToken, "invalid assignment target")
		return nil
	}
	expr := &ast.AssignExpression{Token: p.curToken, Name: ident}
	p.nextToken()
	expr.Value = p.parseExpression(ASSIGN - 1)
	return expr
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Function: function}
	call.Arguments = p.parseExpressionList(token.RPAREN)
	return call
}

// parseExpressionList parses comma-separated expressions up to end.
// It starts on the opening delimiter and finishes on end.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	var list []ast.Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}
	if len(list) > MaxArguments {
		p.errorAt(diagnostics.ErrP003, p.curToken, "too many elements or arguments")
		return nil
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}
