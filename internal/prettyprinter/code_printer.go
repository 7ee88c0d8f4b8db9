// Package prettyprinter renders a parsed program back to source code in
// canonical layout: four-space indentation, one statement per line and only
// the parentheses the grammar needs.
package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/jihll/internal/ast"
)

// Operator precedence (higher = binds tighter). Every operator is
// left-associative.
var operatorPrecedence = map[string]int{
	"=":  1,
	"==": 2,
	"<":  3,
	">":  3,
	"+":  4,
	"-":  4,
	"*":  5,
	"/":  5,
}

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10
}

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Format renders program as source text.
func Format(program *ast.Program) string {
	p := NewCodePrinter()
	program.Accept(p)
	return p.String()
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec || (prec == parentPrec && isRight)
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.AssignExpression:
		prec := getPrecedence("=")
		if prec < parentPrec {
			p.write("(")
			e.Accept(p)
			p.write(")")
		} else {
			e.Accept(p)
		}
	default:
		expr.Accept(p)
	}
}

// printBody writes a nested statement. Blocks stay on the header line, any
// other statement goes on its own indented line.
func (p *CodePrinter) printBody(stmt ast.Statement) {
	if stmt == nil {
		p.write(" <???>")
		return
	}
	if _, ok := stmt.(*ast.BlockStatement); ok {
		p.write(" ")
		stmt.Accept(p)
		return
	}
	p.write("\n")
	p.indent++
	p.writeIndent()
	stmt.Accept(p)
	p.indent--
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	for _, stmt := range n.Statements {
		if stmt != nil {
			stmt.Accept(p)
		} else {
			p.write("<???>")
		}
		p.write("\n")
	}
}

func (p *CodePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.printExpr(n.Expression, 0, false)
	p.write(";")
}

func (p *CodePrinter) VisitPrintStatement(n *ast.PrintStatement) {
	p.write("print ")
	p.printExpr(n.Value, 0, false)
	p.write(";")
}

func (p *CodePrinter) VisitVarStatement(n *ast.VarStatement) {
	keyword := n.Token.Lexeme
	if keyword == "" {
		keyword = "var"
	}
	p.write(keyword + " ")
	if n.Name != nil {
		p.write(n.Name.Value)
	} else {
		p.write("<???>")
	}
	if n.Value != nil {
		p.write(" = ")
		p.printExpr(n.Value, 0, false)
	}
	p.write(";")
}

func (p *CodePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	if len(n.Statements) == 0 {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, stmt := range n.Statements {
		p.writeIndent()
		if stmt != nil {
			stmt.Accept(p)
		} else {
			p.write("<???>")
		}
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) VisitIfStatement(n *ast.IfStatement) {
	p.write("if (")
	p.printExpr(n.Condition, 0, false)
	p.write(")")
	p.printBody(n.Consequence)
	if n.Alternative == nil {
		return
	}
	if _, ok := n.Consequence.(*ast.BlockStatement); ok {
		p.write(" else")
	} else {
		p.write("\n")
		p.writeIndent()
		p.write("else")
	}
	if elif, ok := n.Alternative.(*ast.IfStatement); ok {
		p.write(" ")
		elif.Accept(p)
		return
	}
	p.printBody(n.Alternative)
}

func (p *CodePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.write("while (")
	p.printExpr(n.Condition, 0, false)
	p.write(")")
	p.printBody(n.Body)
}

func (p *CodePrinter) VisitFunctionStatement(n *ast.FunctionStatement) {
	p.write("fun ")
	if n.Name != nil {
		p.write(n.Name.Value)
	} else {
		p.write("<???>")
	}
	p.write("(")
	for i, param := range n.Parameters {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Value)
	}
	p.write(") ")
	if n.Body != nil {
		n.Body.Accept(p)
	} else {
		p.write("{}")
	}
}

func (p *CodePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	p.write("return")
	if n.Value != nil {
		p.write(" ")
		p.printExpr(n.Value, 0, false)
	}
	p.write(";")
}

func (p *CodePrinter) VisitSpawnStatement(n *ast.SpawnStatement) {
	p.write("spawn ")
	if n.Call != nil {
		n.Call.Accept(p)
	} else {
		p.write("<???>")
	}
	p.write(";")
}

func (p *CodePrinter) VisitLiteral(n *ast.Literal) {
	switch v := n.Value.(type) {
	case nil:
		p.write("nil")
	case bool:
		p.write(strconv.FormatBool(v))
	case float64:
		p.write(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		p.write(strconv.Itoa(v))
	case string:
		p.write(quote(v))
	default:
		p.write("<???>")
	}
}

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitAssignExpression(n *ast.AssignExpression) {
	if n.Name != nil {
		p.write(n.Name.Value)
	} else {
		p.write("<???>")
	}
	p.write(" = ")
	// Assignment is right-associative: a = b = c
	p.printExpr(n.Value, getPrecedence("="), false)
}

func (p *CodePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	p.printExpr(n, 0, false)
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.printExpr(n.Function, getPrecedence(""), false)
	p.write("(")
	for i, arg := range n.Arguments {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(arg, 0, false)
	}
	p.write(")")
}

func (p *CodePrinter) VisitListLiteral(n *ast.ListLiteral) {
	p.write("[")
	for i, el := range n.Elements {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(el, 0, false)
	}
	p.write("]")
}

// quote writes s as a string literal using the escapes the lexer resolves.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
