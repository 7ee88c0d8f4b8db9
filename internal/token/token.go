// Package token defines the lexical tokens of jihll source text.
package token

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers and literals
	IDENT  TokenType = "IDENT"
	NUMBER TokenType = "NUMBER"
	STRING TokenType = "STRING"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	LT       TokenType = "<"
	GT       TokenType = ">"
	EQ       TokenType = "=="

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"

	// Keywords
	VAR    TokenType = "VAR"
	FUN    TokenType = "FUN"
	PRINT  TokenType = "PRINT"
	IF     TokenType = "IF"
	ELSE   TokenType = "ELSE"
	WHILE  TokenType = "WHILE"
	RETURN TokenType = "RETURN"
	SPAWN  TokenType = "SPAWN"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"
	NIL    TokenType = "NIL"

	// Typed declarations are accepted and treated like var.
	TYPE_INT    TokenType = "TYPE_INT"
	TYPE_DOUBLE TokenType = "TYPE_DOUBLE"
	TYPE_STRING TokenType = "TYPE_STRING"
	TYPE_BOOL   TokenType = "TYPE_BOOL"
)

type Token struct {
	Type    TokenType
	Lexeme  string      // The raw text of the token
	Literal interface{} // Decoded literal value (float64 for NUMBER, string for STRING)
	Line    int
	Column  int
}

var keywords = map[string]TokenType{
	"var":    VAR,
	"fun":    FUN,
	"print":  PRINT,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"return": RETURN,
	"spawn":  SPAWN,
	"true":   TRUE,
	"false":  FALSE,
	"nil":    NIL,
	"int":    TYPE_INT,
	"double": TYPE_DOUBLE,
	"string": TYPE_STRING,
	"bool":   TYPE_BOOL,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsDeclarationKeyword reports whether t starts a variable declaration.
func IsDeclarationKeyword(t TokenType) bool {
	switch t {
	case VAR, TYPE_INT, TYPE_DOUBLE, TYPE_STRING, TYPE_BOOL:
		return true
	}
	return false
}
