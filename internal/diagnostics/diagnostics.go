// Package diagnostics carries positioned errors produced before execution.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/jihll/internal/token"
)

// Error codes.
const (
	ErrL001 = "L001" // illegal character or malformed literal
	ErrP001 = "P001" // unexpected token
	ErrP002 = "P002" // invalid assignment target
	ErrP003 = "P003" // too many parameters or arguments
	ErrC001 = "C001" // translation error
	ErrR001 = "R001" // runtime fault
)

// DiagnosticError is a single compile-time or run-time problem with its source location.
type DiagnosticError struct {
	Code    string
	File    string
	Line    int
	Column  int
	Message string

	// Err is the underlying error, if any (for example a VM runtime fault).
	Err error
}

func NewError(code string, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: message,
	}
}

func (e *DiagnosticError) Error() string {
	loc := ""
	if e.File != "" {
		loc = e.File + ":"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s%d:%d: error [%s]: %s", loc, e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%serror [%s]: %s", loc, e.Code, e.Message)
}

func (e *DiagnosticError) Unwrap() error {
	return e.Err
}
