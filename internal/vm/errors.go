package vm

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against a *RuntimeError or
// *TranslationError.
var (
	ErrTranslation     = errors.New("translation error")
	ErrUndefinedGlobal = errors.New("undefined global")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrArityMismatch   = errors.New("arity mismatch")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrNative          = errors.New("native error")
	ErrInvalidBytecode = errors.New("invalid bytecode")
)

// RuntimeError is a fault raised while executing a task. It is fatal to that
// task only.
type RuntimeError struct {
	Kind    error
	Message string
	Line    int
	Task    string

	// Err is the error returned by a native, if that is what failed.
	Err error
}

// NewRuntimeError builds a fault of the given kind. Natives may return one to
// fail with a specific kind instead of ErrNative.
func NewRuntimeError(kind error, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[line %d] %s: %s", e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RuntimeError) Is(target error) bool {
	return target == e.Kind
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// TranslationError reports an AST the compiler cannot encode.
type TranslationError struct {
	Line    int
	Message string
}

func (e *TranslationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[line %d] translation error: %s", e.Line, e.Message)
	}
	return "translation error: " + e.Message
}

func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslation
}
