package vm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/funvibe/jihll/internal/ast"
	"github.com/funvibe/jihll/internal/token"
)

// runVMExpectError compiles and runs the input, expecting a runtime error.
// Fails the test if no error occurs.
func runVMExpectError(t *testing.T, input string) error {
	t.Helper()
	chunk := compile(t, input)

	vm := New()
	vm.SetOutput(&bytes.Buffer{})
	vm.RegisterBuiltins()

	// Timeout to catch infinite loops that don't hit a limit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := vm.InterpretContext(ctx, chunk)
	if err == nil {
		t.Fatalf("expected runtime error, but %q ran successfully", input)
	}
	return err
}

// runVMExpectErrorContains also checks the kind and message of the error.
func runVMExpectErrorContains(t *testing.T, input string, kind error, wantSubstr string) {
	t.Helper()
	err := runVMExpectError(t, input)
	if !errors.Is(err, kind) {
		t.Errorf("error %q is not %v", err, kind)
	}
	if !strings.Contains(err.Error(), wantSubstr) {
		t.Errorf("error %q should contain %q", err, wantSubstr)
	}
}

func TestUndefinedGlobal(t *testing.T) {
	runVMExpectErrorContains(t, "print missing;", ErrUndefinedGlobal, "missing")
	runVMExpectErrorContains(t, "missing();", ErrUndefinedGlobal, "missing")
	runVMExpectErrorContains(t, "fun f() { return nope; } f();", ErrUndefinedGlobal, "nope")
}

func TestDefineThenGet(t *testing.T) {
	_, vm := runVM(t, "var answer = 42; var copy = answer;")
	testNumberValue(t, globalValue(t, vm, "copy"), 42)
}

func TestTypeMismatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`print "a" - 1;`, "'-'"},
		{`print nil * 2;`, "'*'"},
		{`print [1] / 2;`, "'/'"},
		{`print "a" < "b";`, "'<'"},
		{`print nil > 1;`, "'>'"},
		{`print nil + 1;`, "'+'"},
		{`print [1] + [2];`, "'+'"},
		{`print true + 1;`, "'+'"},
		{`print false * 5;`, "'*'"},
		{`print true - 1;`, "'-'"},
		{`print true > false;`, "'>'"},
		{`print 1 < true;`, "'<'"},
		{`var x = 1; x();`, "can only call"},
		{`"str"(1);`, "can only call"},
		{`spawn nil();`, "can only spawn"},
		{`print sqrt("x");`, "sqrt expects a number"},
		{`print len(1);`, "len expects"},
		{`push(1, 2);`, "push expects a list"},
	}

	for _, tt := range tests {
		runVMExpectErrorContains(t, tt.input, ErrTypeMismatch, tt.want)
	}
}

func TestArityMismatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fun f(a) { return a; } f();", "f expects 1 arguments, got 0"},
		{"fun f() { } f(1, 2);", "f expects 0 arguments, got 2"},
		{"sqrt(1, 2);", "sqrt expects 1 arguments, got 2"},
		{"clock(1);", "clock expects 0 arguments"},
		{"fun f(a) { } spawn f();", "f expects 1 arguments, got 0"},
	}

	for _, tt := range tests {
		runVMExpectErrorContains(t, tt.input, ErrArityMismatch, tt.want)
	}
}

func TestStackOverflow(t *testing.T) {
	runVMExpectErrorContains(t, "fun f() { return f(); } f();", ErrStackOverflow, "frames")

	chunk := compile(t, "fun f(n) { return f(n + 1) + 1; } f(0);")
	vm := New()
	vm.SetLimits(Limits{MaxStack: 100, MaxFrames: 1 << 20})
	err := vm.Interpret(chunk)
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
	if !strings.Contains(err.Error(), "operand stack") {
		t.Errorf("error %q should mention the operand stack", err)
	}
}

func TestNativeError(t *testing.T) {
	chunk := compile(t, "fail();")
	vm := New()
	cause := errors.New("disk on fire")
	vm.RegisterNative("fail", 0, func([]Value) (Value, error) {
		return NilVal(), cause
	})

	err := vm.Interpret(chunk)
	if !errors.Is(err, ErrNative) {
		t.Fatalf("expected native error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v should wrap the native's error", err)
	}
	if !strings.Contains(err.Error(), "fail: disk on fire") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestNativePanicIsContained(t *testing.T) {
	chunk := compile(t, "boom();")
	vm := New()
	vm.RegisterNative("boom", 0, func([]Value) (Value, error) {
		panic("kaboom")
	})

	err := vm.Interpret(chunk)
	if !errors.Is(err, ErrNative) || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("expected native panic as error, got %v", err)
	}
}

func TestIndexOutOfRange(t *testing.T) {
	runVMExpectErrorContains(t, "at([1, 2], 5);", ErrNative, "out of range")
	runVMExpectErrorContains(t, "at([1, 2], 0.5);", ErrTypeMismatch, "integer index")
}

func TestErrorCarriesLineAndTask(t *testing.T) {
	err := runVMExpectError(t, "var a = 1;\nvar b = 2;\nprint c;")
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rerr.Line != 3 {
		t.Errorf("line = %d, want 3", rerr.Line)
	}
	if rerr.Task == "" {
		t.Error("task id is empty")
	}
	if !strings.HasPrefix(err.Error(), "[line 3]") {
		t.Errorf("message %q should start with the line", err)
	}
}

func TestWritesBeforeFaultAreKept(t *testing.T) {
	chunk := compile(t, "var a = 1; a = 2; print missing; var b = 3;")
	vm := New()
	if err := vm.Interpret(chunk); !errors.Is(err, ErrUndefinedGlobal) {
		t.Fatalf("expected undefined global, got %v", err)
	}
	testNumberValue(t, globalValue(t, vm, "a"), 2)
	if _, ok := vm.GetGlobal("b"); ok {
		t.Error("b should not be defined after the fault")
	}
}

func TestContextCancellation(t *testing.T) {
	chunk := compile(t, "while (true) { }")
	vm := New()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := vm.InterpretContext(ctx, chunk)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	chunk := NewChunk()
	chunk.WriteOp(OP_POP, 1)

	err := New().Interpret(chunk)
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected stack underflow, got %v", err)
	}
}

func TestTranslationErrors(t *testing.T) {
	tests := []struct {
		name    string
		program *ast.Program
		want    string
	}{
		{
			"unknown operator",
			&ast.Program{Statements: []ast.Statement{
				&ast.PrintStatement{Value: &ast.InfixExpression{
					Token:    token.Token{Line: 1},
					Left:     &ast.Literal{Value: 1.0},
					Operator: "%",
					Right:    &ast.Literal{Value: 2.0},
				}},
			}},
			"unsupported operator",
		},
		{
			"unsupported literal",
			&ast.Program{Statements: []ast.Statement{
				&ast.PrintStatement{Value: &ast.Literal{Value: struct{}{}}},
			}},
			"unsupported literal",
		},
		{
			"nil statement",
			&ast.Program{Statements: []ast.Statement{nil}},
			"nil statement",
		},
		{
			"too many arguments",
			&ast.Program{Statements: []ast.Statement{
				&ast.ExpressionStatement{Expression: &ast.CallExpression{
					Function:  &ast.Identifier{Value: "f"},
					Arguments: make([]ast.Expression, 256),
				}},
			}},
			"more than 255 arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := NewCompiler().Compile(tt.program)
			if err == nil {
				t.Fatalf("expected translation error, got chunk of %d bytes", chunk.Len())
			}
			if !errors.Is(err, ErrTranslation) {
				t.Errorf("error %v is not a translation error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestJumpTooFar(t *testing.T) {
	// Each print of a constant is 4 bytes; 9000 of them overflow an int16 offset
	stmts := make([]ast.Statement, 9000)
	for i := range stmts {
		stmts[i] = &ast.PrintStatement{Value: &ast.Literal{Value: float64(i)}}
	}
	program := &ast.Program{Statements: []ast.Statement{
		&ast.IfStatement{
			Condition:   &ast.Literal{Value: true},
			Consequence: &ast.BlockStatement{Statements: stmts},
		},
	}}

	_, err := NewCompiler().Compile(program)
	if !errors.Is(err, ErrTranslation) || !strings.Contains(err.Error(), "jump too far") {
		t.Fatalf("expected jump too far, got %v", err)
	}
}
