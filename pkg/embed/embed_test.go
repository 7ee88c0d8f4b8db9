package jihll_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/funvibe/jihll/internal/vm"
	jihll "github.com/funvibe/jihll/pkg/embed"
)

func TestEmbedAPI(t *testing.T) {
	var out bytes.Buffer
	machine := jihll.New(jihll.WithOutput(&out))

	if err := machine.Bind("twice", func(x int) int { return x * 2 }); err != nil {
		t.Fatal(err)
	}
	if err := machine.Bind("greet", func(name string) string { return "hello " + name }); err != nil {
		t.Fatal(err)
	}
	if err := machine.Set("limit", 10); err != nil {
		t.Fatal(err)
	}

	code := `
var doubled = twice(21);
var msg = greet("jihll");
var items = [doubled, msg, limit];
print msg;
`
	if err := machine.Eval(context.Background(), code); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "hello jihll" {
		t.Errorf("output = %q", got)
	}

	res, err := machine.Get("items")
	if err != nil {
		t.Fatal(err)
	}
	list, ok := res.([]interface{})
	if !ok || len(list) != 3 {
		t.Fatalf("Expected 3 element []interface{}, got %#v", res)
	}
	if list[0] != 42.0 {
		t.Errorf("Expected 42, got %v", list[0])
	}
	if list[1] != "hello jihll" {
		t.Errorf("Expected hello jihll, got %v", list[1])
	}
	if list[2] != 10.0 {
		t.Errorf("Expected 10, got %v", list[2])
	}
}

func TestBindErrorsAndConversions(t *testing.T) {
	machine := jihll.New(jihll.WithOutput(&bytes.Buffer{}))

	machine.Bind("fails", func() error { return errors.New("boom") })
	machine.Bind("sum", func(xs ...float64) float64 {
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return total
	})
	machine.Bind("pair", func(a, b string) (string, string) { return b, a })
	machine.Bind("half", func(n int) int { return n / 2 })

	ctx := context.Background()
	if err := machine.Eval(ctx, "var s = sum(1, 2, 3); var p = pair(\"a\", \"b\");"); err != nil {
		t.Fatal(err)
	}
	if s, _ := machine.Get("s"); s != 6.0 {
		t.Errorf("s = %v", s)
	}
	if p, _ := machine.Get("p"); fmt.Sprint(p) != "[b a]" {
		t.Errorf("p = %v", p)
	}

	err := machine.Eval(ctx, "fails();")
	if !errors.Is(err, vm.ErrNative) || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected native error, got %v", err)
	}

	err = machine.Eval(ctx, "half(1.5);")
	if !errors.Is(err, vm.ErrTypeMismatch) {
		t.Errorf("expected type mismatch for a fractional int argument, got %v", err)
	}

	err = machine.Eval(ctx, "half(1, 2);")
	if !errors.Is(err, vm.ErrArityMismatch) {
		t.Errorf("expected arity mismatch, got %v", err)
	}
}

func TestCallScriptFunction(t *testing.T) {
	machine := jihll.New(jihll.WithOutput(&bytes.Buffer{}))
	ctx := context.Background()

	if err := machine.Eval(ctx, "fun add(a, b) { return a + b; } fun fact(n) { if (n < 2) return 1; return n * fact(n - 1); }"); err != nil {
		t.Fatal(err)
	}

	res, err := machine.Call(ctx, "add", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res != 5.0 {
		t.Errorf("add(2, 3) = %v", res)
	}

	res, err = machine.Call(ctx, "fact", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res != 3628800.0 {
		t.Errorf("fact(10) = %v", res)
	}

	if _, err := machine.Call(ctx, "missing"); !errors.Is(err, jihll.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := machine.Call(ctx, "add", 1); !errors.Is(err, vm.ErrArityMismatch) {
		t.Errorf("expected arity mismatch, got %v", err)
	}
}

func TestSpawnWithBoundNative(t *testing.T) {
	machine := jihll.New(jihll.WithOutput(&bytes.Buffer{}))

	var mu sync.Mutex
	seen := 0
	machine.Bind("hit", func() {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	code := `
fun work() { hit(); }
var i = 0;
while (i < 10) { spawn work(); i = i + 1; }
`
	if err := machine.Eval(context.Background(), code); err != nil {
		t.Fatal(err)
	}
	if err := machine.Wait(); err != nil {
		t.Fatal(err)
	}
	if seen != 10 {
		t.Errorf("seen = %d, want 10", seen)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.jihll")
	if err := os.WriteFile(path, []byte("var greeting = \"hi\" + \" there\";\n"), 0644); err != nil {
		t.Fatal(err)
	}

	machine := jihll.New()
	if err := machine.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	res, err := machine.Get("greeting")
	if err != nil {
		t.Fatal(err)
	}
	if res != "hi there" {
		t.Errorf("greeting = %v", res)
	}
}

func TestEvalReportsPosition(t *testing.T) {
	machine := jihll.New(jihll.WithOutput(&bytes.Buffer{}))
	err := machine.Eval(context.Background(), "var a = 1;\nprint missing;")
	if !errors.Is(err, vm.ErrUndefinedGlobal) {
		t.Fatalf("expected undefined global, got %v", err)
	}
	if !strings.Contains(err.Error(), "<eval>:2") {
		t.Errorf("error lacks position: %v", err)
	}

	err = machine.Eval(context.Background(), "var = ;")
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestWithoutBuiltins(t *testing.T) {
	machine := jihll.New(jihll.WithOutput(&bytes.Buffer{}), jihll.WithoutBuiltins())
	err := machine.Eval(context.Background(), "clock();")
	if !errors.Is(err, vm.ErrUndefinedGlobal) {
		t.Errorf("expected undefined global, got %v", err)
	}
}

func TestBindRejectsKeywords(t *testing.T) {
	machine := jihll.New(jihll.WithOutput(&bytes.Buffer{}))

	for _, name := range []string{"double", "print", "spawn", "nil", ""} {
		if err := machine.Bind(name, func() {}); !errors.Is(err, jihll.ErrInvalidName) {
			t.Errorf("Bind(%q) = %v, want ErrInvalidName", name, err)
		}
		if err := machine.Set(name, 1); !errors.Is(err, jihll.ErrInvalidName) {
			t.Errorf("Set(%q) = %v, want ErrInvalidName", name, err)
		}
	}

	if err := machine.Bind("doubleIt", func(x int) int { return x * 2 }); err != nil {
		t.Fatalf("keyword prefix should be allowed: %v", err)
	}
	if _, err := machine.Get("print"); !errors.Is(err, jihll.ErrNotFound) {
		t.Errorf("rejected name was bound: %v", err)
	}
}
