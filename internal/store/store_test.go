package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/funvibe/jihll/internal/vm"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCodecPreservesData(t *testing.T) {
	values := []vm.Value{
		vm.NilVal(),
		vm.BoolVal(true),
		vm.NumberVal(42),
		vm.NumberVal(-2.5),
		vm.NumberVal(math.Inf(1)),
		vm.StringVal("true"),
		vm.StringVal("multi\nline"),
		vm.ListVal(vm.NewList([]vm.Value{
			vm.NumberVal(1),
			vm.StringVal("two"),
			vm.ListVal(vm.NewList([]vm.Value{vm.NilVal()})),
		})),
	}

	for _, v := range values {
		text, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode(%s): %s", v, err)
		}
		got, err := Decode(text)
		if err != nil {
			t.Fatalf("Decode(%q): %s", text, err)
		}
		if !got.Equals(v) {
			t.Errorf("%s came back as %s (%s)", v, got, got.Type)
		}
	}
}

func TestCodecNaN(t *testing.T) {
	text, err := Encode(vm.NumberVal(math.NaN()))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(text)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsNumber() || !math.IsNaN(got.AsNumber()) {
		t.Errorf("NaN came back as %s", got)
	}
}

func TestCodecRejectsFunctions(t *testing.T) {
	fn := vm.FunctionVal(&vm.ScriptFunction{Name: "f"})
	if _, err := Encode(fn); !errors.Is(err, ErrNotData) {
		t.Errorf("function: %v", err)
	}
	list := vm.ListVal(vm.NewList([]vm.Value{vm.NumberVal(1), fn}))
	if _, err := Encode(list); !errors.Is(err, ErrNotData) {
		t.Errorf("list with function: %v", err)
	}

	cyclic := vm.NewList(nil)
	cyclic.Append(vm.ListVal(cyclic))
	if _, err := Encode(vm.ListVal(cyclic)); !errors.Is(err, ErrNotData) {
		t.Errorf("cyclic list: %v", err)
	}
}

func TestSaveAndRestore(t *testing.T) {
	s := openTemp(t)

	machine := vm.New()
	machine.RegisterBuiltins()
	g := machine.Globals()
	g.Define("count", vm.NumberVal(3))
	g.Define("name", vm.StringVal("jihll"))
	g.Define("items", vm.ListVal(vm.NewList([]vm.Value{vm.NumberVal(1), vm.BoolVal(false)})))
	g.Define("f", vm.FunctionVal(&vm.ScriptFunction{Name: "f"}))

	saved, skipped, err := s.Save(g)
	if err != nil {
		t.Fatalf("Save: %s", err)
	}
	if saved != 3 {
		t.Errorf("saved = %d, want 3", saved)
	}
	// Every builtin plus f is skipped
	if len(skipped) != len(vm.BuiltinNames())+1 {
		t.Errorf("skipped = %v", skipped)
	}

	fresh := vm.NewGlobals()
	n, err := s.Restore(fresh)
	if err != nil {
		t.Fatalf("Restore: %s", err)
	}
	if n != 3 {
		t.Errorf("restored %d, want 3", n)
	}
	for _, name := range []string{"count", "name", "items"} {
		want, _ := g.Get(name)
		got, ok := fresh.Get(name)
		if !ok || !got.Equals(want) {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s := openTemp(t)

	g := vm.NewGlobals()
	g.Define("old", vm.NumberVal(1))
	if _, _, err := s.Save(g); err != nil {
		t.Fatal(err)
	}

	g2 := vm.NewGlobals()
	g2.Define("new", vm.NumberVal(2))
	if _, _, err := s.Save(g2); err != nil {
		t.Fatal(err)
	}

	vars, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := vars["old"]; ok || len(vars) != 1 {
		t.Errorf("snapshot = %v", vars)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	g := vm.NewGlobals()
	g.Define("x", vm.NumberVal(7))
	if _, _, err := s.Save(g); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	vars, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if v := vars["x"]; !v.IsNumber() || v.AsNumber() != 7 {
		t.Errorf("x = %s", v)
	}
}
