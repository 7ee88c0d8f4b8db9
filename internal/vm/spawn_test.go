package vm

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestSpawnDistinctKeys(t *testing.T) {
	const n = 50

	var src strings.Builder
	src.WriteString("fun put(name, value) { ")
	// Spawned tasks write globals through SET_GLOBAL on distinct keys
	for i := 0; i < n; i++ {
		fmt.Fprintf(&src, "if (name == %d) k%d = value; ", i, i)
	}
	src.WriteString("}\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&src, "spawn put(%d, %d);\n", i, i*10)
	}

	_, vm := runVM(t, src.String())

	for i := 0; i < n; i++ {
		testNumberValue(t, globalValue(t, vm, fmt.Sprintf("k%d", i)), float64(i*10))
	}
}

func TestSpawnSharedCounterWithNative(t *testing.T) {
	chunk := compile(t, `
fun work(id) {
    record(id);
}
var i = 0;
while (i < 20) {
    spawn work(i);
    i = i + 1;
}
`)

	var mu sync.Mutex
	seen := make(map[float64]bool)

	vm := New()
	vm.RegisterNative("record", 1, func(args []Value) (Value, error) {
		mu.Lock()
		seen[args[0].AsNumber()] = true
		mu.Unlock()
		return NilVal(), nil
	})

	if err := vm.Interpret(chunk); err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	if err := vm.Wait(); err != nil {
		t.Fatalf("spawned task error: %s", err)
	}
	if len(seen) != 20 {
		t.Errorf("recorded %d ids, want 20", len(seen))
	}
}

func TestSpawnFaultIsIsolated(t *testing.T) {
	chunk := compile(t, `
fun bad() { return missing; }
fun good() { ok = true; }
spawn bad();
spawn good();
var after = 1;
`)

	var logs bytes.Buffer
	vm := New()
	vm.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if err := vm.Interpret(chunk); err != nil {
		t.Fatalf("main task should not fail: %s", err)
	}

	err := vm.Wait()
	if !errors.Is(err, ErrUndefinedGlobal) {
		t.Fatalf("Wait should report the spawned fault, got %v", err)
	}
	if _, ok := vm.GetGlobal("ok"); !ok {
		t.Error("good task did not run")
	}
	if _, ok := vm.GetGlobal("after"); !ok {
		t.Error("main task did not finish")
	}
	if got := len(vm.Faults()); got != 1 {
		t.Errorf("faults = %d, want 1", got)
	}

	// A fault is reported by Wait once and kept in Faults
	if err := vm.Wait(); err != nil {
		t.Errorf("second Wait = %v, want nil", err)
	}
	if got := len(vm.Faults()); got != 1 {
		t.Errorf("faults after second Wait = %d, want 1", got)
	}

	out := logs.String()
	if !strings.Contains(out, "task failed") || !strings.Contains(out, "kind=\"undefined global\"") {
		t.Errorf("fault was not logged:\n%s", out)
	}
	if !strings.Contains(out, "task spawned") {
		t.Errorf("spawn was not logged:\n%s", out)
	}
}

func TestSpawnedTaskSeesLiveGlobals(t *testing.T) {
	// The spawned task reads the shared table, not a copy taken at spawn time
	chunk := compile(t, `
fun reader() { seen = value; }
var value = "before";
`)
	vm := New()
	if err := vm.Interpret(chunk); err != nil {
		t.Fatal(err)
	}

	vm.SetGlobal("value", StringVal("after"))
	if err := vm.Interpret(compile(t, "spawn reader();")); err != nil {
		t.Fatal(err)
	}
	if err := vm.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := globalValue(t, vm, "seen"); got.AsString() != "after" {
		t.Errorf("seen = %s, want after", got)
	}
}

func TestSpawnNative(t *testing.T) {
	chunk := compile(t, "spawn mark(7);")

	done := make(chan float64, 1)
	vm := New()
	vm.RegisterNative("mark", 1, func(args []Value) (Value, error) {
		done <- args[0].AsNumber()
		return NilVal(), nil
	})

	if err := vm.Interpret(chunk); err != nil {
		t.Fatal(err)
	}
	if err := vm.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := <-done; got != 7 {
		t.Errorf("native got %v, want 7", got)
	}
}

func TestSpawnedFaultInNativeKeepsTaskID(t *testing.T) {
	vm := New()
	vm.RegisterNative("fail", 0, func([]Value) (Value, error) {
		return NilVal(), errors.New("nope")
	})
	if err := vm.Interpret(compile(t, "spawn fail();")); err != nil {
		t.Fatal(err)
	}

	err := vm.Wait()
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %v", err)
	}
	if rerr.Task == "" || !errors.Is(err, ErrNative) {
		t.Errorf("unexpected fault %+v", rerr)
	}
}

func TestPrintLinesDoNotInterleave(t *testing.T) {
	var src strings.Builder
	src.WriteString(`fun say(s) { print s; }` + "\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&src, "spawn say(\"line-%d-abcdefghijklmnopqrstuvwxyz\");\n", i)
	}

	out, _ := runVM(t, src.String())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20:\n%s", len(lines), out)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "line-") || !strings.HasSuffix(line, "-abcdefghijklmnopqrstuvwxyz") {
			t.Errorf("mangled line %q", line)
		}
	}
}
