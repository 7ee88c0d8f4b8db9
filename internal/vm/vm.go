package vm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Default resource limits
const (
	DefaultMaxStack  = 65536
	DefaultMaxFrames = 4096
)

// Limits bounds the per-task operand and frame stacks.
type Limits struct {
	MaxStack  int
	MaxFrames int
}

// DefaultLimits returns the limits a new VM starts with
func DefaultLimits() Limits {
	return Limits{MaxStack: DefaultMaxStack, MaxFrames: DefaultMaxFrames}
}

// VM holds the state shared by every task: globals, output, natives and the
// group of spawned tasks. Per-task state (ip, operand stack, frames) lives in
// task, so a VM can run many tasks at once.
type VM struct {
	globals *Globals

	// Output writer (defaults to os.Stdout), serialized across tasks
	out *lockedWriter

	logger *slog.Logger
	limits Limits

	// Context for cancellation of tasks started without an explicit one
	ctx context.Context

	// Spawned tasks. Their goroutines always return nil; faults go to faults.
	tasks errgroup.Group

	mu       sync.Mutex
	faults   []error
	reported int
}

// New creates a new VM with an empty global table
func New() *VM {
	return &VM{
		globals: NewGlobals(),
		out:     &lockedWriter{w: os.Stdout},
		logger:  slog.New(slog.DiscardHandler),
		limits:  DefaultLimits(),
		ctx:     context.Background(),
	}
}

// SetOutput sets the output writer used by print
func (vm *VM) SetOutput(w io.Writer) {
	vm.out.mu.Lock()
	vm.out.w = w
	vm.out.mu.Unlock()
}

// SetLogger sets the logger for task lifecycle and fault reports
func (vm *VM) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	vm.logger = logger
}

// SetLimits replaces the stack limits. Non-positive fields keep their defaults.
func (vm *VM) SetLimits(l Limits) {
	if l.MaxStack <= 0 {
		l.MaxStack = DefaultMaxStack
	}
	if l.MaxFrames <= 0 {
		l.MaxFrames = DefaultMaxFrames
	}
	vm.limits = l
}

// SetContext sets the context for cancellation
func (vm *VM) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ctx = ctx
}

// Interpret runs chunk as the main task until it halts or faults.
func (vm *VM) Interpret(chunk *Chunk) error {
	return vm.InterpretContext(vm.ctx, chunk)
}

// InterpretContext is Interpret with a cancellation context. Tasks spawned by
// this run inherit ctx.
func (vm *VM) InterpretContext(ctx context.Context, chunk *Chunk) error {
	if err := Verify(chunk); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := vm.newTask(ctx, chunk)
	t.frames = append(t.frames, CallFrame{returnAddress: len(chunk.Code), base: 0})
	return t.run()
}

// Wait blocks until every spawned task has finished and returns the faults
// recorded since the previous call to Wait, joined.
func (vm *VM) Wait() error {
	_ = vm.tasks.Wait()

	vm.mu.Lock()
	defer vm.mu.Unlock()
	pending := vm.faults[vm.reported:]
	vm.reported = len(vm.faults)
	return errors.Join(pending...)
}

// Faults returns every fault raised by a spawned task so far
func (vm *VM) Faults() []error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]error, len(vm.faults))
	copy(out, vm.faults)
	return out
}

func (vm *VM) recordFault(taskID string, err error) {
	kind := "unknown"
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		kind = rerr.Kind.Error()
	}
	// Wait hands faults to the host, which decides how to report them
	vm.logger.Debug("task failed", "task", taskID, "kind", kind, "error", err)

	vm.mu.Lock()
	vm.faults = append(vm.faults, err)
	vm.mu.Unlock()
}

// print writes one line atomically
func (vm *VM) print(s string) error {
	_, err := vm.out.Write([]byte(s + "\n"))
	return err
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
