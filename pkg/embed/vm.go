// Package jihll embeds the jihll virtual machine in Go programs: run
// scripts, bind Go functions as natives and read back globals.
package jihll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/funvibe/jihll/internal/backend"
	"github.com/funvibe/jihll/internal/pipeline"
	"github.com/funvibe/jihll/internal/token"
	"github.com/funvibe/jihll/internal/vm"
)

// VM wraps the underlying VM and provides a high-level embedding API.
type VM struct {
	machine    *vm.VM
	backend    *backend.VMBackend
	marshaller *Marshaller
}

type options struct {
	output   io.Writer
	logger   *slog.Logger
	limits   vm.Limits
	builtins bool
}

// Option configures a VM created by New.
type Option func(*options)

// WithOutput sends print output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLogger reports task lifecycle and faults to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLimits bounds the operand and frame stacks of every task.
func WithLimits(maxStack, maxFrames int) Option {
	return func(o *options) { o.limits = vm.Limits{MaxStack: maxStack, MaxFrames: maxFrames} }
}

// WithoutBuiltins leaves the global table empty.
func WithoutBuiltins() Option {
	return func(o *options) { o.builtins = false }
}

// New creates a new VM instance.
func New(opts ...Option) *VM {
	o := options{output: os.Stdout, limits: vm.DefaultLimits(), builtins: true}
	for _, opt := range opts {
		opt(&o)
	}

	machine := vm.New()
	machine.SetOutput(o.output)
	machine.SetLogger(o.logger)
	machine.SetLimits(o.limits)
	if o.builtins {
		machine.RegisterBuiltins()
	}

	return &VM{
		machine:    machine,
		backend:    backend.NewVM(machine),
		marshaller: NewMarshaller(),
	}
}

// Bind registers a Go function or value with the VM under name.
func (v *VM) Bind(name string, val interface{}) error {
	if err := checkName(name); err != nil {
		return err
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Func {
		native, err := v.marshaller.funcToNative(name, rv)
		if err != nil {
			return err
		}
		v.machine.SetGlobal(name, native)
		return nil
	}
	return v.Set(name, val)
}

// Set sets a global variable in the VM.
func (v *VM) Set(name string, val interface{}) error {
	if err := checkName(name); err != nil {
		return err
	}
	obj, err := v.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	v.machine.SetGlobal(name, obj)
	return nil
}

// checkName rejects names a script could never refer to, such as keywords.
func checkName(name string) error {
	if name == "" || token.LookupIdent(name) != token.IDENT {
		return fmt.Errorf("bind %q: %w", name, ErrInvalidName)
	}
	return nil
}

// Get retrieves a global variable from the VM.
func (v *VM) Get(name string) (interface{}, error) {
	obj, ok := v.machine.GetGlobal(name)
	if !ok {
		return nil, fmt.Errorf("variable %q: %w", name, ErrNotFound)
	}
	return v.marshaller.FromValue(obj, nil)
}

// Call calls a function defined in a script (or bound from Go) by name.
func (v *VM) Call(ctx context.Context, funcName string, args ...interface{}) (interface{}, error) {
	fnObj, ok := v.machine.GetGlobal(funcName)
	if !ok {
		return nil, fmt.Errorf("function %q: %w", funcName, ErrNotFound)
	}

	vals := make([]vm.Value, len(args))
	for i, arg := range args {
		obj, err := v.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = obj
	}

	result, err := v.machine.Call(ctx, fnObj, vals...)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// Eval compiles and runs code as the main task. Tasks it spawns keep
// running; use Wait to collect them.
func (v *VM) Eval(ctx context.Context, code string) error {
	return v.run(ctx, "<eval>", code)
}

// LoadFile reads, compiles and executes a script file.
func (v *VM) LoadFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return v.run(ctx, path, string(content))
}

// Wait blocks until every spawned task has finished and returns their
// faults.
func (v *VM) Wait() error {
	return v.machine.Wait()
}

// Machine exposes the underlying VM.
func (v *VM) Machine() *vm.VM {
	return v.machine
}

func (v *VM) run(ctx context.Context, path, code string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	v.backend.SetContext(ctx)

	pctx := pipeline.NewPipelineContext(code)
	pctx.FilePath = path
	pctx = backend.NewPipeline(v.backend).Run(pctx)

	if !pctx.Failed() {
		return nil
	}
	errs := make([]error, len(pctx.Errors))
	for i, e := range pctx.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
