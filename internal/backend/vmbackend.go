package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/funvibe/jihll/internal/pipeline"
	"github.com/funvibe/jihll/internal/vm"
)

// VMBackend compiles programs to bytecode and runs them on one VM. The VM is
// kept between runs so globals persist, which is what the REPL relies on.
type VMBackend struct {
	machine *vm.VM
	ctx     context.Context

	// disasm receives a disassembly of every chunk before it runs (nil = off)
	disasm io.Writer
}

// NewVM creates a new VM backend around machine
func NewVM(machine *vm.VM) *VMBackend {
	return &VMBackend{machine: machine, ctx: context.Background()}
}

// SetContext sets the context passed to every run
func (b *VMBackend) SetContext(ctx context.Context) {
	b.ctx = ctx
}

// SetDisassembly enables (w != nil) or disables disassembly output
func (b *VMBackend) SetDisassembly(w io.Writer) {
	b.disasm = w
}

// Run compiles and executes the program using the VM
func (b *VMBackend) Run(ctx *pipeline.PipelineContext) error {
	chunk, err := b.Compile(ctx)
	if err != nil {
		return err
	}

	if b.disasm != nil {
		name := ctx.FilePath
		if name == "" {
			name = "main"
		}
		if _, err := io.WriteString(b.disasm, vm.Disassemble(chunk, name)); err != nil {
			return fmt.Errorf("writing disassembly: %w", err)
		}
	}

	return b.machine.InterpretContext(b.ctx, chunk)
}

// Compile translates ctx.AstRoot and stores the chunk in ctx.Compiled
func (b *VMBackend) Compile(ctx *pipeline.PipelineContext) (*vm.Chunk, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no AST to compile")
	}

	chunk, err := vm.NewCompiler().Compile(ctx.AstRoot)
	if err != nil {
		return nil, err
	}

	// Set file path in chunk for debugging
	if ctx.FilePath != "" {
		chunk.File = ctx.FilePath
	}
	ctx.Compiled = chunk
	return chunk, nil
}

// Name returns the backend name
func (b *VMBackend) Name() string {
	return "vm"
}
