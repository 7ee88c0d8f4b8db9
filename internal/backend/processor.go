package backend

import (
	"errors"
	"fmt"

	"github.com/funvibe/jihll/internal/diagnostics"
	"github.com/funvibe/jihll/internal/pipeline"
	"github.com/funvibe/jihll/internal/token"
	"github.com/funvibe/jihll/internal/vm"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || ctx.Failed() {
		return ctx
	}

	if err := p.Backend.Run(ctx); err != nil {
		ctx.AddError(toDiagnostic(err))
	}
	return ctx
}

// toDiagnostic positions a backend error. The original error stays reachable
// through Unwrap so callers can match kinds with errors.Is.
func toDiagnostic(err error) *diagnostics.DiagnosticError {
	var (
		terr *vm.TranslationError
		rerr *vm.RuntimeError
		diag *diagnostics.DiagnosticError
	)

	switch {
	case errors.As(err, &terr):
		d := diagnostics.NewError(diagnostics.ErrC001, token.Token{Line: terr.Line}, terr.Message)
		d.Err = err
		return d
	case errors.As(err, &rerr):
		d := diagnostics.NewError(diagnostics.ErrR001, token.Token{Line: rerr.Line},
			fmt.Sprintf("%s: %s", rerr.Kind, rerr.Message))
		d.Err = err
		return d
	case errors.As(err, &diag):
		return diag
	default:
		d := diagnostics.NewError(diagnostics.ErrR001, token.Token{}, err.Error())
		d.Err = err
		return d
	}
}
