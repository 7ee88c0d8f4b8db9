// Package backend provides the execution stage of the pipeline.
package backend

import (
	"github.com/funvibe/jihll/internal/lexer"
	"github.com/funvibe/jihll/internal/parser"
	"github.com/funvibe/jihll/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the program from pipeline context
	Run(ctx *pipeline.PipelineContext) error

	// Name returns the backend name for display
	Name() string
}

// NewPipeline chains lexing, parsing and execution on b
func NewPipeline(b Backend) *pipeline.Pipeline {
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		NewExecutionProcessor(b),
	)
}
