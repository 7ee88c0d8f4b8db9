package lexer

import (
	"fmt"

	"github.com/funvibe/jihll/internal/diagnostics"
	"github.com/funvibe/jihll/internal/pipeline"
	"github.com/funvibe/jihll/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	tokens := New(ctx.SourceCode).Tokens()
	for _, tok := range tokens {
		if tok.Type == token.ILLEGAL {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrL001, tok, fmt.Sprintf("illegal token %q", tok.Lexeme)))
		}
	}
	ctx.TokenStream = tokens
	return ctx
}
