// Package codegen asks a provider for a solve function and pulls the code
// out of the reply.
package codegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/funcspec"
	"github.com/forge-ai/funcforge/internal/prompt"
	"github.com/forge-ai/funcforge/internal/provider"
	"github.com/forge-ai/funcforge/internal/tags"
)

// Result is one generation: the model's reasoning and the unescaped code.
type Result struct {
	Thinking string `json:"thinking"`
	Code     string `json:"code"`
}

type Generator struct {
	provider provider.Provider
}

func New(p provider.Provider) *Generator {
	return &Generator{provider: p}
}

// Generate makes exactly one provider call. A reply without a <code> tag is
// an error; a reply without a <thinking> tag is not.
func (g *Generator) Generate(ctx context.Context, spec funcspec.FuncSpec) (*Result, error) {
	text, err := prompt.Build(spec)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("prompt_bytes", len(text)).Int("examples", len(spec.Examples)).Msg("requesting code")

	reply, err := g.provider.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	code, err := tags.Extract(reply, "code")
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	thinking, err := tags.Extract(reply, "thinking")
	switch {
	case errors.Is(err, tags.ErrNotFound):
		log.Warn().Msg("response has no <thinking> tag")
	case err != nil:
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &Result{Thinking: thinking, Code: tags.Unescape(code)}, nil
}
