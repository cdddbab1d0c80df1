package ports

import (
	"context"

	"Veritas/internal/domain"
	"Veritas/internal/prompt"
)

// ContentResolver turns caller input into the text sent to the model.
// Implementations never fail; fetch problems degrade to a URL-only string.
type ContentResolver interface {
	Resolve(ctx context.Context, mode domain.Mode, input string) domain.ResolvedContent
}

// ModelClient sends a prompt to the LLM provider and returns the raw envelope.
// Configured reports whether Send can reach the provider at all.
type ModelClient interface {
	Configured() bool
	Send(ctx context.Context, p prompt.Prompt) ([]byte, error)
}

// Interpreter converts a provider envelope into a normalized result.
type Interpreter interface {
	Interpret(envelope []byte) domain.AnalysisResult
}

// Analyzer is the single entry point consumed by the HTTP API and the CLI.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}
