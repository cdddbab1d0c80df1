package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Veritas/internal/domain"
	"Veritas/internal/infrastructure/llm"
	"Veritas/internal/logging"
	"Veritas/internal/ports"
	"Veritas/internal/prompt"
)

// ErrEmptyInput is the only error Analyze returns. It is raised before any
// network activity.
var ErrEmptyInput = errors.New("input is required")

const (
	summaryNotConfigured = "Model provider API key is not configured on the server."
	reasonNotConfigured  = "Set OPENROUTER_API_KEY (or provider.apiKey in the config file) and restart the service."
	summaryUnreachable   = "Unable to reach the verification engine."
	summaryTimedOut      = "Verification engine timed out."
	summaryCanceled      = "Analysis was canceled."
	reasonNoErrorBody    = "No error body returned."
)

// AnalyzerDeps wires the driven adapters into the analysis workflow.
type AnalyzerDeps struct {
	Resolver    ports.ContentResolver
	Client      ports.ModelClient
	Interpreter ports.Interpreter
	Logger      *slog.Logger
}

// Analyzer implements ports.Analyzer.
type Analyzer struct {
	resolver    ports.ContentResolver
	client      ports.ModelClient
	interpreter ports.Interpreter
	logger      *slog.Logger
}

var _ ports.Analyzer = (*Analyzer)(nil)

// NewAnalyzer constructs the orchestration component.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		resolver:    deps.Resolver,
		client:      deps.Client,
		interpreter: deps.Interpreter,
		logger:      logger.With(logging.FieldComponent, "analyzer"),
	}
}

// Analyze resolves the input, asks the model and normalizes its answer.
// Downstream failures come back as UNCERTAIN results, never as errors.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return domain.AnalysisResult{}, ErrEmptyInput
	}

	start := time.Now()
	log := logging.WithContext(ctx, a.logger)
	mode := domain.ParseMode(req.Mode)

	// Without a credential nothing leaves the process, not even the page fetch.
	if a.client == nil || !a.client.Configured() {
		log.Warn("analysis skipped", "mode", mode, "reason", "provider not configured")
		return degradeSendError(llm.ErrNotConfigured), nil
	}

	content := domain.ResolvedContent{Text: input, Mode: domain.ModeText}
	if a.resolver != nil {
		content = a.resolver.Resolve(ctx, mode, input)
	}

	result := a.classify(ctx, content)

	log.Info("analysis complete",
		"mode", content.Mode,
		"fetched", content.Fetched,
		"verdict", result.Verdict,
		"confidence", result.Confidence,
		"duration", time.Since(start),
	)
	return result, nil
}

func (a *Analyzer) classify(ctx context.Context, content domain.ResolvedContent) domain.AnalysisResult {
	envelope, err := a.client.Send(ctx, prompt.Build(content.Text))
	if err != nil {
		logging.WithContext(ctx, a.logger).Warn("model request failed", "error", err)
		return degradeSendError(err)
	}

	if a.interpreter == nil {
		return domain.Degraded(summaryUnreachable, string(envelope), "no response interpreter configured")
	}
	return a.interpreter.Interpret(envelope)
}

func degradeSendError(err error) domain.AnalysisResult {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return domain.Degraded(summaryNotConfigured, "", reasonNotConfigured)
	case errors.As(err, &statusErr):
		body := strings.TrimSpace(statusErr.Body)
		reason := body
		if reason == "" {
			reason = reasonNoErrorBody
		}
		return domain.Degraded(summaryUnreachable, body,
			fmt.Sprintf("HTTP %d from model provider.", statusErr.StatusCode),
			reason,
		)
	case llm.IsTimeout(err):
		return domain.Degraded(summaryTimedOut, "", err.Error())
	case errors.Is(err, context.Canceled):
		return domain.Degraded(summaryCanceled, "", err.Error())
	default:
		return domain.Degraded(summaryUnreachable, "", err.Error())
	}
}
