// Package resolver decides how caller input becomes model content and
// dispatches to the strategy registered for the effective mode.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"Veritas/internal/domain"
	"Veritas/internal/logging"
	"Veritas/internal/ports"
)

// NoContent is sent to the model when the caller supplied nothing.
const NoContent = "No content provided."

// Strategy resolves input for a single mode (text, link).
type Strategy interface {
	Mode() domain.Mode
	Resolve(ctx context.Context, input string) (domain.ResolvedContent, error)
}

// Registry keeps a mapping from modes to their strategies.
type Registry struct {
	strategies map[domain.Mode]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[domain.Mode]Strategy{}}
}

// Register adds or replaces a strategy.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[domain.Mode]Strategy{}
	}
	r.strategies[strategy.Mode()] = strategy
}

// Lookup returns the strategy for mode or an error if it is absent.
func (r *Registry) Lookup(mode domain.Mode) (Strategy, error) {
	if strategy, ok := r.strategies[mode]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("no strategy registered for mode %q", mode)
}

// Resolver implements ports.ContentResolver on top of a Registry.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

var _ ports.ContentResolver = (*Resolver)(nil)

// New wires a registry. A text strategy is always available as the fallback.
func New(reg *Registry, logger *slog.Logger) *Resolver {
	if reg == nil {
		reg = NewRegistry()
	}
	if _, err := reg.Lookup(domain.ModeText); err != nil {
		reg.Register(TextStrategy{})
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{registry: reg, logger: logger}
}

// Resolve never fails: link fetch errors collapse to a URL-only content string.
func (r *Resolver) Resolve(ctx context.Context, mode domain.Mode, input string) domain.ResolvedContent {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.ResolvedContent{Text: NoContent, Mode: domain.ModeText}
	}

	effective := EffectiveMode(mode, input)
	log := logging.WithContext(ctx, r.logger)

	strategy, err := r.registry.Lookup(effective)
	if err != nil {
		log.Warn("content strategy missing, using text", "mode", effective, "error", err)
		effective = domain.ModeText
		strategy = TextStrategy{}
	}

	content, err := strategy.Resolve(ctx, input)
	if err != nil {
		log.Warn("content resolution failed", "mode", effective, "error", err)
		if effective == domain.ModeLink {
			return FailedFetch(input)
		}
		return domain.ResolvedContent{Text: input, Mode: domain.ModeText}
	}

	log.Debug("content resolved", "mode", content.Mode, "fetched", content.Fetched, "chars", len(content.Text))
	return content
}

// EffectiveMode turns auto (or empty) into link or text by URL shape.
func EffectiveMode(mode domain.Mode, input string) domain.Mode {
	switch mode {
	case domain.ModeLink, domain.ModeText:
		return mode
	case domain.ModeAuto, "":
		if LooksLikeURL(input) {
			return domain.ModeLink
		}
		return domain.ModeText
	default:
		return domain.ModeText
	}
}

// LooksLikeURL reports whether value is an absolute http(s) URL.
func LooksLikeURL(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// FailedFetch is the content used when a link could not be turned into page text.
func FailedFetch(rawURL string) domain.ResolvedContent {
	return domain.ResolvedContent{
		Text:      fmt.Sprintf("Source URL (failed to fetch): %s", rawURL),
		SourceURL: rawURL,
		Mode:      domain.ModeLink,
	}
}

// TextStrategy passes trimmed input through unchanged.
type TextStrategy struct{}

// Mode identifies the strategy inside the registry.
func (TextStrategy) Mode() domain.Mode { return domain.ModeText }

// Resolve returns the trimmed input.
func (TextStrategy) Resolve(_ context.Context, input string) (domain.ResolvedContent, error) {
	return domain.ResolvedContent{Text: strings.TrimSpace(input), Mode: domain.ModeText}, nil
}
