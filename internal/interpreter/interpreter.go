// Package interpreter turns an untrusted provider envelope into a
// well-typed AnalysisResult. It never fails outward: every anomaly is
// folded into an UNCERTAIN result with the offending text kept in Raw.
package interpreter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"Veritas/internal/domain"
	"Veritas/internal/ports"
)

const (
	summaryInvalidEnvelope  = "Verification engine returned an invalid response."
	summaryProviderError    = "Verification engine returned an error."
	summaryUnexpectedFormat = "Verification engine returned an unexpected response."
	summaryInvalidPayload   = "Verification engine returned an invalid classification."
)

var (
	errEmptyPayload = errors.New("empty payload")
	errNullPayload  = errors.New("payload is null")
)

// envelope is the subset of the chat completion response we rely on.
type envelope struct {
	Choices []struct {
		Message choiceMessage `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta choiceMessage `json:"delta"`
		Text  string        `json:"text"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

type choiceMessage struct {
	Content string `json:"content"`
}

type providerError struct {
	Message string `json:"message"`
}

// payload is the classification object the model is asked to emit.
// encoding/json matches keys case-insensitively and ignores extras.
type payload struct {
	Verdict    string          `json:"verdict"`
	Confidence float64         `json:"confidence"`
	Summary    string          `json:"summary"`
	Reasons    []string        `json:"reasons"`
	Sources    []payloadSource `json:"sources"`
}

type payloadSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Interpreter implements ports.Interpreter.
type Interpreter struct{}

var _ ports.Interpreter = Interpreter{}

// New returns a stateless interpreter.
func New() Interpreter {
	return Interpreter{}
}

// Interpret maps a raw provider envelope onto an AnalysisResult.
func (Interpreter) Interpret(raw []byte) domain.AnalysisResult {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.Degraded(summaryInvalidEnvelope, string(raw), err.Error())
	}

	if len(env.Choices) == 0 {
		if msg, ok := errorMessage(env.Error); ok {
			return domain.Degraded(msg, string(raw))
		}
		return domain.Degraded(summaryUnexpectedFormat, string(raw))
	}

	first := env.Choices[0]
	text := first.Message.Content
	if strings.TrimSpace(text) == "" {
		text = firstNonBlank(first.Delta.Content, first.Text)
	}

	return InterpretPayload(text)
}

// InterpretPayload parses the model's text body and normalizes every field.
func InterpretPayload(text string) domain.AnalysisResult {
	var p payload
	if err := decodeModelJSON(text, &p); err != nil {
		return domain.Degraded(summaryInvalidPayload, text, err.Error())
	}
	return normalize(p, text)
}

func normalize(p payload, raw string) domain.AnalysisResult {
	reasons := make([]string, 0, len(p.Reasons))
	for _, r := range p.Reasons {
		if r = strings.TrimSpace(r); r != "" {
			reasons = append(reasons, r)
		}
	}

	sources := make([]domain.Source, 0, len(p.Sources))
	for _, s := range p.Sources {
		name := strings.TrimSpace(s.Name)
		url := strings.TrimSpace(s.URL)
		if name == "" && url == "" {
			continue
		}
		sources = append(sources, domain.Source{Name: name, URL: url})
	}

	return domain.AnalysisResult{
		Verdict:    domain.ParseVerdict(p.Verdict),
		Confidence: clamp(p.Confidence),
		Summary:    strings.TrimSpace(p.Summary),
		Reasons:    reasons,
		Sources:    sources,
		Raw:        raw,
	}
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// errorMessage extracts a provider error message. A missing or null error
// object reports false; an object without a message falls back to its JSON.
func errorMessage(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}

	var pe providerError
	if err := json.Unmarshal(trimmed, &pe); err == nil {
		if msg := strings.TrimSpace(pe.Message); msg != "" {
			return msg, true
		}
	}

	var plain string
	if err := json.Unmarshal(trimmed, &plain); err == nil {
		if plain = strings.TrimSpace(plain); plain != "" {
			return plain, true
		}
	}

	if string(trimmed) == "{}" {
		return summaryProviderError, true
	}
	return string(trimmed), true
}

// decodeModelJSON decodes the classification body, tolerating markdown code
// fences and prose around a single JSON object.
func decodeModelJSON(content string, target *payload) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errEmptyPayload
	}

	directErr := decodeObject(trimmed, target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	*target = payload{}
	if err := decodeObject(sanitized, target); err != nil {
		return fmt.Errorf("%w (after stripping formatting)", err)
	}
	return nil
}

func decodeObject(content string, target *payload) error {
	if content == "null" {
		return errNullPayload
	}
	return json.Unmarshal([]byte(content), target)
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
