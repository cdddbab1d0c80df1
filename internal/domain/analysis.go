package domain

import "strings"

// Mode selects how the analysis input is interpreted.
type Mode string

const (
	ModeText Mode = "text"
	ModeLink Mode = "link"
	ModeAuto Mode = "auto"
)

// ParseMode normalizes a caller-supplied mode. Empty means auto; anything
// unrecognized is analysed as plain text.
func ParseMode(value string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAuto:
		return ModeAuto
	case ModeLink:
		return ModeLink
	default:
		return ModeText
	}
}

// Verdict is the closed set of classifications returned to callers.
type Verdict string

const (
	VerdictGood      Verdict = "GOOD"
	VerdictBad       Verdict = "BAD"
	VerdictUncertain Verdict = "UNCERTAIN"
)

// ParseVerdict maps free-form model output onto a known verdict.
func ParseVerdict(value string) Verdict {
	switch v := Verdict(strings.ToUpper(strings.TrimSpace(value))); v {
	case VerdictGood, VerdictBad, VerdictUncertain:
		return v
	default:
		return VerdictUncertain
	}
}

// AnalysisRequest is a single caller request.
type AnalysisRequest struct {
	Mode  string `json:"mode"`
	Input string `json:"input"`
}

// ResolvedContent is the text handed to the model plus where it came from.
type ResolvedContent struct {
	Text      string
	SourceURL string
	Mode      Mode
	Fetched   bool
}

// Source is a reference the model cited.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AnalysisResult is the normalized verdict returned to callers.
type AnalysisResult struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Summary    string   `json:"summary"`
	Reasons    []string `json:"reasons"`
	Sources    []Source `json:"sources"`
	Raw        string   `json:"raw"`
}

// Degraded builds an UNCERTAIN result that is still safe to render.
func Degraded(summary, raw string, reasons ...string) AnalysisResult {
	kept := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			kept = append(kept, r)
		}
	}
	return AnalysisResult{
		Verdict: VerdictUncertain,
		Summary: strings.TrimSpace(summary),
		Reasons: kept,
		Sources: []Source{},
		Raw:     raw,
	}
}
