package interpreter

import (
	"encoding/json"
	"strings"
	"testing"

	"Veritas/internal/domain"
)

func envelopeWith(t *testing.T, content string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id": "gen-1",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func assertRenderable(t *testing.T, res domain.AnalysisResult) {
	t.Helper()
	switch res.Verdict {
	case domain.VerdictGood, domain.VerdictBad, domain.VerdictUncertain:
	default:
		t.Fatalf("verdict outside closed set: %q", res.Verdict)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", res.Confidence)
	}
	if res.Reasons == nil || res.Sources == nil {
		t.Fatalf("reasons and sources must be non-nil: %+v", res)
	}
	for _, r := range res.Reasons {
		if strings.TrimSpace(r) == "" || r != strings.TrimSpace(r) {
			t.Fatalf("reason not normalized: %q", r)
		}
	}
	for _, s := range res.Sources {
		if s.Name == "" && s.URL == "" {
			t.Fatalf("blank source survived: %+v", s)
		}
	}
}

func TestInterpretMoonExample(t *testing.T) {
	t.Parallel()

	content := `{"verdict":"bad","confidence":1.4,"summary":"False claim.","reasons":["Moon is rock","NASA confirms"],"sources":[{"name":"NASA","url":"https://nasa.gov"}]}`
	res := New().Interpret(envelopeWith(t, content))
	assertRenderable(t, res)

	if res.Verdict != domain.VerdictBad {
		t.Fatalf("unexpected verdict: %s", res.Verdict)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("unexpected confidence: %v", res.Confidence)
	}
	if res.Summary != "False claim." {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
	if len(res.Reasons) != 2 || res.Reasons[0] != "Moon is rock" || res.Reasons[1] != "NASA confirms" {
		t.Fatalf("unexpected reasons: %#v", res.Reasons)
	}
	if len(res.Sources) != 1 || res.Sources[0] != (domain.Source{Name: "NASA", URL: "https://nasa.gov"}) {
		t.Fatalf("unexpected sources: %#v", res.Sources)
	}
	if res.Raw != content {
		t.Fatalf("raw must be verbatim, got %q", res.Raw)
	}
}

func TestInterpretConfidenceClamp(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		`{"verdict":"GOOD","confidence":-3}`:   0,
		`{"verdict":"GOOD","confidence":0.42}`: 0.42,
		`{"verdict":"GOOD","confidence":7e10}`: 1,
		`{"verdict":"GOOD"}`:                   0,
		`{"verdict":"GOOD","confidence":1}`:    1,
		`{"verdict":"GOOD","confidence":0}`:    0,
	}
	for content, want := range cases {
		res := InterpretPayload(content)
		assertRenderable(t, res)
		if res.Confidence != want {
			t.Fatalf("%s: confidence = %v, want %v", content, res.Confidence, want)
		}
	}
}

func TestInterpretVerdictCollapse(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.Verdict{
		`{"verdict":"GOOD"}`:         domain.VerdictGood,
		`{"verdict":"  good  "}`:     domain.VerdictGood,
		`{"verdict":"Bad"}`:          domain.VerdictBad,
		`{"verdict":"maybe"}`:        domain.VerdictUncertain,
		`{"verdict":""}`:             domain.VerdictUncertain,
		`{}`:                         domain.VerdictUncertain,
		`{"verdict":"NOT GOOD"}`:     domain.VerdictUncertain,
		`{"VERDICT":"good"}`:         domain.VerdictGood,
		`{"Verdict":"BAD","x":1}`:    domain.VerdictBad,
		`{"verdict":"UNCERTAIN"}`:    domain.VerdictUncertain,
		`{"verdict":"credible"}`:     domain.VerdictUncertain,
		`{"verdict":"misleading"}`:   domain.VerdictUncertain,
		`{"verdict":"inconclusive"}`: domain.VerdictUncertain,
	}
	for content, want := range cases {
		res := InterpretPayload(content)
		assertRenderable(t, res)
		if res.Verdict != want {
			t.Fatalf("%s: verdict = %s, want %s", content, res.Verdict, want)
		}
	}
}

func TestInterpretDropsBlankReasonsAndSources(t *testing.T) {
	t.Parallel()

	content := `{
		"verdict": "GOOD",
		"reasons": ["", "  ", " first ", "\t", "second"],
		"sources": [
			{"name": " ", "url": ""},
			{"name": " Reuters ", "url": ""},
			{},
			{"Name": "", "URL": " https://apnews.com "}
		]
	}`
	res := InterpretPayload(content)
	assertRenderable(t, res)

	if len(res.Reasons) != 2 || res.Reasons[0] != "first" || res.Reasons[1] != "second" {
		t.Fatalf("unexpected reasons: %#v", res.Reasons)
	}
	want := []domain.Source{{Name: "Reuters"}, {URL: "https://apnews.com"}}
	if len(res.Sources) != len(want) {
		t.Fatalf("unexpected sources: %#v", res.Sources)
	}
	for i := range want {
		if res.Sources[i] != want[i] {
			t.Fatalf("source %d = %+v, want %+v", i, res.Sources[i], want[i])
		}
	}
}

func TestInterpretMalformedPayloadKeepsRaw(t *testing.T) {
	t.Parallel()

	for _, content := range []string{
		"not json",
		`{"verdict": "GOOD",`,
		`{"verdict":"GOOD","confidence":"high"}`,
		`{"verdict":"GOOD","reasons":"one"}`,
		`["GOOD"]`,
		"null",
	} {
		res := New().Interpret(envelopeWith(t, content))
		assertRenderable(t, res)
		if res.Verdict != domain.VerdictUncertain {
			t.Fatalf("%q: expected UNCERTAIN, got %s", content, res.Verdict)
		}
		if res.Raw != content {
			t.Fatalf("%q: raw must equal the model text, got %q", content, res.Raw)
		}
		if len(res.Reasons) != 1 {
			t.Fatalf("%q: expected parse error as single reason, got %#v", content, res.Reasons)
		}
		if res.Confidence != 0 {
			t.Fatalf("%q: expected zero confidence, got %v", content, res.Confidence)
		}
	}
}

func TestInterpretCodeFencedPayload(t *testing.T) {
	t.Parallel()

	content := "```json\n{\"verdict\":\"GOOD\",\"confidence\":0.8,\"summary\":\"ok\"}\n```"
	res := New().Interpret(envelopeWith(t, content))
	assertRenderable(t, res)

	if res.Verdict != domain.VerdictGood || res.Confidence != 0.8 || res.Summary != "ok" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Raw != content {
		t.Fatalf("raw must keep the fence, got %q", res.Raw)
	}
}

func TestInterpretPayloadWithProse(t *testing.T) {
	t.Parallel()

	content := `Here is my answer: {"verdict":"BAD","confidence":0.7} Hope this helps.`
	res := InterpretPayload(content)
	if res.Verdict != domain.VerdictBad || res.Confidence != 0.7 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestInterpretPayloadWithTrailingProse(t *testing.T) {
	t.Parallel()

	for _, content := range []string{
		"{\"verdict\":\"BAD\",\"confidence\":0.7}\nHope this helps.",
		"```json\n{\"verdict\":\"BAD\",\"confidence\":0.7}\n```\nLet me know if you need more.",
	} {
		res := New().Interpret(envelopeWith(t, content))
		assertRenderable(t, res)
		if res.Verdict != domain.VerdictBad || res.Confidence != 0.7 {
			t.Fatalf("%q: unexpected result: %+v", content, res)
		}
		if res.Raw != content {
			t.Fatalf("%q: raw must stay verbatim, got %q", content, res.Raw)
		}
	}
}

func TestInterpretProviderError(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"error":{"message":"No endpoints found for demo-model.","code":404}}`)
	res := New().Interpret(raw)
	assertRenderable(t, res)

	if res.Verdict != domain.VerdictUncertain {
		t.Fatalf("unexpected verdict: %s", res.Verdict)
	}
	if res.Summary != "No endpoints found for demo-model." {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
	if res.Raw != string(raw) {
		t.Fatalf("raw envelope must be preserved, got %q", res.Raw)
	}
}

func TestInterpretProviderErrorWithoutMessage(t *testing.T) {
	t.Parallel()

	res := New().Interpret([]byte(`{"error":{"code":401}}`))
	if res.Summary != `{"code":401}` {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}

	res = New().Interpret([]byte(`{"error":"quota exceeded"}`))
	if res.Summary != "quota exceeded" {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
}

func TestInterpretMissingChoices(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{}`, `{"choices":[]}`, `{"choices":[],"error":null}`, `null`} {
		res := New().Interpret([]byte(raw))
		assertRenderable(t, res)
		if res.Summary != summaryUnexpectedFormat {
			t.Fatalf("%s: unexpected summary %q", raw, res.Summary)
		}
		if res.Raw != raw {
			t.Fatalf("%s: raw not preserved: %q", raw, res.Raw)
		}
	}
}

func TestInterpretInvalidEnvelope(t *testing.T) {
	t.Parallel()

	raw := "<html>Bad Gateway</html>"
	res := New().Interpret([]byte(raw))
	assertRenderable(t, res)

	if res.Summary != summaryInvalidEnvelope {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
	if res.Raw != raw || len(res.Reasons) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestInterpretDeltaAndTextFallback(t *testing.T) {
	t.Parallel()

	delta := []byte(`{"choices":[{"delta":{"content":"{\"verdict\":\"GOOD\"}"}}]}`)
	if res := New().Interpret(delta); res.Verdict != domain.VerdictGood {
		t.Fatalf("delta fallback failed: %+v", res)
	}

	legacy := []byte(`{"choices":[{"text":"{\"verdict\":\"BAD\"}"}]}`)
	if res := New().Interpret(legacy); res.Verdict != domain.VerdictBad {
		t.Fatalf("text fallback failed: %+v", res)
	}
}
