// Package prompt builds the fixed classification exchange sent to the model.
package prompt

import "fmt"

// SystemInstruction is the classification contract given to the model.
// Keep it in sync with the payload shape the interpreter accepts.
const SystemInstruction = `You are Veritas, an AI misinformation detector.

Classify the following news content as one of:
- GOOD      : factually accurate / trustworthy
- BAD       : misinformation, disinformation, or clearly misleading
- UNCERTAIN : unclear or mixed; not enough reliable evidence either way

Requirements:
- Think step by step but ONLY return JSON in the following shape:
  {
    "verdict": "GOOD" | "BAD" | "UNCERTAIN",
    "confidence": number between 0 and 1,
    "summary": "short 1-2 sentence summary of what this news claims",
    "reasons": [
      "reason 1",
      "reason 2"
    ],
    "sources": [
      {
        "name": "FactCheck.org",
        "url": "https://www.factcheck.org/..."
      }
    ]
  }
- "sources" must list specific, reputable sites you relied on
  (fact-checkers, major news orgs, scientific bodies). Include
  direct URLs whenever possible.
- Do not add any extra keys.
- Do not include any explanation outside the JSON.`

const (
	// RoleSystem and RoleUser follow the chat completion message roles.
	RoleSystem = "system"
	RoleUser   = "user"

	// ResponseFormatJSON asks the provider for a JSON object; providers may ignore it.
	ResponseFormatJSON = "json_object"

	userPrefix = "CONTENT TO ANALYZE:\n"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the complete exchange plus sampling parameters.
type Prompt struct {
	Messages       []Message
	Temperature    float64
	TopP           float64
	ResponseFormat string
}

// Build wraps content in the classification instruction.
func Build(content string) Prompt {
	return Prompt{
		Messages: []Message{
			{Role: RoleSystem, Content: SystemInstruction},
			{Role: RoleUser, Content: fmt.Sprintf("%s%s", userPrefix, content)},
		},
		Temperature:    0,
		TopP:           0.1,
		ResponseFormat: ResponseFormatJSON,
	}
}
