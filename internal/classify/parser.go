package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// resultWire is the JSON schema the model is instructed to emit.
type resultWire struct {
	Intent        string   `json:"intent"`
	Confidence    float64  `json:"confidence"`
	Summary       string   `json:"summary"`
	Sentiment     string   `json:"sentiment"`
	ReplyDraft    string   `json:"reply_draft"`
	KBSuggestions []string `json:"kb_suggestions"`
}

// parseResult parses raw model output strictly; when the strict parse fails
// it attempts a JSON repair pass before giving up. Markdown code fences
// around the payload are tolerated.
func parseResult(raw string) (*domain.ClassificationResult, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model output")
	}

	var wire resultWire
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return nil, fmt.Errorf("parse model output: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return nil, fmt.Errorf("parse repaired model output: %w", err)
		}
	}
	if strings.TrimSpace(wire.Intent) == "" {
		return nil, fmt.Errorf("model output missing intent")
	}

	confidence := wire.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &domain.ClassificationResult{
		Intent:        domain.NormalizeIntent(wire.Intent),
		Confidence:    confidence,
		Summary:       strings.TrimSpace(wire.Summary),
		Sentiment:     domain.NormalizeSentiment(wire.Sentiment),
		ReplyDraft:    strings.TrimSpace(wire.ReplyDraft),
		KBSuggestions: wire.KBSuggestions,
	}, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims to the outermost JSON object when the model wraps
// it in prose.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
