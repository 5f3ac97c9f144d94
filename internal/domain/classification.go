package domain

import "strings"

// Intent is a coarse category label for a ticket. The set is open ended:
// model output outside the known constants is preserved as-is.
type Intent string

const (
	IntentCourseInquiry Intent = "COURSE_INQUIRY"
	IntentBilling       Intent = "BILLING"
	IntentPayment       Intent = "PAYMENT"
	IntentRefund        Intent = "REFUND"
	IntentGeneral       Intent = "GENERAL"
	IntentUnknown       Intent = "UNKNOWN"
)

// NormalizeIntent upper-cases and trims a raw intent label. Empty input maps
// to IntentUnknown.
func NormalizeIntent(raw string) Intent {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	if cleaned == "" {
		return IntentUnknown
	}
	return Intent(strings.ReplaceAll(cleaned, " ", "_"))
}

// Sentiment describes the requester's tone.
type Sentiment string

const (
	SentimentAngry    Sentiment = "ANGRY"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentPositive Sentiment = "POSITIVE"
	SentimentUnknown  Sentiment = "UNKNOWN"
)

// NormalizeSentiment maps a raw sentiment label onto the closed sentiment
// enum; anything unrecognized becomes SentimentUnknown.
func NormalizeSentiment(raw string) Sentiment {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ANGRY":
		return SentimentAngry
	case "NEUTRAL":
		return SentimentNeutral
	case "POSITIVE":
		return SentimentPositive
	default:
		return SentimentUnknown
	}
}

// ClassificationResult is the structured outcome of one classifier invocation.
// Produced fresh per event, never persisted.
type ClassificationResult struct {
	Intent        Intent    `json:"intent"`
	Confidence    float64   `json:"confidence"`
	Summary       string    `json:"summary"`
	Sentiment     Sentiment `json:"sentiment"`
	ReplyDraft    string    `json:"reply_draft"`
	KBSuggestions []string  `json:"kb_suggestions"`
	// Fallback marks a deterministic result produced because the model call
	// failed or returned an unparseable payload.
	Fallback bool `json:"fallback,omitempty"`
}
