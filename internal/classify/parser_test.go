package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

func TestParseResultStrict(t *testing.T) {
	raw := `{"intent":"course_inquiry","confidence":0.82,"summary":"asks about syllabus","sentiment":"neutral","reply_draft":"Here you go","kb_suggestions":["Syllabus"]}`

	result, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentCourseInquiry, result.Intent)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment)
	assert.Equal(t, []string{"Syllabus"}, result.KBSuggestions)
}

func TestParseResultStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"intent\":\"GENERAL\",\"confidence\":0.7,\"summary\":\"s\",\"sentiment\":\"Positive\",\"reply_draft\":\"r\"}\n```"

	result, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentGeneral, result.Intent)
}

func TestParseResultExtractsObjectFromProse(t *testing.T) {
	raw := `Sure! Here is the JSON you asked for: {"intent":"GENERAL","confidence":0.6,"summary":"s","sentiment":"Neutral","reply_draft":"r"} Hope that helps.`

	result, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentGeneral, result.Intent)
}

func TestParseResultRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and single quotes, the classic model mistakes.
	raw := `{'intent': 'BILLING', 'confidence': 0.9, 'summary': 's', 'sentiment': 'Angry', 'reply_draft': 'r',}`

	result, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentBilling, result.Intent)
}

func TestParseResultClampsConfidence(t *testing.T) {
	result, err := parseResult(`{"intent":"GENERAL","confidence":1.7,"summary":"s","sentiment":"Neutral","reply_draft":"r"}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)

	result, err = parseResult(`{"intent":"GENERAL","confidence":-3,"summary":"s","sentiment":"Neutral","reply_draft":"r"}`)
	require.NoError(t, err)
	assert.Zero(t, result.Confidence)
}

func TestParseResultRejectsMissingIntent(t *testing.T) {
	_, err := parseResult(`{"confidence":0.9,"summary":"s"}`)
	assert.Error(t, err)
}

func TestParseResultPreservesUnknownIntentLabels(t *testing.T) {
	result, err := parseResult(`{"intent":"visa support","confidence":0.8,"summary":"s","sentiment":"whatever","reply_draft":"r"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Intent("VISA_SUPPORT"), result.Intent)
	assert.Equal(t, domain.SentimentUnknown, result.Sentiment)
}

func TestParseResultRejectsPlainText(t *testing.T) {
	_, err := parseResult("I could not classify this ticket.")
	assert.Error(t, err)
}
