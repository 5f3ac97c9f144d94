package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testStore(t *testing.T, cfg config.KnowledgeConfig) *Store {
	t.Helper()
	return NewStore(cfg, zap.NewNop())
}

func TestTokenizeRemovesStopWords(t *testing.T) {
	terms := Tokenize("What is the fee for the Golang course?")
	assert.ElementsMatch(t, []string{"fee", "golang", "course"}, terms)
}

func TestTokenizeFallsBackToWhitespace(t *testing.T) {
	// Every term is a stop word, so the fallback tokenizer kicks in.
	terms := Tokenize("what is the")
	assert.ElementsMatch(t, []string{"what", "is", "the"}, terms)
}

func TestSearchMatchesWholeWordsOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "courses.csv", "course,fee\nGolang Basics,4999\nRust Advanced,5999\n")

	store := testStore(t, config.KnowledgeConfig{
		CSVPaths:   []string{filepath.Join(dir, "courses.csv")},
		ByteBudget: 4000,
	})
	require.Equal(t, 2, store.Count())

	match := store.Search("do you offer rust training")
	require.Len(t, match.Records, 1)
	assert.Contains(t, match.Records[0].RawText, "Rust Advanced")

	// "rus" is a substring of Rust but not a whole word.
	assert.True(t, store.Search("rus").Empty())
}

func TestSearchNoMatchNoCompulsoryReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "courses.csv", "course,fee\nGolang Basics,4999\n")

	store := testStore(t, config.KnowledgeConfig{
		CSVPaths:           []string{filepath.Join(dir, "courses.csv")},
		CompulsoryKeywords: []string{"fee", "certificate", "link"},
		ByteBudget:         4000,
	})

	assert.True(t, store.Search("quantum entanglement puzzles").Empty())
}

func TestSearchCompulsoryKeywordReturnsFullStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "courses.csv", "course,amount\nGolang Basics,4999\nRust Advanced,5999\n")
	writeFile(t, dir, "faq.md", "Refund requests are handled within 7 days.")

	store := testStore(t, config.KnowledgeConfig{
		CSVPaths:           []string{filepath.Join(dir, "courses.csv")},
		DocPaths:           []string{filepath.Join(dir, "faq.md")},
		CompulsoryKeywords: []string{"fee", "certificate", "link"},
		ByteBudget:         4000,
	})

	// "fee" matches no record content but is compulsory: everything comes back.
	match := store.Search("what is the fee")
	assert.Len(t, match.Records, 3)
}

func TestSearchCapsAtByteBudgetOnRecordBoundary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha alpha alpha alpha alpha alpha alpha alpha")
	writeFile(t, dir, "b.md", "alpha beta beta beta beta beta beta beta beta")

	store := testStore(t, config.KnowledgeConfig{
		DocPaths:   []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")},
		ByteBudget: 60,
	})

	match := store.Search("alpha")
	require.Len(t, match.Records, 1)
	assert.True(t, match.Truncated)
}

func TestSearchTruncatesOversizedFirstRecord(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha alpha alpha alpha alpha alpha alpha alpha")

	store := testStore(t, config.KnowledgeConfig{
		DocPaths:   []string{filepath.Join(dir, "a.md")},
		ByteBudget: 10,
	})

	match := store.Search("alpha")
	require.Len(t, match.Records, 1)
	assert.Len(t, match.Records[0].RawText, 10)
	assert.True(t, match.Truncated)
}

func TestMissingSourcesYieldEmptyStore(t *testing.T) {
	store := testStore(t, config.KnowledgeConfig{
		CSVPaths: []string{"/nonexistent/courses.csv"},
		DocPaths: []string{"/nonexistent/faq.md"},
	})

	assert.Equal(t, 0, store.Count())
	assert.True(t, store.Search("anything at all").Empty())
}
