package knowledge

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// Store indexes reference material for keyword lookup. Records are loaded
// once at construction and never mutated afterwards, so Search is safe for
// concurrent use.
type Store struct {
	records    []domain.KnowledgeRecord
	compulsory []string
	byteBudget int
	logger     *zap.Logger
}

// NewStore loads every configured source. Missing files are skipped; an empty
// store is valid and searches against it return empty matches.
func NewStore(cfg config.KnowledgeConfig, logger *zap.Logger) *Store {
	var records []domain.KnowledgeRecord
	for _, path := range cfg.CSVPaths {
		records = append(records, loadCSV(path, logger)...)
	}
	for _, path := range cfg.DocPaths {
		records = append(records, loadDocument(path, logger)...)
	}

	compulsory := make([]string, 0, len(cfg.CompulsoryKeywords))
	for _, kw := range cfg.CompulsoryKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			compulsory = append(compulsory, kw)
		}
	}

	budget := cfg.ByteBudget
	if budget <= 0 {
		budget = 4000
	}

	logger.Info("knowledge store loaded",
		zap.Int("records", len(records)),
		zap.Int("byte_budget", budget))

	return &Store{
		records:    records,
		compulsory: compulsory,
		byteBudget: budget,
		logger:     logger,
	}
}

// Count returns the number of loaded records.
func (s *Store) Count() int {
	return len(s.records)
}

// Search returns the records matching any query term as a whole word in any
// field value or raw text, capped to the byte budget. When nothing matches
// directly but the query touches a compulsory keyword, the entire store
// content is returned (also capped): those topics must never be answered
// without the full reference set.
func (s *Store) Search(queryText string) domain.KnowledgeMatch {
	terms := Tokenize(queryText)
	if len(terms) == 0 || len(s.records) == 0 {
		return domain.KnowledgeMatch{}
	}

	var hits []domain.KnowledgeRecord
	for _, record := range s.records {
		if recordMatches(record, terms) {
			hits = append(hits, record)
		}
	}

	if len(hits) == 0 && s.touchesCompulsory(terms) {
		hits = s.records
	}
	return s.cap(hits)
}

func (s *Store) touchesCompulsory(terms []string) bool {
	for _, term := range terms {
		for _, kw := range s.compulsory {
			if term == kw {
				return true
			}
		}
	}
	return false
}

func recordMatches(record domain.KnowledgeRecord, terms []string) bool {
	for _, term := range terms {
		if containsWholeWord(record.RawText, term) {
			return true
		}
		for _, value := range record.Fields {
			if containsWholeWord(value, term) {
				return true
			}
		}
	}
	return false
}

// cap bounds the concatenated content to the byte budget, cutting on record
// boundaries. Only when the very first record already exceeds the budget is
// its content truncated mid-record.
func (s *Store) cap(hits []domain.KnowledgeRecord) domain.KnowledgeMatch {
	match := domain.KnowledgeMatch{}
	used := 0
	for _, record := range hits {
		size := len(record.Content())
		if used+size > s.byteBudget {
			if len(match.Records) == 0 {
				truncated := record
				truncated.RawText = record.Content()[:s.byteBudget]
				truncated.Fields = record.Fields
				match.Records = append(match.Records, truncated)
			}
			match.Truncated = true
			break
		}
		match.Records = append(match.Records, record)
		used += size
	}
	if len(match.Records) < len(hits) {
		match.Truncated = true
	}
	return match
}
