package knowledge

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// loadCSV reads one tabular source. Each row becomes a record with fields
// keyed by header and RawText set to the joined row so record content is
// deterministic. A missing or malformed file is skipped with a warning.
func loadCSV(path string, logger *zap.Logger) []domain.KnowledgeRecord {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("knowledge source unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		logger.Warn("knowledge source unreadable", zap.String("path", path), zap.Error(err))
		return nil
	}
	if len(rows) < 2 {
		return nil
	}

	header := rows[0]
	records := make([]domain.KnowledgeRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]string, len(header))
		parts := make([]string, 0, len(row))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			key := ""
			if i < len(header) {
				key = strings.TrimSpace(header[i])
			}
			if key != "" {
				fields[key] = cell
				parts = append(parts, key+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		records = append(records, domain.KnowledgeRecord{
			SourceKind: domain.SourceKindTabular,
			Fields:     fields,
			RawText:    strings.Join(parts, " | "),
		})
	}
	return records
}

// loadDocument reads one unstructured source as a single record.
func loadDocument(path string, logger *zap.Logger) []domain.KnowledgeRecord {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("knowledge source unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil
	}
	return []domain.KnowledgeRecord{{
		SourceKind: domain.SourceKindDocument,
		Fields:     map[string]string{"source": filepath.Base(path)},
		RawText:    text,
	}}
}
