package domain

// SourceKind distinguishes where a knowledge record was loaded from.
type SourceKind string

const (
	SourceKindTabular  SourceKind = "tabular"
	SourceKindDocument SourceKind = "document"
)

// KnowledgeRecord is one unit of reference content. Records are loaded once at
// startup and never mutated, so they are safe for concurrent reads.
type KnowledgeRecord struct {
	SourceKind SourceKind
	Fields     map[string]string
	RawText    string
}

// Content returns the searchable/serializable text of the record.
func (r KnowledgeRecord) Content() string {
	if r.RawText != "" {
		return r.RawText
	}
	out := ""
	for key, value := range r.Fields {
		if out != "" {
			out += " | "
		}
		out += key + ": " + value
	}
	return out
}

// KnowledgeMatch is the per-request, byte-capped set of records relevant to a
// query, in store order.
type KnowledgeMatch struct {
	Records []KnowledgeRecord
	// Truncated is set when the byte budget forced dropping or cutting content.
	Truncated bool
}

// Empty reports whether the match carries no content.
func (m KnowledgeMatch) Empty() bool {
	return len(m.Records) == 0
}
