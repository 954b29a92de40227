package model

// Confidence grades how well a schema field is supported by sources.
type Confidence int

const (
	ConfidenceAbsent Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "absent"
	}
}

// ExtractedFact is one structured fact produced by the extraction
// collaborator, annotated with the schema field and sources that support it.
type ExtractedFact struct {
	Field      string   `json:"field"`
	Value      string   `json:"value"`
	SourceURLs []string `json:"source_urls"`
}

// FieldCoverage maps one required schema field onto the sources that support
// it and the confidence grade derived from them.
type FieldCoverage struct {
	Field      string     `json:"field"`
	Category   Category   `json:"category"`
	Confidence Confidence `json:"confidence"`
	Sources    []string   `json:"sources,omitempty"`
}

// Covered reports whether the field counts toward completeness.
// Only MEDIUM or higher counts.
func (fc FieldCoverage) Covered() bool {
	return fc.Confidence >= ConfidenceMedium
}
