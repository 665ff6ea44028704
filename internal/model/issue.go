package model

type IssueKind string

const (
	MissingColorPairing IssueKind = "MissingColorPairing"
	HardcodedColor      IssueKind = "HardcodedColor"
	PoorHierarchy       IssueKind = "PoorHierarchy"
	InvisibleText       IssueKind = "InvisibleText"
	NestedSameSurface   IssueKind = "NestedSameSurface"
	LowContrast         IssueKind = "LowContrast"
)

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
)

// Severities lists severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium}

// Rank orders severities; higher is more severe. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}

type Issue struct {
	Kind         IssueKind         `json:"kind" yaml:"kind"`
	Severity     Severity          `json:"severity" yaml:"severity"`
	Element      string            `json:"element" yaml:"element"`
	ElementIndex int               `json:"element_index" yaml:"element_index"`
	Details      map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}
