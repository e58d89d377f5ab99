package types

import "fmt"

// Dimension represents one of the five MAGERIT security dimensions
type Dimension string

const (
	DimensionConfidentiality Dimension = "confidentiality"
	DimensionIntegrity       Dimension = "integrity"
	DimensionAvailability    Dimension = "availability"
	DimensionAuthenticity    Dimension = "authenticity"
	DimensionTraceability    Dimension = "traceability"
)

// AllDimensions returns the five MAGERIT dimensions in canonical order
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionConfidentiality,
		DimensionIntegrity,
		DimensionAvailability,
		DimensionAuthenticity,
		DimensionTraceability,
	}
}

// IsValid checks if the dimension is valid
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionConfidentiality,
		DimensionIntegrity,
		DimensionAvailability,
		DimensionAuthenticity,
		DimensionTraceability:
		return true
	default:
		return false
	}
}

// String returns the string representation of the dimension
func (d Dimension) String() string {
	return string(d)
}

// ParseDimension parses a string into a Dimension
func ParseDimension(s string) (Dimension, error) {
	dim := Dimension(s)
	if !dim.IsValid() {
		return "", fmt.Errorf("invalid dimension: %s", s)
	}
	return dim, nil
}
