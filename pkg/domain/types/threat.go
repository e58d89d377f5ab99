package types

// GeoRelevance represents how relevant a threat is to the organization's
// geographic context
type GeoRelevance string

const (
	GeoRelevanceVeryLow  GeoRelevance = "very_low"
	GeoRelevanceLow      GeoRelevance = "low"
	GeoRelevanceMedium   GeoRelevance = "medium"
	GeoRelevanceHigh     GeoRelevance = "high"
	GeoRelevanceVeryHigh GeoRelevance = "very_high"
)

// IsValid checks if the geographic relevance is valid
func (g GeoRelevance) IsValid() bool {
	switch g {
	case GeoRelevanceVeryLow,
		GeoRelevanceLow,
		GeoRelevanceMedium,
		GeoRelevanceHigh,
		GeoRelevanceVeryHigh:
		return true
	default:
		return false
	}
}

// Multiplier returns the probability multiplier applied to threats with this
// geographic relevance. Unknown values are treated as neutral.
func (g GeoRelevance) Multiplier() float64 {
	switch g {
	case GeoRelevanceVeryLow:
		return 0.5
	case GeoRelevanceLow:
		return 0.7
	case GeoRelevanceHigh:
		return 1.3
	case GeoRelevanceVeryHigh:
		return 1.6
	default:
		return 1.0
	}
}

// String returns the string representation of the geographic relevance
func (g GeoRelevance) String() string {
	return string(g)
}
