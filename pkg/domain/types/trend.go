package types

// TrendDirection represents the direction of the portfolio risk trend
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// IsValid checks if the trend direction is valid
func (d TrendDirection) IsValid() bool {
	switch d {
	case TrendIncreasing, TrendDecreasing, TrendStable:
		return true
	default:
		return false
	}
}

// String returns the string representation of the trend direction
func (d TrendDirection) String() string {
	return string(d)
}
