package types

import "fmt"

// RiskLevel represents the qualitative classification of a risk
type RiskLevel string

const (
	RiskLevelVeryLow  RiskLevel = "very_low"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// AllRiskLevels returns all valid risk levels in ascending order of severity
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{
		RiskLevelVeryLow,
		RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical,
	}
}

// IsValid checks if the risk level is valid
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelVeryLow,
		RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical:
		return true
	default:
		return false
	}
}

// Severity returns the ordinal severity of the level, from 1 (very_low) to 5 (critical)
func (l RiskLevel) Severity() int {
	switch l {
	case RiskLevelVeryLow:
		return 1
	case RiskLevelLow:
		return 2
	case RiskLevelMedium:
		return 3
	case RiskLevelHigh:
		return 4
	case RiskLevelCritical:
		return 5
	default:
		return 0
	}
}

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// ParseRiskLevel parses a string into a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid risk level: %s", s)
	}
	return level, nil
}

// RiskLevelForScore maps a matrix cell score (probability level x impact level)
// to its qualitative level. Breakpoints assume a 5x5 matrix with scores in [1, 25].
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score <= 4:
		return RiskLevelVeryLow
	case score <= 8:
		return RiskLevelLow
	case score <= 12:
		return RiskLevelMedium
	case score <= 16:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}
