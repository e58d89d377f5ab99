package types

import "fmt"

// TreatmentStrategy represents the chosen treatment approach for a risk
type TreatmentStrategy string

const (
	TreatmentAccept   TreatmentStrategy = "accept"
	TreatmentMitigate TreatmentStrategy = "mitigate"
	TreatmentTransfer TreatmentStrategy = "transfer"
	TreatmentAvoid    TreatmentStrategy = "avoid"
)

// IsValid checks if the treatment strategy is valid
func (s TreatmentStrategy) IsValid() bool {
	switch s {
	case TreatmentAccept, TreatmentMitigate, TreatmentTransfer, TreatmentAvoid:
		return true
	default:
		return false
	}
}

// String returns the string representation of the treatment strategy
func (s TreatmentStrategy) String() string {
	return string(s)
}

// ParseTreatmentStrategy parses a string into a TreatmentStrategy
func ParseTreatmentStrategy(s string) (TreatmentStrategy, error) {
	strategy := TreatmentStrategy(s)
	if !strategy.IsValid() {
		return "", fmt.Errorf("invalid treatment strategy: %s", s)
	}
	return strategy, nil
}

// TreatmentStatus represents the implementation status of a treatment
type TreatmentStatus string

const (
	TreatmentStatusPending     TreatmentStatus = "pending"
	TreatmentStatusInProgress  TreatmentStatus = "in_progress"
	TreatmentStatusImplemented TreatmentStatus = "implemented"
	TreatmentStatusVerified    TreatmentStatus = "verified"
)

// IsValid checks if the treatment status is valid
func (s TreatmentStatus) IsValid() bool {
	switch s {
	case TreatmentStatusPending,
		TreatmentStatusInProgress,
		TreatmentStatusImplemented,
		TreatmentStatusVerified:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as TreatmentStatusPending
func (s TreatmentStatus) Normalize() TreatmentStatus {
	if s == "" {
		return TreatmentStatusPending
	}
	return s
}

// String returns the string representation of the treatment status
func (s TreatmentStatus) String() string {
	return string(s)
}
