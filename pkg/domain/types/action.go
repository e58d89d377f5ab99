package types

import "fmt"

// RecommendedAction represents the treatment action recommended by a matrix cell
type RecommendedAction string

const (
	ActionAccept   RecommendedAction = "accept"
	ActionMonitor  RecommendedAction = "monitor"
	ActionMitigate RecommendedAction = "mitigate"
	ActionTransfer RecommendedAction = "transfer"
	ActionAvoid    RecommendedAction = "avoid"
)

// AllRecommendedActions returns all valid recommended actions
func AllRecommendedActions() []RecommendedAction {
	return []RecommendedAction{
		ActionAccept,
		ActionMonitor,
		ActionMitigate,
		ActionTransfer,
		ActionAvoid,
	}
}

// IsValid checks if the recommended action is valid
func (a RecommendedAction) IsValid() bool {
	switch a {
	case ActionAccept,
		ActionMonitor,
		ActionMitigate,
		ActionTransfer,
		ActionAvoid:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action
func (a RecommendedAction) String() string {
	return string(a)
}

// ParseRecommendedAction parses a string into a RecommendedAction
func ParseRecommendedAction(s string) (RecommendedAction, error) {
	action := RecommendedAction(s)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid recommended action: %s", s)
	}
	return action, nil
}
