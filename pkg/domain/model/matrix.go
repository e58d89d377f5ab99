package model

import (
	"fmt"
	"math"
	"time"

	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// ScaleEntry is one level of a probability or impact scale. Probability
// ranges live in [0, 1]; impact ranges are financial amounts.
type ScaleEntry struct {
	Level       int
	Name        string
	Min         float64
	Max         float64
	Description string
}

// Contains reports whether the value falls in the entry's half-open range
// [Min, Max). The top entry of a scale treats Max as inclusive so that the
// scale covers its full domain.
func (s ScaleEntry) Contains(value float64, top bool) bool {
	if top {
		return value >= s.Min && value <= s.Max
	}
	return value >= s.Min && value < s.Max
}

// MatrixCell is one entry of the probability x impact classification table
type MatrixCell struct {
	ProbabilityLevel int
	ImpactLevel      int
	RiskLevel        types.RiskLevel
	RiskScore        int
	Color            string
	Action           types.RecommendedAction
}

// ToleranceBand describes one tolerance zone by score ceiling and level set
type ToleranceBand struct {
	MaxScore int
	Levels   []types.RiskLevel
}

// ToleranceBands groups the three tolerance zones of a matrix
type ToleranceBands struct {
	Acceptable   ToleranceBand
	Tolerable    ToleranceBand
	Unacceptable ToleranceBand
}

// EscalationCondition describes when an escalation rule fires. RiskLevels
// must match the risk's level; Min/MaxScore additionally bound the cell
// score when non-nil.
type EscalationCondition struct {
	RiskLevels []types.RiskLevel
	MinScore   *int
	MaxScore   *int
}

// EscalationRule maps a condition to an ordered list of actions. The rule is
// evaluated here; execution belongs to the notification collaborator.
type EscalationRule struct {
	Name      string
	Condition EscalationCondition
	Actions   []string
}

// ConfigViolation describes one problem found by RiskMatrix.Validate
type ConfigViolation struct {
	Field   string
	Message string
}

func (v ConfigViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// RiskMatrix is an immutable-per-version classification configuration.
// Exactly one default+active matrix may exist per organization; that
// invariant is enforced by the repository's atomic swap, not here.
type RiskMatrix struct {
	ID                types.MatrixID
	OrganizationID    types.OrgID
	Name              string
	Version           int
	ProbabilityLevels int
	ImpactLevels      int
	ProbabilityScale  []ScaleEntry
	ImpactScale       []ScaleEntry
	Cells             []MatrixCell
	Tolerance         ToleranceBands
	EscalationRules   []EscalationRule
	IsDefault         bool
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// riskLevelColor maps a level to its display color
func riskLevelColor(level types.RiskLevel) string {
	switch level {
	case types.RiskLevelVeryLow:
		return "#4caf50"
	case types.RiskLevelLow:
		return "#8bc34a"
	case types.RiskLevelMedium:
		return "#ffeb3b"
	case types.RiskLevelHigh:
		return "#ff9800"
	case types.RiskLevelCritical:
		return "#f44336"
	default:
		return "#9e9e9e"
	}
}

// riskLevelAction maps a level to its recommended treatment action
func riskLevelAction(level types.RiskLevel) types.RecommendedAction {
	switch level {
	case types.RiskLevelVeryLow:
		return types.ActionAccept
	case types.RiskLevelLow:
		return types.ActionMonitor
	case types.RiskLevelMedium:
		return types.ActionMitigate
	case types.RiskLevelHigh:
		return types.ActionTransfer
	case types.RiskLevelCritical:
		return types.ActionAvoid
	default:
		return types.ActionMonitor
	}
}

// DefaultColorForLevel returns the standard display color of a risk level
func DefaultColorForLevel(level types.RiskLevel) string {
	return riskLevelColor(level)
}

// DefaultActionForLevel returns the standard recommended action of a risk
// level
func DefaultActionForLevel(level types.RiskLevel) types.RecommendedAction {
	return riskLevelAction(level)
}

// GenerateDefaultMatrix builds a fully populated matrix for the organization
// with the given scale sizes. Generation is deterministic: for each
// (probability, impact) pair the score is their product and the level follows
// the fixed breakpoints of types.RiskLevelForScore.
func GenerateDefaultMatrix(orgID types.OrgID, probLevels, impactLevels int) *RiskMatrix {
	m := &RiskMatrix{
		ID:                types.NewMatrixID(),
		OrganizationID:    orgID,
		Name:              "default",
		Version:           1,
		ProbabilityLevels: probLevels,
		ImpactLevels:      impactLevels,
		ProbabilityScale:  defaultProbabilityScale(probLevels),
		ImpactScale:       defaultImpactScale(impactLevels),
		IsDefault:         true,
		IsActive:          true,
	}

	for p := 1; p <= probLevels; p++ {
		for i := 1; i <= impactLevels; i++ {
			score := p * i
			level := types.RiskLevelForScore(float64(score))
			m.Cells = append(m.Cells, MatrixCell{
				ProbabilityLevel: p,
				ImpactLevel:      i,
				RiskLevel:        level,
				RiskScore:        score,
				Color:            riskLevelColor(level),
				Action:           riskLevelAction(level),
			})
		}
	}

	maxScore := probLevels * impactLevels
	m.Tolerance = ToleranceBands{
		Acceptable: ToleranceBand{
			MaxScore: maxScore * 4 / 25,
			Levels:   []types.RiskLevel{types.RiskLevelVeryLow, types.RiskLevelLow},
		},
		Tolerable: ToleranceBand{
			MaxScore: maxScore * 12 / 25,
			Levels:   []types.RiskLevel{types.RiskLevelMedium},
		},
		Unacceptable: ToleranceBand{
			MaxScore: maxScore,
			Levels:   []types.RiskLevel{types.RiskLevelHigh, types.RiskLevelCritical},
		},
	}

	return m
}

// defaultProbabilityScale partitions [0, 1] into n equal ranges
func defaultProbabilityScale(n int) []ScaleEntry {
	entries := make([]ScaleEntry, 0, n)
	width := 1.0 / float64(n)
	for i := 1; i <= n; i++ {
		entries = append(entries, ScaleEntry{
			Level: i,
			Name:  fmt.Sprintf("P%d", i),
			Min:   float64(i-1) * width,
			Max:   float64(i) * width,
		})
	}
	// Avoid floating point residue on the top boundary
	entries[n-1].Max = 1.0
	return entries
}

// defaultImpactScale builds n financial ranges growing by a factor of ten
// from 10,000, with an unbounded top range
func defaultImpactScale(n int) []ScaleEntry {
	entries := make([]ScaleEntry, 0, n)
	lower := 0.0
	upper := 10000.0
	for i := 1; i <= n; i++ {
		e := ScaleEntry{
			Level: i,
			Name:  fmt.Sprintf("I%d", i),
			Min:   lower,
			Max:   upper,
		}
		if i == n {
			e.Max = math.Inf(1)
		}
		entries = append(entries, e)
		lower = upper
		upper *= 10
	}
	return entries
}

// RiskLevelAt looks up the cell for the given probability and impact levels.
// A nil return indicates a configuration bug: a validated matrix is
// exhaustive.
func (m *RiskMatrix) RiskLevelAt(probLevel, impactLevel int) *MatrixCell {
	for i := range m.Cells {
		if m.Cells[i].ProbabilityLevel == probLevel && m.Cells[i].ImpactLevel == impactLevel {
			return &m.Cells[i]
		}
	}
	return nil
}

// ProbabilityScaleFor maps a [0, 1] value to its probability scale entry.
// Values outside every range fall back to the lowest level to guard against
// boundary gaps.
func (m *RiskMatrix) ProbabilityScaleFor(value float64) ScaleEntry {
	return scaleEntryFor(m.ProbabilityScale, value)
}

// ImpactScaleFor maps a financial value to its impact scale entry
func (m *RiskMatrix) ImpactScaleFor(value float64) ScaleEntry {
	return scaleEntryFor(m.ImpactScale, value)
}

func scaleEntryFor(entries []ScaleEntry, value float64) ScaleEntry {
	for i, e := range entries {
		if e.Contains(value, i == len(entries)-1) {
			return e
		}
	}
	if len(entries) == 0 {
		return ScaleEntry{}
	}
	lowest := entries[0]
	for _, e := range entries[1:] {
		if e.Level < lowest.Level {
			lowest = e
		}
	}
	return lowest
}

// Validate checks the matrix configuration and returns every violation found
// instead of failing on the first, so a configuration can be inspected
// before activation. An empty result means the matrix is consistent.
func (m *RiskMatrix) Validate() []ConfigViolation {
	var violations []ConfigViolation

	if m.ProbabilityLevels < 3 || m.ProbabilityLevels > 7 {
		violations = append(violations, ConfigViolation{
			Field:   "probabilityLevels",
			Message: fmt.Sprintf("must be between 3 and 7, got %d", m.ProbabilityLevels),
		})
	}
	if m.ImpactLevels < 3 || m.ImpactLevels > 7 {
		violations = append(violations, ConfigViolation{
			Field:   "impactLevels",
			Message: fmt.Sprintf("must be between 3 and 7, got %d", m.ImpactLevels),
		})
	}

	violations = append(violations, validateScale("probabilityScale", m.ProbabilityScale, m.ProbabilityLevels)...)
	violations = append(violations, validateScale("impactScale", m.ImpactScale, m.ImpactLevels)...)

	expected := m.ProbabilityLevels * m.ImpactLevels
	if len(m.Cells) != expected {
		violations = append(violations, ConfigViolation{
			Field:   "cells",
			Message: fmt.Sprintf("cell table must have %d entries, got %d", expected, len(m.Cells)),
		})
	}

	seen := make(map[[2]int]bool, len(m.Cells))
	for _, cell := range m.Cells {
		key := [2]int{cell.ProbabilityLevel, cell.ImpactLevel}
		if seen[key] {
			violations = append(violations, ConfigViolation{
				Field:   "cells",
				Message: fmt.Sprintf("duplicate cell (%d, %d)", cell.ProbabilityLevel, cell.ImpactLevel),
			})
		}
		seen[key] = true

		if cell.RiskScore != cell.ProbabilityLevel*cell.ImpactLevel {
			violations = append(violations, ConfigViolation{
				Field: "cells",
				Message: fmt.Sprintf("cell (%d, %d) score must be %d, got %d",
					cell.ProbabilityLevel, cell.ImpactLevel,
					cell.ProbabilityLevel*cell.ImpactLevel, cell.RiskScore),
			})
		}
		if !cell.RiskLevel.IsValid() {
			violations = append(violations, ConfigViolation{
				Field:   "cells",
				Message: fmt.Sprintf("cell (%d, %d) has invalid risk level %q", cell.ProbabilityLevel, cell.ImpactLevel, cell.RiskLevel),
			})
		}
		if !cell.Action.IsValid() {
			violations = append(violations, ConfigViolation{
				Field:   "cells",
				Message: fmt.Sprintf("cell (%d, %d) has invalid action %q", cell.ProbabilityLevel, cell.ImpactLevel, cell.Action),
			})
		}
	}

	for p := 1; p <= m.ProbabilityLevels; p++ {
		for i := 1; i <= m.ImpactLevels; i++ {
			if !seen[[2]int{p, i}] {
				violations = append(violations, ConfigViolation{
					Field:   "cells",
					Message: fmt.Sprintf("missing cell (%d, %d)", p, i),
				})
			}
		}
	}

	return violations
}

func validateScale(field string, entries []ScaleEntry, declared int) []ConfigViolation {
	var violations []ConfigViolation

	if len(entries) != declared {
		violations = append(violations, ConfigViolation{
			Field:   field,
			Message: fmt.Sprintf("expected %d entries, got %d", declared, len(entries)),
		})
	}

	for i, e := range entries {
		if e.Level != i+1 {
			violations = append(violations, ConfigViolation{
				Field:   field,
				Message: fmt.Sprintf("entry %d must have level %d, got %d", i, i+1, e.Level),
			})
		}
		if e.Min > e.Max {
			violations = append(violations, ConfigViolation{
				Field:   field,
				Message: fmt.Sprintf("level %d has inverted range [%v, %v]", e.Level, e.Min, e.Max),
			})
		}
		if i > 0 && entries[i-1].Max > e.Min {
			violations = append(violations, ConfigViolation{
				Field:   field,
				Message: fmt.Sprintf("level %d range overlaps level %d", e.Level, entries[i-1].Level),
			})
		}
	}

	return violations
}

// MatchEscalationRules returns the rules whose condition holds for the given
// risk, preserving rule order. The caller (a notification collaborator)
// executes the matched actions.
func (m *RiskMatrix) MatchEscalationRules(risk *Risk) []EscalationRule {
	var matched []EscalationRule
	for _, rule := range m.EscalationRules {
		if ruleMatches(rule, risk) {
			matched = append(matched, rule)
		}
	}
	return matched
}

func ruleMatches(rule EscalationRule, risk *Risk) bool {
	if len(rule.Condition.RiskLevels) > 0 {
		found := false
		for _, level := range rule.Condition.RiskLevels {
			if level == risk.Classification.RiskLevel {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if rule.Condition.MinScore != nil && risk.MatrixPosition.RiskScore < *rule.Condition.MinScore {
		return false
	}
	if rule.Condition.MaxScore != nil && risk.MatrixPosition.RiskScore > *rule.Condition.MaxScore {
		return false
	}
	return true
}
