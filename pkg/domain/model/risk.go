package model

import (
	"fmt"
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// EconomicImpact is the financial projection derived from a calculation
type EconomicImpact struct {
	PotentialLoss  float64
	ExpectedLoss   float64
	AnnualizedLoss float64
}

// Calculation is the deterministic scoring block of a risk. All
// probability-like fields are constrained to [0, 1].
type Calculation struct {
	ThreatProbability   float64
	VulnerabilityLevel  float64
	DimensionImpact     map[types.Dimension]float64
	AggregatedImpact    float64
	TemporalFactor      float64
	EnvironmentalFactor float64
	BaseRisk            float64
	AdjustedRisk        float64
	Economic            EconomicImpact
	CalculatedAt        time.Time
}

// Classification is the qualitative categorization of a risk
type Classification struct {
	RiskLevel        types.RiskLevel
	Category         string
	BusinessFunction string
}

// MatrixPosition locates the risk on its organization's matrix
type MatrixPosition struct {
	ProbabilityLevel int
	ImpactLevel      int
	Position         string
	RiskScore        int
}

// NewMatrixPosition derives the matrix position from the calculated threat
// probability and aggregated impact. Levels are ceil(value x 5) clamped to
// [1, 5]; the position string concatenates both levels.
func NewMatrixPosition(threatProbability, aggregatedImpact float64) MatrixPosition {
	p := matrixLevel(threatProbability)
	i := matrixLevel(aggregatedImpact)
	return MatrixPosition{
		ProbabilityLevel: p,
		ImpactLevel:      i,
		Position:         fmt.Sprintf("%d%d", p, i),
		RiskScore:        p * i,
	}
}

func matrixLevel(value float64) int {
	level := int(math.Ceil(value * 5))
	if level < 1 {
		return 1
	}
	if level > 5 {
		return 5
	}
	return level
}

// ConfidenceInterval is the p5-p95 band of a Monte Carlo run
type ConfidenceInterval struct {
	Lower float64
	Upper float64
}

// Quantitative holds the stochastic analysis results attached to a risk
type Quantitative struct {
	MonteCarlo      *ConfidenceInterval
	SimulatedMean   float64
	SimulatedStdDev float64
	ValueAtRisk     float64
	LastSimulatedAt *time.Time
}

// AppliedControl is one mitigation control with its effectiveness in [0, 1]
type AppliedControl struct {
	Name          string
	Effectiveness float64
}

// Treatment records the chosen treatment for a risk. ResidualRisk is the
// adjusted risk remaining after applied controls.
type Treatment struct {
	Strategy     types.TreatmentStrategy
	Status       types.TreatmentStatus
	Controls     []AppliedControl
	ResidualRisk float64
	UpdatedAt    time.Time
}

// ResidualRisk computes the risk remaining after applying the given
// controls: each control scales the adjusted risk by (1 - effectiveness).
func ResidualRisk(adjustedRisk float64, controls []AppliedControl) float64 {
	residual := adjustedRisk
	for _, c := range controls {
		e := c.Effectiveness
		if e < 0 {
			e = 0
		}
		if e > 1 {
			e = 1
		}
		residual *= 1 - e
	}
	return residual
}

// Risk represents one evaluated (asset, threat, vulnerability) triad.
// Revision supports optimistic versioning at the persistence boundary:
// repositories reject updates whose revision does not match the stored one.
type Risk struct {
	ID              int64
	OrganizationID  types.OrgID
	AssetID         types.AssetID
	ThreatID        types.ThreatID
	VulnerabilityID types.VulnerabilityID
	Name            string
	Calculation     Calculation
	Classification  Classification
	MatrixPosition  MatrixPosition
	Quantitative    Quantitative
	Treatment       *Treatment
	Revision        int64
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the risk's numeric invariants
func (r *Risk) Validate() error {
	if err := r.AssetID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid asset reference")
	}
	if err := r.ThreatID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid threat reference")
	}
	if err := r.VulnerabilityID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid vulnerability reference")
	}
	if err := r.OrganizationID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid organization reference")
	}

	for name, v := range map[string]float64{
		"threatProbability":  r.Calculation.ThreatProbability,
		"vulnerabilityLevel": r.Calculation.VulnerabilityLevel,
		"aggregatedImpact":   r.Calculation.AggregatedImpact,
		"baseRisk":           r.Calculation.BaseRisk,
		"adjustedRisk":       r.Calculation.AdjustedRisk,
	} {
		if v < 0 || v > 1 {
			return goerr.New("calculation field out of range",
				goerr.V("field", name), goerr.V("value", v))
		}
	}

	if p := r.MatrixPosition.ProbabilityLevel; p < 1 || p > 5 {
		return goerr.New("probability level out of range", goerr.V("level", p))
	}
	if i := r.MatrixPosition.ImpactLevel; i < 1 || i > 5 {
		return goerr.New("impact level out of range", goerr.V("level", i))
	}
	want := fmt.Sprintf("%d%d", r.MatrixPosition.ProbabilityLevel, r.MatrixPosition.ImpactLevel)
	if r.MatrixPosition.Position != want {
		return goerr.New("matrix position string mismatch",
			goerr.V("position", r.MatrixPosition.Position), goerr.V("want", want))
	}

	return nil
}
