package model

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// HistogramBin is one equal-width bin of a simulation distribution
type HistogramBin struct {
	Lower     float64
	Upper     float64
	Count     int
	Frequency float64
}

// SimulationResult is the ephemeral outcome of a single-risk Monte Carlo
// run. It is returned to the caller and summarized into the risk's
// Quantitative block, but never persisted as its own entity.
type SimulationResult struct {
	RiskID     int64
	Iterations int
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	P5         float64
	P50        float64
	P95        float64
	Histogram  []HistogramBin
}

// VaRResult is the outcome of an organizational Value-at-Risk run
type VaRResult struct {
	OrganizationID    types.OrgID
	ConfidenceLevel   float64
	TimeHorizonDays   int
	VaR               float64
	ExpectedShortfall float64
	TotalExpectedLoss float64
	Iterations        int
}

// Scenario is a deterministic what-if: multiplicative adjustments applied to
// every risk in a portfolio, optionally overridden per threat.
type Scenario struct {
	Name                  string
	ProbabilityMultiplier float64
	ImpactMultiplier      float64
	ThreatMultipliers     map[types.ThreatID]float64
}

// Validate checks that the scenario's multipliers are finite and positive
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return goerr.New("scenario name is required")
	}
	if !finitePositive(s.ProbabilityMultiplier) {
		return goerr.New("probability multiplier must be finite and positive",
			goerr.V("scenario", s.Name), goerr.V("value", s.ProbabilityMultiplier))
	}
	if !finitePositive(s.ImpactMultiplier) {
		return goerr.New("impact multiplier must be finite and positive",
			goerr.V("scenario", s.Name), goerr.V("value", s.ImpactMultiplier))
	}
	for threatID, m := range s.ThreatMultipliers {
		if !finitePositive(m) {
			return goerr.New("threat multiplier must be finite and positive",
				goerr.V("scenario", s.Name), goerr.V("threat", threatID), goerr.V("value", m))
		}
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ScenarioResult is the per-scenario aggregate of a scenario analysis
type ScenarioResult struct {
	Name                string
	RiskCount           int
	TotalAdjustedRisk   float64
	AverageAdjustedRisk float64
	LevelDistribution   map[types.RiskLevel]int
	TotalEconomicImpact float64
}
