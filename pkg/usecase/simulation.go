package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

const (
	// Monte Carlo iteration bounds
	minIterations = 1000
	maxIterations = 100000

	// Organizational VaR run length
	varIterations = 10000

	// Relative variability per perturbed component
	threatProbVariability   = 0.20
	vulnLevelVariability    = 0.15
	impactVariability       = 0.25
	temporalVariability     = 0.10
	environmentVariability  = 0.10
	lossSpread              = 0.20
	histogramBins           = 20
	maxScenariosPerAnalysis = 10
)

// SimulationUseCase is the stochastic simulation engine. Every call is
// synchronous and CPU-bound; scheduling onto a worker pool is the caller's
// concern. Each invocation draws from an independent random stream.
type SimulationUseCase struct {
	repo       interfaces.Repository
	newSampler func() *Sampler
}

func NewSimulationUseCase(repo interfaces.Repository, newSampler func() *Sampler) *SimulationUseCase {
	if newSampler == nil {
		newSampler = NewSampler
	}
	return &SimulationUseCase{
		repo:       repo,
		newSampler: newSampler,
	}
}

// RunMonteCarlo samples the distribution of a risk's adjusted score by
// independently perturbing its five calculated components per iteration.
// The result is returned and summarized into the risk's quantitative block.
func (uc *SimulationUseCase) RunMonteCarlo(ctx context.Context, riskID int64, iterations int) (*model.SimulationResult, error) {
	if iterations < minIterations || iterations > maxIterations {
		return nil, goerr.Wrap(ErrValidation, "iterations out of range",
			goerr.V("iterations", iterations),
			goerr.V("min", minIterations),
			goerr.V("max", maxIterations),
		)
	}

	risk, err := uc.repo.Risk().Get(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V(RiskIDKey, riskID))
	}

	s := uc.newSampler()
	calc := risk.Calculation

	samples := make([]float64, iterations)
	for i := range samples {
		tp := s.Normal(calc.ThreatProbability, threatProbVariability)
		vl := s.Normal(calc.VulnerabilityLevel, vulnLevelVariability)
		agg := s.Normal(calc.AggregatedImpact, impactVariability)
		tf := s.Normal(calc.TemporalFactor, temporalVariability)
		ef := s.Normal(calc.EnvironmentalFactor, environmentVariability)
		samples[i] = Clamp01(tp * vl * agg * tf * ef)
	}

	sort.Float64s(samples)

	n := len(samples)
	result := &model.SimulationResult{
		RiskID:     riskID,
		Iterations: iterations,
		Min:        samples[0],
		Max:        samples[n-1],
		P5:         samples[int(float64(n)*0.05)],
		P50:        samples[int(float64(n)*0.5)],
		P95:        samples[int(float64(n)*0.95)],
	}
	result.Mean, result.StdDev = meanStdDev(samples)
	result.Histogram = buildHistogram(samples, histogramBins)

	now := time.Now().UTC()
	risk.Quantitative.MonteCarlo = &model.ConfidenceInterval{Lower: result.P5, Upper: result.P95}
	risk.Quantitative.SimulatedMean = result.Mean
	risk.Quantitative.SimulatedStdDev = result.StdDev
	risk.Quantitative.LastSimulatedAt = &now
	if _, err := uc.repo.Risk().Update(ctx, risk); err != nil {
		return nil, goerr.Wrap(err, "failed to record simulation on risk", goerr.V(RiskIDKey, riskID))
	}

	return result, nil
}

// CalculateVaR estimates the organization's Value at Risk and Expected
// Shortfall over the portfolio of persisted risks. Each iteration draws a
// Bernoulli materialization per risk and, on success, a loss uniformly
// within +-20% of the risk's expected loss.
func (uc *SimulationUseCase) CalculateVaR(ctx context.Context, orgID types.OrgID, confidenceLevel float64, timeHorizonDays int) (*model.VaRResult, error) {
	if confidenceLevel < 0.5 || confidenceLevel > 0.99 {
		return nil, goerr.Wrap(ErrValidation, "confidence level out of range",
			goerr.V("confidence_level", confidenceLevel))
	}
	if timeHorizonDays < 1 || timeHorizonDays > 365 {
		return nil, goerr.Wrap(ErrValidation, "time horizon out of range",
			goerr.V("time_horizon_days", timeHorizonDays))
	}

	risks, err := uc.repo.Risk().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks", goerr.V(OrgIDKey, orgID))
	}

	s := uc.newSampler()

	var totalExpectedLoss float64
	for _, r := range risks {
		totalExpectedLoss += r.Calculation.Economic.ExpectedLoss
	}

	totals := make([]float64, varIterations)
	for i := range totals {
		var loss float64
		for _, r := range risks {
			if s.Bernoulli(r.Calculation.AdjustedRisk) {
				loss += s.UniformAround(r.Calculation.Economic.ExpectedLoss, lossSpread)
			}
		}
		totals[i] = loss
	}

	// Descending: index 0 is the worst iteration, deeper confidence cuts
	// further into the tail
	sort.Sort(sort.Reverse(sort.Float64Slice(totals)))

	idx := int(float64(varIterations) * (1 - confidenceLevel))
	valueAtRisk := totals[idx]

	expectedShortfall := valueAtRisk
	if idx > 0 {
		var tailSum float64
		for _, v := range totals[:idx] {
			tailSum += v
		}
		expectedShortfall = tailSum / float64(idx)
	}

	// Annualize/de-annualize to the requested horizon
	valueAtRisk *= math.Sqrt(float64(timeHorizonDays) / 365.0)

	return &model.VaRResult{
		OrganizationID:    orgID,
		ConfidenceLevel:   confidenceLevel,
		TimeHorizonDays:   timeHorizonDays,
		VaR:               valueAtRisk,
		ExpectedShortfall: expectedShortfall,
		TotalExpectedLoss: totalExpectedLoss,
		Iterations:        varIterations,
	}, nil
}

// AnalyzeScenarios applies deterministic multiplicative what-ifs to the
// portfolio. No sampling is involved: a scenario with all multipliers at 1.0
// reproduces the baseline aggregate exactly.
func (uc *SimulationUseCase) AnalyzeScenarios(ctx context.Context, orgID types.OrgID, scenarios []model.Scenario) ([]*model.ScenarioResult, error) {
	if len(scenarios) == 0 || len(scenarios) > maxScenariosPerAnalysis {
		return nil, goerr.Wrap(ErrValidation, "scenario count out of range",
			goerr.V("count", len(scenarios)),
			goerr.V("max", maxScenariosPerAnalysis),
		)
	}
	for _, scenario := range scenarios {
		if err := scenario.Validate(); err != nil {
			return nil, goerr.Wrap(ErrValidation, "invalid scenario", goerr.V("scenario", scenario.Name), goerr.V("reason", err.Error()))
		}
	}

	risks, err := uc.repo.Risk().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks", goerr.V(OrgIDKey, orgID))
	}

	results := make([]*model.ScenarioResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		result := &model.ScenarioResult{
			Name:              scenario.Name,
			RiskCount:         len(risks),
			LevelDistribution: make(map[types.RiskLevel]int),
		}

		for _, r := range risks {
			multiplier := scenario.ProbabilityMultiplier * scenario.ImpactMultiplier
			if tm, ok := scenario.ThreatMultipliers[r.ThreatID]; ok {
				multiplier *= tm
			}

			original := r.Calculation.AdjustedRisk
			adjusted := Clamp01(original * multiplier)
			result.TotalAdjustedRisk += adjusted

			// Reclassify on the 25-point matrix scale
			level := types.RiskLevelForScore(adjusted * 25)
			result.LevelDistribution[level]++

			// Scale the expected loss by the risk shift; zero original risk
			// contributes zero scaled impact
			if original > 0 {
				result.TotalEconomicImpact += r.Calculation.Economic.ExpectedLoss * adjusted / original
			}
		}

		if len(risks) > 0 {
			result.AverageAdjustedRisk = result.TotalAdjustedRisk / float64(len(risks))
		}
		results = append(results, result)
	}

	return results, nil
}

// meanStdDev returns the mean and population standard deviation
func meanStdDev(samples []float64) (float64, float64) {
	n := float64(len(samples))
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / n

	var sqDiff float64
	for _, v := range samples {
		d := v - mean
		sqDiff += d * d
	}
	return mean, math.Sqrt(sqDiff / n)
}

// buildHistogram bins the sorted samples into equal-width bins over
// [min, max]. A degenerate distribution collapses into the first bin.
func buildHistogram(sorted []float64, bins int) []model.HistogramBin {
	n := len(sorted)
	lo, hi := sorted[0], sorted[n-1]
	width := (hi - lo) / float64(bins)

	result := make([]model.HistogramBin, bins)
	for i := range result {
		result[i] = model.HistogramBin{
			Lower: lo + float64(i)*width,
			Upper: lo + float64(i+1)*width,
		}
	}
	result[bins-1].Upper = hi

	for _, v := range sorted {
		idx := bins - 1
		if width > 0 {
			idx = int((v - lo) / width)
			if idx >= bins {
				idx = bins - 1
			}
		} else {
			idx = 0
		}
		result[idx].Count++
	}

	for i := range result {
		result[i].Frequency = float64(result[i].Count) / float64(n)
	}

	return result
}
