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
	topRiskCount = 10
	trendWindow  = 30 * 24 * time.Hour

	// Percentage-point delta below which the trend reads as stable
	trendStableThreshold = 0.1
)

// DashboardUseCase is the read-side aggregation over a risk portfolio
type DashboardUseCase struct {
	repo  interfaces.Repository
	clock func() time.Time
}

func NewDashboardUseCase(repo interfaces.Repository, clock func() time.Time) *DashboardUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &DashboardUseCase{
		repo:  repo,
		clock: clock,
	}
}

// Summarize computes dashboard statistics for the organization's portfolio
func (uc *DashboardUseCase) Summarize(ctx context.Context, orgID types.OrgID) (*model.Dashboard, error) {
	risks, err := uc.repo.Risk().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks", goerr.V(OrgIDKey, orgID))
	}

	dashboard := &model.Dashboard{
		OrganizationID:     orgID,
		TotalRisks:         len(risks),
		ByLevel:            make(map[types.RiskLevel]int),
		ByCategory:         make(map[string]int),
		ByBusinessFunction: make(map[string]int),
	}

	var sum float64
	for _, r := range risks {
		sum += r.Calculation.AdjustedRisk
		dashboard.ByLevel[r.Classification.RiskLevel]++
		if r.Classification.Category != "" {
			dashboard.ByCategory[r.Classification.Category]++
		}
		if r.Classification.BusinessFunction != "" {
			dashboard.ByBusinessFunction[r.Classification.BusinessFunction]++
		}
	}
	if len(risks) > 0 {
		dashboard.AverageAdjustedRisk = sum / float64(len(risks))
	}

	dashboard.TopRisks = topRisks(risks, topRiskCount)
	dashboard.Trend = uc.trend(risks, dashboard.AverageAdjustedRisk)

	return dashboard, nil
}

// topRisks sorts descending by adjusted risk, breaking ties by ID for
// deterministic output
func topRisks(risks []*model.Risk, limit int) []*model.Risk {
	sorted := append([]*model.Risk(nil), risks...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Calculation.AdjustedRisk, sorted[j].Calculation.AdjustedRisk
		if a != b {
			return a > b
		}
		return sorted[i].ID < sorted[j].ID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// trend compares the current portfolio mean against the mean of risks last
// updated before the 30-day window. Absent any such history it returns nil.
func (uc *DashboardUseCase) trend(risks []*model.Risk, currentAvg float64) *model.RiskTrend {
	cutoff := uc.clock().Add(-trendWindow)

	var prevSum float64
	var prevCount int
	for _, r := range risks {
		if r.UpdatedAt.Before(cutoff) {
			prevSum += r.Calculation.AdjustedRisk
			prevCount++
		}
	}
	if prevCount == 0 {
		return nil
	}

	prevAvg := prevSum / float64(prevCount)

	var percentage float64
	switch {
	case prevAvg > 0:
		percentage = (currentAvg - prevAvg) / prevAvg * 100
	case currentAvg > 0:
		percentage = 100
	}

	direction := types.TrendStable
	if math.Abs(percentage) >= trendStableThreshold {
		if percentage > 0 {
			direction = types.TrendIncreasing
		} else {
			direction = types.TrendDecreasing
		}
	}

	return &model.RiskTrend{
		Direction:       direction,
		Percentage:      percentage,
		PreviousAverage: prevAvg,
		CurrentAverage:  currentAvg,
	}
}
