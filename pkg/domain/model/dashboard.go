package model

import (
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// RiskTrend compares the current portfolio mean against the historical one.
// Absent when no historical data exists.
type RiskTrend struct {
	Direction       types.TrendDirection
	Percentage      float64
	PreviousAverage float64
	CurrentAverage  float64
}

// Dashboard summarizes a risk portfolio for presentation
type Dashboard struct {
	OrganizationID      types.OrgID
	TotalRisks          int
	AverageAdjustedRisk float64
	ByLevel             map[types.RiskLevel]int
	ByCategory          map[string]int
	ByBusinessFunction  map[string]int
	TopRisks            []*Risk
	Trend               *RiskTrend
}
