package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

type simulationRequest struct {
	Iterations int `json:"iterations"`
}

type histogramBinResponse struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
}

type simulationResponse struct {
	RiskID     int64                  `json:"risk_id"`
	Iterations int                    `json:"iterations"`
	Mean       float64                `json:"mean"`
	StdDev     float64                `json:"stddev"`
	Min        float64                `json:"min"`
	Max        float64                `json:"max"`
	P5         float64                `json:"p5"`
	P50        float64                `json:"p50"`
	P95        float64                `json:"p95"`
	Histogram  []histogramBinResponse `json:"histogram"`
}

func (s *Server) runMonteCarlo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := riskIDParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	result, err := s.uc.Simulation.RunMonteCarlo(ctx, id, req.Iterations)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := simulationResponse{
		RiskID:     result.RiskID,
		Iterations: result.Iterations,
		Mean:       result.Mean,
		StdDev:     result.StdDev,
		Min:        result.Min,
		Max:        result.Max,
		P5:         result.P5,
		P50:        result.P50,
		P95:        result.P95,
	}
	for _, bin := range result.Histogram {
		resp.Histogram = append(resp.Histogram, histogramBinResponse{
			Lower:     bin.Lower,
			Upper:     bin.Upper,
			Count:     bin.Count,
			Frequency: bin.Frequency,
		})
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

type varRequest struct {
	ConfidenceLevel float64 `json:"confidence_level"`
	TimeHorizonDays int     `json:"time_horizon_days"`
}

type varResponse struct {
	OrganizationID    string  `json:"organization_id"`
	ConfidenceLevel   float64 `json:"confidence_level"`
	TimeHorizonDays   int     `json:"time_horizon_days"`
	VaR               float64 `json:"value_at_risk"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
	TotalExpectedLoss float64 `json:"total_expected_loss"`
	Iterations        int     `json:"iterations"`
}

func (s *Server) calculateVaR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))

	var req varRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	result, err := s.uc.Simulation.CalculateVaR(ctx, orgID, req.ConfidenceLevel, req.TimeHorizonDays)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, varResponse{
		OrganizationID:    result.OrganizationID.String(),
		ConfidenceLevel:   result.ConfidenceLevel,
		TimeHorizonDays:   result.TimeHorizonDays,
		VaR:               result.VaR,
		ExpectedShortfall: result.ExpectedShortfall,
		TotalExpectedLoss: result.TotalExpectedLoss,
		Iterations:        result.Iterations,
	})
}

type scenarioRequest struct {
	Scenarios []struct {
		Name                  string             `json:"name"`
		ProbabilityMultiplier float64            `json:"probability_multiplier"`
		ImpactMultiplier      float64            `json:"impact_multiplier"`
		ThreatMultipliers     map[string]float64 `json:"threat_multipliers,omitempty"`
	} `json:"scenarios"`
}

type scenarioResponse struct {
	Name                string         `json:"name"`
	RiskCount           int            `json:"risk_count"`
	TotalAdjustedRisk   float64        `json:"total_adjusted_risk"`
	AverageAdjustedRisk float64        `json:"average_adjusted_risk"`
	LevelDistribution   map[string]int `json:"level_distribution"`
	TotalEconomicImpact float64        `json:"total_economic_impact"`
}

func (s *Server) analyzeScenarios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))

	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	scenarios := make([]model.Scenario, 0, len(req.Scenarios))
	for _, sc := range req.Scenarios {
		scenario := model.Scenario{
			Name:                  sc.Name,
			ProbabilityMultiplier: sc.ProbabilityMultiplier,
			ImpactMultiplier:      sc.ImpactMultiplier,
		}
		if sc.ThreatMultipliers != nil {
			scenario.ThreatMultipliers = make(map[types.ThreatID]float64, len(sc.ThreatMultipliers))
			for threatID, m := range sc.ThreatMultipliers {
				scenario.ThreatMultipliers[types.ThreatID(threatID)] = m
			}
		}
		scenarios = append(scenarios, scenario)
	}

	results, err := s.uc.Simulation.AnalyzeScenarios(ctx, orgID, scenarios)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]scenarioResponse, 0, len(results))
	for _, result := range results {
		scResp := scenarioResponse{
			Name:                result.Name,
			RiskCount:           result.RiskCount,
			TotalAdjustedRisk:   result.TotalAdjustedRisk,
			AverageAdjustedRisk: result.AverageAdjustedRisk,
			LevelDistribution:   make(map[string]int, len(result.LevelDistribution)),
			TotalEconomicImpact: result.TotalEconomicImpact,
		}
		for level, count := range result.LevelDistribution {
			scResp.LevelDistribution[level.String()] = count
		}
		resp = append(resp, scResp)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"results": resp})
}

type trendResponse struct {
	Direction       string  `json:"direction"`
	Percentage      float64 `json:"percentage"`
	PreviousAverage float64 `json:"previous_average"`
	CurrentAverage  float64 `json:"current_average"`
}

type dashboardResponse struct {
	OrganizationID      string          `json:"organization_id"`
	TotalRisks          int             `json:"total_risks"`
	AverageAdjustedRisk float64         `json:"average_adjusted_risk"`
	ByLevel             map[string]int  `json:"by_level"`
	ByCategory          map[string]int  `json:"by_category"`
	ByBusinessFunction  map[string]int  `json:"by_business_function"`
	TopRisks            []*riskResponse `json:"top_risks"`
	Trend               *trendResponse  `json:"trend,omitempty"`
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))
	dashboard, err := s.uc.Dashboard.Summarize(ctx, orgID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := dashboardResponse{
		OrganizationID:      dashboard.OrganizationID.String(),
		TotalRisks:          dashboard.TotalRisks,
		AverageAdjustedRisk: dashboard.AverageAdjustedRisk,
		ByLevel:             make(map[string]int, len(dashboard.ByLevel)),
		ByCategory:          dashboard.ByCategory,
		ByBusinessFunction:  dashboard.ByBusinessFunction,
	}
	for level, count := range dashboard.ByLevel {
		resp.ByLevel[level.String()] = count
	}
	for _, risk := range dashboard.TopRisks {
		resp.TopRisks = append(resp.TopRisks, toRiskResponse(risk))
	}
	if dashboard.Trend != nil {
		resp.Trend = &trendResponse{
			Direction:       dashboard.Trend.Direction.String(),
			Percentage:      dashboard.Trend.Percentage,
			PreviousAverage: dashboard.Trend.PreviousAverage,
			CurrentAverage:  dashboard.Trend.CurrentAverage,
		}
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}
