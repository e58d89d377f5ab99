package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/usecase"
	"github.com/secmon-lab/moirai/pkg/utils/errutil"
	"github.com/secmon-lab/moirai/pkg/utils/safe"
)

// statusForError maps the engine's error taxonomy to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInconsistentReference):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusForError(err))
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

type economicImpactResponse struct {
	PotentialLoss  float64 `json:"potential_loss"`
	ExpectedLoss   float64 `json:"expected_loss"`
	AnnualizedLoss float64 `json:"annualized_loss"`
}

type calculationResponse struct {
	ThreatProbability   float64                `json:"threat_probability"`
	VulnerabilityLevel  float64                `json:"vulnerability_level"`
	DimensionImpact     map[string]float64     `json:"dimension_impact,omitempty"`
	AggregatedImpact    float64                `json:"aggregated_impact"`
	TemporalFactor      float64                `json:"temporal_factor"`
	EnvironmentalFactor float64                `json:"environmental_factor"`
	BaseRisk            float64                `json:"base_risk"`
	AdjustedRisk        float64                `json:"adjusted_risk"`
	Economic            economicImpactResponse `json:"economic"`
	CalculatedAt        time.Time              `json:"calculated_at"`
}

type matrixPositionResponse struct {
	ProbabilityLevel int    `json:"probability_level"`
	ImpactLevel      int    `json:"impact_level"`
	Position         string `json:"position"`
	RiskScore        int    `json:"risk_score"`
}

type quantitativeResponse struct {
	MonteCarloLower *float64   `json:"monte_carlo_lower,omitempty"`
	MonteCarloUpper *float64   `json:"monte_carlo_upper,omitempty"`
	SimulatedMean   float64    `json:"simulated_mean"`
	SimulatedStdDev float64    `json:"simulated_stddev"`
	ValueAtRisk     float64    `json:"value_at_risk"`
	LastSimulatedAt *time.Time `json:"last_simulated_at,omitempty"`
}

type appliedControlResponse struct {
	Name          string  `json:"name"`
	Effectiveness float64 `json:"effectiveness"`
}

type treatmentResponse struct {
	Strategy     string                   `json:"strategy"`
	Status       string                   `json:"status"`
	Controls     []appliedControlResponse `json:"controls,omitempty"`
	ResidualRisk float64                  `json:"residual_risk"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

type riskResponse struct {
	ID               int64                  `json:"id"`
	OrganizationID   string                 `json:"organization_id"`
	AssetID          string                 `json:"asset_id"`
	ThreatID         string                 `json:"threat_id"`
	VulnerabilityID  string                 `json:"vulnerability_id"`
	Name             string                 `json:"name"`
	Calculation      calculationResponse    `json:"calculation"`
	RiskLevel        string                 `json:"risk_level"`
	Category         string                 `json:"category,omitempty"`
	BusinessFunction string                 `json:"business_function,omitempty"`
	MatrixPosition   matrixPositionResponse `json:"matrix_position"`
	Quantitative     quantitativeResponse   `json:"quantitative"`
	Treatment        *treatmentResponse     `json:"treatment,omitempty"`
	Revision         int64                  `json:"revision"`
	CreatedBy        string                 `json:"created_by,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func toCalculationResponse(c model.Calculation) calculationResponse {
	resp := calculationResponse{
		ThreatProbability:   c.ThreatProbability,
		VulnerabilityLevel:  c.VulnerabilityLevel,
		AggregatedImpact:    c.AggregatedImpact,
		TemporalFactor:      c.TemporalFactor,
		EnvironmentalFactor: c.EnvironmentalFactor,
		BaseRisk:            c.BaseRisk,
		AdjustedRisk:        c.AdjustedRisk,
		Economic: economicImpactResponse{
			PotentialLoss:  c.Economic.PotentialLoss,
			ExpectedLoss:   c.Economic.ExpectedLoss,
			AnnualizedLoss: c.Economic.AnnualizedLoss,
		},
		CalculatedAt: c.CalculatedAt,
	}
	if c.DimensionImpact != nil {
		resp.DimensionImpact = make(map[string]float64, len(c.DimensionImpact))
		for dim, v := range c.DimensionImpact {
			resp.DimensionImpact[dim.String()] = v
		}
	}
	return resp
}

func toRiskResponse(r *model.Risk) *riskResponse {
	resp := &riskResponse{
		ID:               r.ID,
		OrganizationID:   r.OrganizationID.String(),
		AssetID:          r.AssetID.String(),
		ThreatID:         r.ThreatID.String(),
		VulnerabilityID:  r.VulnerabilityID.String(),
		Name:             r.Name,
		Calculation:      toCalculationResponse(r.Calculation),
		RiskLevel:        r.Classification.RiskLevel.String(),
		Category:         r.Classification.Category,
		BusinessFunction: r.Classification.BusinessFunction,
		MatrixPosition: matrixPositionResponse{
			ProbabilityLevel: r.MatrixPosition.ProbabilityLevel,
			ImpactLevel:      r.MatrixPosition.ImpactLevel,
			Position:         r.MatrixPosition.Position,
			RiskScore:        r.MatrixPosition.RiskScore,
		},
		Quantitative: quantitativeResponse{
			SimulatedMean:   r.Quantitative.SimulatedMean,
			SimulatedStdDev: r.Quantitative.SimulatedStdDev,
			ValueAtRisk:     r.Quantitative.ValueAtRisk,
			LastSimulatedAt: r.Quantitative.LastSimulatedAt,
		},
		Revision:  r.Revision,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Quantitative.MonteCarlo != nil {
		lower := r.Quantitative.MonteCarlo.Lower
		upper := r.Quantitative.MonteCarlo.Upper
		resp.Quantitative.MonteCarloLower = &lower
		resp.Quantitative.MonteCarloUpper = &upper
	}
	if r.Treatment != nil {
		treatment := &treatmentResponse{
			Strategy:     r.Treatment.Strategy.String(),
			Status:       r.Treatment.Status.String(),
			ResidualRisk: r.Treatment.ResidualRisk,
			UpdatedAt:    r.Treatment.UpdatedAt,
		}
		for _, c := range r.Treatment.Controls {
			treatment.Controls = append(treatment.Controls, appliedControlResponse{
				Name:          c.Name,
				Effectiveness: c.Effectiveness,
			})
		}
		resp.Treatment = treatment
	}
	return resp
}

type scaleEntryResponse struct {
	Level       int     `json:"level"`
	Name        string  `json:"name"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Unbounded   bool    `json:"unbounded,omitempty"`
	Description string  `json:"description,omitempty"`
}

type matrixCellResponse struct {
	ProbabilityLevel int    `json:"probability_level"`
	ImpactLevel      int    `json:"impact_level"`
	RiskLevel        string `json:"risk_level"`
	RiskScore        int    `json:"risk_score"`
	Color            string `json:"color"`
	Action           string `json:"action"`
}

type matrixResponse struct {
	ID                string               `json:"id"`
	OrganizationID    string               `json:"organization_id"`
	Name              string               `json:"name"`
	Version           int                  `json:"version"`
	ProbabilityLevels int                  `json:"probability_levels"`
	ImpactLevels      int                  `json:"impact_levels"`
	ProbabilityScale  []scaleEntryResponse `json:"probability_scale"`
	ImpactScale       []scaleEntryResponse `json:"impact_scale"`
	Cells             []matrixCellResponse `json:"cells"`
	IsDefault         bool                 `json:"is_default"`
	IsActive          bool                 `json:"is_active"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func toMatrixResponse(m *model.RiskMatrix) *matrixResponse {
	resp := &matrixResponse{
		ID:                m.ID.String(),
		OrganizationID:    m.OrganizationID.String(),
		Name:              m.Name,
		Version:           m.Version,
		ProbabilityLevels: m.ProbabilityLevels,
		ImpactLevels:      m.ImpactLevels,
		IsDefault:         m.IsDefault,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	resp.ProbabilityScale = toScaleEntryResponses(m.ProbabilityScale)
	resp.ImpactScale = toScaleEntryResponses(m.ImpactScale)
	for _, cell := range m.Cells {
		resp.Cells = append(resp.Cells, matrixCellResponse{
			ProbabilityLevel: cell.ProbabilityLevel,
			ImpactLevel:      cell.ImpactLevel,
			RiskLevel:        cell.RiskLevel.String(),
			RiskScore:        cell.RiskScore,
			Color:            cell.Color,
			Action:           cell.Action.String(),
		})
	}
	return resp
}

func toScaleEntryResponses(entries []model.ScaleEntry) []scaleEntryResponse {
	resps := make([]scaleEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := scaleEntryResponse{
			Level:       e.Level,
			Name:        e.Name,
			Min:         e.Min,
			Max:         e.Max,
			Description: e.Description,
		}
		if math.IsInf(e.Max, 1) {
			resp.Max = 0
			resp.Unbounded = true
		}
		resps = append(resps, resp)
	}
	return resps
}
