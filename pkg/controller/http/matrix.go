package http

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

type scaleEntryRequest struct {
	Level       int     `json:"level"`
	Name        string  `json:"name"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Unbounded   bool    `json:"unbounded,omitempty"`
	Description string  `json:"description,omitempty"`
}

type matrixCellRequest struct {
	ProbabilityLevel int    `json:"probability_level"`
	ImpactLevel      int    `json:"impact_level"`
	RiskLevel        string `json:"risk_level"`
	RiskScore        int    `json:"risk_score"`
	Color            string `json:"color,omitempty"`
	Action           string `json:"action"`
}

type escalationRuleRequest struct {
	Name       string   `json:"name"`
	RiskLevels []string `json:"risk_levels,omitempty"`
	MinScore   *int     `json:"min_score,omitempty"`
	MaxScore   *int     `json:"max_score,omitempty"`
	Actions    []string `json:"actions"`
}

type matrixRequest struct {
	Name              string                  `json:"name"`
	Version           int                     `json:"version"`
	ProbabilityLevels int                     `json:"probability_levels"`
	ImpactLevels      int                     `json:"impact_levels"`
	ProbabilityScale  []scaleEntryRequest     `json:"probability_scale"`
	ImpactScale       []scaleEntryRequest     `json:"impact_scale"`
	Cells             []matrixCellRequest     `json:"cells"`
	EscalationRules   []escalationRuleRequest `json:"escalation_rules,omitempty"`
	IsDefault         bool                    `json:"is_default"`
	IsActive          bool                    `json:"is_active"`
}

func toScaleEntriesFromRequest(reqs []scaleEntryRequest) []model.ScaleEntry {
	entries := make([]model.ScaleEntry, 0, len(reqs))
	for _, req := range reqs {
		e := model.ScaleEntry{
			Level:       req.Level,
			Name:        req.Name,
			Min:         req.Min,
			Max:         req.Max,
			Description: req.Description,
		}
		if req.Unbounded {
			e.Max = math.Inf(1)
		}
		entries = append(entries, e)
	}
	return entries
}

func (req *matrixRequest) toModel(orgID types.OrgID) *model.RiskMatrix {
	m := &model.RiskMatrix{
		ID:                types.NewMatrixID(),
		OrganizationID:    orgID,
		Name:              req.Name,
		Version:           req.Version,
		ProbabilityLevels: req.ProbabilityLevels,
		ImpactLevels:      req.ImpactLevels,
		ProbabilityScale:  toScaleEntriesFromRequest(req.ProbabilityScale),
		ImpactScale:       toScaleEntriesFromRequest(req.ImpactScale),
		IsDefault:         req.IsDefault,
		IsActive:          req.IsActive,
	}
	for _, cell := range req.Cells {
		m.Cells = append(m.Cells, model.MatrixCell{
			ProbabilityLevel: cell.ProbabilityLevel,
			ImpactLevel:      cell.ImpactLevel,
			RiskLevel:        types.RiskLevel(cell.RiskLevel),
			RiskScore:        cell.RiskScore,
			Color:            cell.Color,
			Action:           types.RecommendedAction(cell.Action),
		})
	}
	for _, ruleReq := range req.EscalationRules {
		rule := model.EscalationRule{
			Name: ruleReq.Name,
			Condition: model.EscalationCondition{
				MinScore: ruleReq.MinScore,
				MaxScore: ruleReq.MaxScore,
			},
			Actions: ruleReq.Actions,
		}
		for _, level := range ruleReq.RiskLevels {
			rule.Condition.RiskLevels = append(rule.Condition.RiskLevels, types.RiskLevel(level))
		}
		m.EscalationRules = append(m.EscalationRules, rule)
	}
	return m
}

func (s *Server) createMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))

	var req matrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	created, err := s.uc.Matrix.CreateMatrix(ctx, req.toModel(orgID))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toMatrixResponse(created))
}

type generateMatrixRequest struct {
	ProbabilityLevels int `json:"probability_levels"`
	ImpactLevels      int `json:"impact_levels"`
}

func (s *Server) generateDefaultMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))

	req := generateMatrixRequest{ProbabilityLevels: 5, ImpactLevels: 5}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
			return
		}
	}

	created, err := s.uc.Matrix.GenerateDefault(ctx, orgID, req.ProbabilityLevels, req.ImpactLevels)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toMatrixResponse(created))
}

func (s *Server) getDefaultMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))
	matrix, err := s.uc.Matrix.GetDefault(ctx, orgID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toMatrixResponse(matrix))
}

func (s *Server) activateDefaultMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))
	matrixID := types.MatrixID(chi.URLParam(r, "matrixID"))

	matrix, err := s.uc.Matrix.ActivateDefault(ctx, orgID, matrixID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toMatrixResponse(matrix))
}
