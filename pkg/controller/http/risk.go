package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

type riskRequest struct {
	AssetID         string `json:"asset_id"`
	ThreatID        string `json:"threat_id"`
	VulnerabilityID string `json:"vulnerability_id"`
	OrganizationID  string `json:"organization_id"`
	CreatedBy       string `json:"created_by,omitempty"`
}

func riskIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "riskID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(usecase.ErrValidation, "invalid risk ID", goerr.V("raw", raw))
	}
	return id, nil
}

func (s *Server) createRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	risk, err := s.uc.Risk.CreateCalculatedRisk(ctx,
		types.AssetID(req.AssetID),
		types.ThreatID(req.ThreatID),
		types.VulnerabilityID(req.VulnerabilityID),
		types.OrgID(req.OrganizationID),
		req.CreatedBy,
	)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toRiskResponse(risk))
}

func (s *Server) calculateRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	calc, err := s.uc.Risk.CalculateBaseRisk(ctx,
		types.AssetID(req.AssetID),
		types.ThreatID(req.ThreatID),
		types.VulnerabilityID(req.VulnerabilityID),
		types.OrgID(req.OrganizationID),
	)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toCalculationResponse(*calc))
}

func (s *Server) getRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := riskIDParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	risk, err := s.uc.Repository().Risk().Get(ctx, id)
	if err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrNotFound, "risk not found", goerr.V(usecase.RiskIDKey, id)))
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) listRisks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := types.OrgID(chi.URLParam(r, "orgID"))
	risks, err := s.uc.Repository().Risk().List(ctx, orgID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]*riskResponse, 0, len(risks))
	for _, risk := range risks {
		resp = append(resp, toRiskResponse(risk))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"risks": resp})
}

func (s *Server) deleteRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := riskIDParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	if err := s.uc.Repository().Risk().Delete(ctx, id); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrNotFound, "risk not found", goerr.V(usecase.RiskIDKey, id)))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recalculateRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := riskIDParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	risk, err := s.uc.Risk.RecalculateRisk(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRiskResponse(risk))
}

type treatmentRequest struct {
	Strategy string `json:"strategy"`
	Status   string `json:"status"`
	Controls []struct {
		Name          string  `json:"name"`
		Effectiveness float64 `json:"effectiveness"`
	} `json:"controls,omitempty"`
}

func (s *Server) applyTreatment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := riskIDParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var req treatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	strategy, err := types.ParseTreatmentStrategy(req.Strategy)
	if err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid treatment strategy", goerr.V("strategy", req.Strategy)))
		return
	}

	controls := make([]model.AppliedControl, 0, len(req.Controls))
	for _, c := range req.Controls {
		controls = append(controls, model.AppliedControl{
			Name:          c.Name,
			Effectiveness: c.Effectiveness,
		})
	}

	risk, err := s.uc.Risk.ApplyTreatment(ctx, id, strategy, types.TreatmentStatus(req.Status), controls)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRiskResponse(risk))
}

type escalationRuleResponse struct {
	Name       string   `json:"name"`
	RiskLevels []string `json:"risk_levels,omitempty"`
	MinScore   *int     `json:"min_score,omitempty"`
	MaxScore   *int     `json:"max_score,omitempty"`
	Actions    []string `json:"actions"`
}

func (s *Server) matchedEscalations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := riskIDParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	rules, err := s.uc.Risk.MatchedEscalations(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]escalationRuleResponse, 0, len(rules))
	for _, rule := range rules {
		ruleResp := escalationRuleResponse{
			Name:     rule.Name,
			MinScore: rule.Condition.MinScore,
			MaxScore: rule.Condition.MaxScore,
			Actions:  rule.Actions,
		}
		for _, level := range rule.Condition.RiskLevels {
			ruleResp.RiskLevels = append(ruleResp.RiskLevels, level.String())
		}
		resp = append(resp, ruleResp)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"escalations": resp})
}
