package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

type assetRequest struct {
	ID               string             `json:"id,omitempty"`
	OrganizationID   string             `json:"organization_id"`
	Name             string             `json:"name"`
	Type             string             `json:"type"`
	BusinessFunction string             `json:"business_function"`
	Criticality      string             `json:"criticality"`
	Exposure         string             `json:"exposure"`
	EconomicValue    float64            `json:"economic_value"`
	Valuation        map[string]float64 `json:"valuation,omitempty"`
}

type assetResponse struct {
	ID               string             `json:"id"`
	OrganizationID   string             `json:"organization_id"`
	Name             string             `json:"name"`
	Type             string             `json:"type"`
	BusinessFunction string             `json:"business_function"`
	Criticality      string             `json:"criticality"`
	Exposure         string             `json:"exposure"`
	EconomicValue    float64            `json:"economic_value"`
	Valuation        map[string]float64 `json:"valuation,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func toAssetResponse(a *model.Asset) *assetResponse {
	resp := &assetResponse{
		ID:               a.ID.String(),
		OrganizationID:   a.OrganizationID.String(),
		Name:             a.Name,
		Type:             a.Type,
		BusinessFunction: a.BusinessFunction,
		Criticality:      a.Criticality.String(),
		Exposure:         a.Exposure.String(),
		EconomicValue:    a.EconomicValue,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Valuation != nil {
		resp.Valuation = make(map[string]float64, len(a.Valuation))
		for dim, v := range a.Valuation {
			resp.Valuation[dim.String()] = v
		}
	}
	return resp
}

func (s *Server) putAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	asset := &model.Asset{
		ID:               types.AssetID(req.ID),
		OrganizationID:   types.OrgID(req.OrganizationID),
		Name:             req.Name,
		Type:             req.Type,
		BusinessFunction: req.BusinessFunction,
		Criticality:      types.Criticality(req.Criticality),
		Exposure:         types.Exposure(req.Exposure),
		EconomicValue:    req.EconomicValue,
	}
	if asset.ID == "" {
		asset.ID = types.NewAssetID()
	}
	if req.Valuation != nil {
		asset.Valuation = make(map[types.Dimension]float64, len(req.Valuation))
		for dim, v := range req.Valuation {
			asset.Valuation[types.Dimension(dim)] = v
		}
	}

	if err := asset.Validate(); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid asset", goerr.V("cause", err.Error())))
		return
	}

	if err := s.uc.Repository().Asset().Put(ctx, asset); err != nil {
		handleError(ctx, w, err)
		return
	}

	stored, err := s.uc.Repository().Asset().Get(ctx, asset.ID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toAssetResponse(stored))
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := types.AssetID(chi.URLParam(r, "assetID"))
	asset, err := s.uc.Repository().Asset().Get(ctx, id)
	if err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrNotFound, "asset not found", goerr.V(usecase.AssetIDKey, id)))
		return
	}

	respondJSON(ctx, w, http.StatusOK, toAssetResponse(asset))
}

type threatRequest struct {
	ID                   string   `json:"id,omitempty"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	BaseProbability      float64  `json:"base_probability"`
	SusceptibleAssetType []string `json:"susceptible_asset_type"`
	GeoRelevance         string   `json:"geo_relevance"`
	SeasonalPeakMonths   []int    `json:"seasonal_peak_months,omitempty"`
	SeasonalMultiplier   float64  `json:"seasonal_multiplier,omitempty"`
}

func (s *Server) putThreat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req threatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	threat := &model.Threat{
		ID:                   types.ThreatID(req.ID),
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		BaseProbability:      req.BaseProbability,
		SusceptibleAssetType: req.SusceptibleAssetType,
		GeoRelevance:         types.GeoRelevance(req.GeoRelevance),
	}
	if threat.ID == "" {
		threat.ID = types.NewThreatID()
	}
	if len(req.SeasonalPeakMonths) > 0 {
		seasonal := &model.SeasonalPattern{Multiplier: req.SeasonalMultiplier}
		for _, m := range req.SeasonalPeakMonths {
			seasonal.PeakMonths = append(seasonal.PeakMonths, time.Month(m))
		}
		threat.Seasonal = seasonal
	}

	if err := threat.Validate(); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid threat", goerr.V("cause", err.Error())))
		return
	}

	if err := s.uc.Repository().Threat().Put(ctx, threat); err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"id": threat.ID.String()})
}

type vulnerabilityRequest struct {
	ID               string             `json:"id,omitempty"`
	AssetID          string             `json:"asset_id"`
	Name             string             `json:"name"`
	Level            float64            `json:"level"`
	DimensionImpact  map[string]float64 `json:"dimension_impact,omitempty"`
	ExploitMaturity  string             `json:"exploit_maturity"`
	RemediationLevel string             `json:"remediation_level"`
	ReportConfidence string             `json:"report_confidence"`
	CVEID            string             `json:"cve_id,omitempty"`
	CVEPublishedAt   *time.Time         `json:"cve_published_at,omitempty"`
}

func (s *Server) putVulnerability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req vulnerabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid request body"))
		return
	}

	vuln := &model.Vulnerability{
		ID:               types.VulnerabilityID(req.ID),
		AssetID:          types.AssetID(req.AssetID),
		Name:             req.Name,
		Level:            req.Level,
		ExploitMaturity:  types.ExploitMaturity(req.ExploitMaturity),
		RemediationLevel: types.RemediationLevel(req.RemediationLevel),
		ReportConfidence: types.ReportConfidence(req.ReportConfidence),
		CVEID:            req.CVEID,
		CVEPublishedAt:   req.CVEPublishedAt,
	}
	if vuln.ID == "" {
		vuln.ID = types.NewVulnerabilityID()
	}
	if req.DimensionImpact != nil {
		vuln.DimensionImpact = make(map[types.Dimension]float64, len(req.DimensionImpact))
		for dim, v := range req.DimensionImpact {
			vuln.DimensionImpact[types.Dimension(dim)] = v
		}
	}

	if err := vuln.Validate(); err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrValidation, "invalid vulnerability", goerr.V("cause", err.Error())))
		return
	}

	if err := s.uc.Repository().Vulnerability().Put(ctx, vuln); err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"id": vuln.ID.String()})
}
