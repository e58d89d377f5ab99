package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/secmon-lab/moirai/pkg/controller/http"
	"github.com/secmon-lab/moirai/pkg/repository/memory"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

const testOrgID = "acme"

func newTestServer() *httpctrl.Server {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithSamplerFactory(func() *usecase.Sampler {
		return usecase.NewSeededSampler(11, 13)
	}))
	return httpctrl.New(uc)
}

func doJSON(t *testing.T, srv *httpctrl.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), v)).Required()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Body.String()).Equal("OK")
}

func TestRiskLifecycle(t *testing.T) {
	srv := newTestServer()

	// Matrix first: risk creation requires an active default
	rec := doJSON(t, srv, http.MethodPost, "/api/organizations/"+testOrgID+"/matrices/generate", nil)
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	rec = doJSON(t, srv, http.MethodPost, "/api/assets", map[string]any{
		"organization_id": testOrgID,
		"name":            "billing-db",
		"type":            "server",
		"criticality":     "low",
		"exposure":        "partner",
		"economic_value":  100000,
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var asset struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &asset)
	gt.Value(t, asset.ID).NotEqual("")

	rec = doJSON(t, srv, http.MethodGet, "/api/assets/"+asset.ID, nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodPost, "/api/threats", map[string]any{
		"name":                   "ransomware",
		"category":               "malware",
		"base_probability":       0.6,
		"susceptible_asset_type": []string{"server"},
		"geo_relevance":          "medium",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var threat struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &threat)

	rec = doJSON(t, srv, http.MethodPost, "/api/vulnerabilities", map[string]any{
		"asset_id":          asset.ID,
		"name":              "unpatched smb",
		"level":             0.8,
		"exploit_maturity":  "functional",
		"remediation_level": "official_fix",
		"report_confidence": "reasonable",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var vuln struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &vuln)

	triad := map[string]any{
		"asset_id":         asset.ID,
		"threat_id":        threat.ID,
		"vulnerability_id": vuln.ID,
		"organization_id":  testOrgID,
		"created_by":       "analyst-1",
	}

	t.Run("calculate without persisting", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/risks/calculate", triad)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var calc struct {
			BaseRisk     float64 `json:"base_risk"`
			AdjustedRisk float64 `json:"adjusted_risk"`
		}
		decodeBody(t, rec, &calc)
		gt.Number(t, calc.BaseRisk).Greater(0)
		gt.Number(t, calc.AdjustedRisk).Greater(calc.BaseRisk)
	})

	rec = doJSON(t, srv, http.MethodPost, "/api/risks", triad)
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var risk struct {
		ID             int64  `json:"id"`
		RiskLevel      string `json:"risk_level"`
		Revision       int64  `json:"revision"`
		MatrixPosition struct {
			Position string `json:"position"`
		} `json:"matrix_position"`
	}
	decodeBody(t, rec, &risk)
	gt.Number(t, risk.ID).Equal(int64(1))
	gt.Number(t, risk.Revision).Equal(int64(1))
	gt.Value(t, risk.MatrixPosition.Position).Equal("33")
	gt.Value(t, risk.RiskLevel).Equal("medium")

	t.Run("get and list", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/risks/1", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		rec = doJSON(t, srv, http.MethodGet, "/api/organizations/"+testOrgID+"/risks", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var list struct {
			Risks []json.RawMessage `json:"risks"`
		}
		decodeBody(t, rec, &list)
		gt.Array(t, list.Risks).Length(1)
	})

	t.Run("treatment", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/risks/1/treatment", map[string]any{
			"strategy": "mitigate",
			"status":   "in_progress",
			"controls": []map[string]any{
				{"name": "network segmentation", "effectiveness": 0.5},
			},
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var treated struct {
			Treatment struct {
				Strategy     string  `json:"strategy"`
				ResidualRisk float64 `json:"residual_risk"`
			} `json:"treatment"`
		}
		decodeBody(t, rec, &treated)
		gt.Value(t, treated.Treatment.Strategy).Equal("mitigate")
		gt.Number(t, treated.Treatment.ResidualRisk).Greater(0)
	})

	t.Run("monte carlo simulation", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/risks/1/simulate", map[string]any{
			"iterations": 1000,
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var sim struct {
			Iterations int               `json:"iterations"`
			Histogram  []json.RawMessage `json:"histogram"`
		}
		decodeBody(t, rec, &sim)
		gt.Number(t, sim.Iterations).Equal(1000)
		gt.Array(t, sim.Histogram).Length(20)
	})

	t.Run("value at risk", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/organizations/"+testOrgID+"/var", map[string]any{
			"confidence_level":  0.95,
			"time_horizon_days": 365,
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var result struct {
			Iterations int `json:"iterations"`
		}
		decodeBody(t, rec, &result)
		gt.Number(t, result.Iterations).Equal(10000)
	})

	t.Run("scenario analysis", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/organizations/"+testOrgID+"/scenarios", map[string]any{
			"scenarios": []map[string]any{
				{"name": "baseline", "probability_multiplier": 1, "impact_multiplier": 1},
			},
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/organizations/"+testOrgID+"/dashboard", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var dashboard struct {
			TotalRisks int               `json:"total_risks"`
			TopRisks   []json.RawMessage `json:"top_risks"`
		}
		decodeBody(t, rec, &dashboard)
		gt.Number(t, dashboard.TotalRisks).Equal(1)
		gt.Array(t, dashboard.TopRisks).Length(1)
	})

	t.Run("default matrix is retrievable", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/organizations/"+testOrgID+"/matrices/default", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, "/api/risks/1", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNoContent)

		rec = doJSON(t, srv, http.MethodGet, "/api/risks/1", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer()

	t.Run("unknown risk yields 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/risks/999", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("malformed risk ID yields 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/risks/not-a-number", nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("invalid body yields 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/risks", bytes.NewReader([]byte("{broken")))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("missing default matrix yields 422", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/risks", map[string]any{
			"asset_id":         "b2c9b8ee-9c2f-4f4e-8f17-2b0aa1f0a111",
			"threat_id":        "b2c9b8ee-9c2f-4f4e-8f17-2b0aa1f0a222",
			"vulnerability_id": "b2c9b8ee-9c2f-4f4e-8f17-2b0aa1f0a333",
			"organization_id":  testOrgID,
		})
		gt.Number(t, rec.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("invalid asset yields 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/assets", map[string]any{
			"organization_id": testOrgID,
			"name":            "",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}
