package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

func TestNewMatrixPosition(t *testing.T) {
	cases := []struct {
		name        string
		probability float64
		impact      float64
		wantProb    int
		wantImpact  int
		wantPos     string
		wantScore   int
	}{
		{"floor clamps to level one", 0.0, 0.0, 1, 1, "11", 1},
		{"boundary stays in lower level", 0.2, 0.2, 1, 1, "11", 1},
		{"just above boundary moves up", 0.21, 0.41, 2, 3, "23", 6},
		{"center of the matrix", 0.6, 0.5, 3, 3, "33", 9},
		{"ceiling clamps to level five", 1.0, 1.0, 5, 5, "55", 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := model.NewMatrixPosition(tc.probability, tc.impact)
			gt.Number(t, pos.ProbabilityLevel).Equal(tc.wantProb)
			gt.Number(t, pos.ImpactLevel).Equal(tc.wantImpact)
			gt.Value(t, pos.Position).Equal(tc.wantPos)
			gt.Number(t, pos.RiskScore).Equal(tc.wantScore)
		})
	}
}

func TestResidualRisk(t *testing.T) {
	t.Run("no controls", func(t *testing.T) {
		gt.Number(t, model.ResidualRisk(0.4, nil)).Equal(0.4)
	})

	t.Run("controls multiply", func(t *testing.T) {
		controls := []model.AppliedControl{
			{Name: "waf", Effectiveness: 0.5},
			{Name: "mfa", Effectiveness: 0.5},
		}
		gt.Number(t, model.ResidualRisk(0.4, controls)).Equal(0.1)
	})

	t.Run("effectiveness is clamped", func(t *testing.T) {
		controls := []model.AppliedControl{{Name: "perfect", Effectiveness: 1.5}}
		gt.Number(t, model.ResidualRisk(0.4, controls)).Equal(0.0)

		controls = []model.AppliedControl{{Name: "broken", Effectiveness: -0.2}}
		gt.Number(t, model.ResidualRisk(0.4, controls)).Equal(0.4)
	})
}

func TestRiskValidate(t *testing.T) {
	valid := func() *model.Risk {
		return &model.Risk{
			OrganizationID:  testOrgID,
			AssetID:         types.NewAssetID(),
			ThreatID:        types.NewThreatID(),
			VulnerabilityID: types.NewVulnerabilityID(),
			Calculation: model.Calculation{
				ThreatProbability:  0.6,
				VulnerabilityLevel: 0.8,
				AggregatedImpact:   0.5,
				BaseRisk:           0.24,
				AdjustedRisk:       0.3,
			},
			MatrixPosition: model.NewMatrixPosition(0.6, 0.5),
		}
	}

	gt.NoError(t, valid().Validate())

	t.Run("probability out of range", func(t *testing.T) {
		r := valid()
		r.Calculation.ThreatProbability = 1.2
		gt.Error(t, r.Validate())
	})

	t.Run("position string mismatch", func(t *testing.T) {
		r := valid()
		r.MatrixPosition.Position = "55"
		gt.Error(t, r.Validate())
	})

	t.Run("missing references", func(t *testing.T) {
		r := valid()
		r.AssetID = ""
		gt.Error(t, r.Validate())
	})
}
