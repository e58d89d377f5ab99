package model_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

const testOrgID = types.OrgID("acme")

func TestGenerateDefaultMatrix(t *testing.T) {
	m := model.GenerateDefaultMatrix(testOrgID, 5, 5)

	gt.NoError(t, m.ID.Validate()).Required()
	gt.Value(t, m.OrganizationID).Equal(testOrgID)
	gt.Number(t, len(m.Cells)).Equal(25)
	gt.Value(t, m.IsDefault).Equal(true)
	gt.Value(t, m.IsActive).Equal(true)

	gt.Number(t, len(m.Validate())).Equal(0)

	worst := m.RiskLevelAt(5, 5)
	gt.Value(t, worst).NotNil().Required()
	gt.Number(t, worst.RiskScore).Equal(25)
	gt.Value(t, worst.RiskLevel).Equal(types.RiskLevelCritical)
	gt.Value(t, worst.Action).Equal(types.ActionAvoid)

	best := m.RiskLevelAt(1, 1)
	gt.Value(t, best).NotNil().Required()
	gt.Number(t, best.RiskScore).Equal(1)
	gt.Value(t, best.RiskLevel).Equal(types.RiskLevelVeryLow)
	gt.Value(t, best.Action).Equal(types.ActionAccept)

	mid := m.RiskLevelAt(2, 5)
	gt.Value(t, mid).NotNil().Required()
	gt.Number(t, mid.RiskScore).Equal(10)
	gt.Value(t, mid.RiskLevel).Equal(types.RiskLevelMedium)

	gt.Number(t, m.Tolerance.Acceptable.MaxScore).Equal(4)
	gt.Number(t, m.Tolerance.Tolerable.MaxScore).Equal(12)
	gt.Number(t, m.Tolerance.Unacceptable.MaxScore).Equal(25)
}

func TestGenerateDefaultMatrixScales(t *testing.T) {
	m := model.GenerateDefaultMatrix(testOrgID, 5, 5)

	// Probability scale partitions [0, 1] without gaps
	gt.Number(t, len(m.ProbabilityScale)).Equal(5)
	gt.Number(t, m.ProbabilityScale[0].Min).Equal(0.0)
	gt.Number(t, m.ProbabilityScale[4].Max).Equal(1.0)

	// Impact top range is unbounded
	gt.Value(t, math.IsInf(m.ImpactScale[4].Max, 1)).Equal(true)

	gt.Number(t, m.ProbabilityScaleFor(0.0).Level).Equal(1)
	gt.Number(t, m.ProbabilityScaleFor(0.5).Level).Equal(3)
	gt.Number(t, m.ProbabilityScaleFor(1.0).Level).Equal(5)

	gt.Number(t, m.ImpactScaleFor(5000).Level).Equal(1)
	gt.Number(t, m.ImpactScaleFor(1e12).Level).Equal(5)
}

func TestMatrixValidateViolations(t *testing.T) {
	t.Run("level counts out of range", func(t *testing.T) {
		m := model.GenerateDefaultMatrix(testOrgID, 2, 8)
		violations := m.Validate()
		gt.Number(t, len(violations)).NotEqual(0)
	})

	t.Run("missing cell", func(t *testing.T) {
		m := model.GenerateDefaultMatrix(testOrgID, 5, 5)
		m.Cells = m.Cells[1:]
		violations := m.Validate()
		gt.Number(t, len(violations)).NotEqual(0)
	})

	t.Run("duplicate cell", func(t *testing.T) {
		m := model.GenerateDefaultMatrix(testOrgID, 5, 5)
		m.Cells[1] = m.Cells[0]
		violations := m.Validate()
		gt.Number(t, len(violations)).NotEqual(0)
	})

	t.Run("wrong cell score", func(t *testing.T) {
		m := model.GenerateDefaultMatrix(testOrgID, 5, 5)
		m.Cells[0].RiskScore = 7
		violations := m.Validate()
		gt.Number(t, len(violations)).NotEqual(0)
	})

	t.Run("overlapping scale ranges", func(t *testing.T) {
		m := model.GenerateDefaultMatrix(testOrgID, 5, 5)
		m.ProbabilityScale[1].Min = 0.1
		violations := m.Validate()
		gt.Number(t, len(violations)).NotEqual(0)
	})
}

func TestMatchEscalationRules(t *testing.T) {
	minScore := 17
	m := model.GenerateDefaultMatrix(testOrgID, 5, 5)
	m.EscalationRules = []model.EscalationRule{
		{
			Name: "notify-ciso",
			Condition: model.EscalationCondition{
				RiskLevels: []types.RiskLevel{types.RiskLevelCritical},
			},
			Actions: []string{"notify_ciso"},
		},
		{
			Name: "board-report",
			Condition: model.EscalationCondition{
				MinScore: &minScore,
			},
			Actions: []string{"board_report"},
		},
	}

	critical := &model.Risk{
		Classification: model.Classification{RiskLevel: types.RiskLevelCritical},
		MatrixPosition: model.MatrixPosition{RiskScore: 25},
	}
	matched := m.MatchEscalationRules(critical)
	gt.Number(t, len(matched)).Equal(2)
	gt.Value(t, matched[0].Name).Equal("notify-ciso")

	medium := &model.Risk{
		Classification: model.Classification{RiskLevel: types.RiskLevelMedium},
		MatrixPosition: model.MatrixPosition{RiskScore: 9},
	}
	gt.Number(t, len(m.MatchEscalationRules(medium))).Equal(0)
}
