package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

func TestRiskLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  types.RiskLevel
	}{
		{1, types.RiskLevelVeryLow},
		{4, types.RiskLevelVeryLow},
		{5, types.RiskLevelLow},
		{8, types.RiskLevelLow},
		{9, types.RiskLevelMedium},
		{12, types.RiskLevelMedium},
		{13, types.RiskLevelHigh},
		{16, types.RiskLevelHigh},
		{17, types.RiskLevelCritical},
		{25, types.RiskLevelCritical},
	}

	for _, tc := range cases {
		gt.Value(t, types.RiskLevelForScore(tc.score)).Equal(tc.want)
	}
}

func TestRiskLevelSeverityOrder(t *testing.T) {
	levels := types.AllRiskLevels()
	for i := 1; i < len(levels); i++ {
		gt.Number(t, levels[i].Severity()).Greater(levels[i-1].Severity())
	}
}

func TestParseRiskLevel(t *testing.T) {
	level, err := types.ParseRiskLevel("critical")
	gt.NoError(t, err).Required()
	gt.Value(t, level).Equal(types.RiskLevelCritical)

	_, err = types.ParseRiskLevel("catastrophic")
	gt.Error(t, err)
}
