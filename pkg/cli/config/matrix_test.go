package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/cli/config"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

const matrixTOML = `
name = "corporate"
organization_id = "acme"
version = 2
probability_levels = 5
impact_levels = 5

[[probability]]
level = 1
name = "rare"
min = 0.0
max = 0.2

[[probability]]
level = 2
name = "unlikely"
min = 0.2
max = 0.4

[[probability]]
level = 3
name = "possible"
min = 0.4
max = 0.6

[[probability]]
level = 4
name = "likely"
min = 0.6
max = 0.8

[[probability]]
level = 5
name = "almost certain"
min = 0.8
max = 1.0

[[impact]]
level = 1
name = "negligible"
min = 0.0
max = 10000.0

[[impact]]
level = 2
name = "minor"
min = 10000.0
max = 100000.0

[[impact]]
level = 3
name = "moderate"
min = 100000.0
max = 1000000.0

[[impact]]
level = 4
name = "major"
min = 1000000.0
max = 10000000.0

[[impact]]
level = 5
name = "catastrophic"
min = 10000000.0
unbounded = true

[[cell]]
probability = 5
impact = 5
risk_level = "critical"
color = "#b71c1c"
action = "avoid"

[[escalation]]
name = "board-review"
risk_levels = ["critical"]
min_score = 20
actions = ["email", "ticket"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matrix.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadMatrixConfig(t *testing.T) {
	cfg, err := config.LoadMatrixConfig(writeConfig(t, matrixTOML))
	gt.NoError(t, err).Required()

	gt.Value(t, cfg.Name).Equal("corporate")
	gt.Value(t, cfg.OrganizationID).Equal("acme")
	gt.Number(t, cfg.Version).Equal(2)
	gt.Array(t, cfg.Probability).Length(5)
	gt.Array(t, cfg.Impact).Length(5)
	gt.Array(t, cfg.Cells).Length(1)
	gt.Array(t, cfg.Escalations).Length(1)
}

func TestLoadMatrixConfigMissingFile(t *testing.T) {
	_, err := config.LoadMatrixConfig(filepath.Join(t.TempDir(), "absent.toml"))
	gt.Error(t, err).Is(config.ErrConfigNotFound)
}

func TestLoadMatrixConfigInvalidTOML(t *testing.T) {
	_, err := config.LoadMatrixConfig(writeConfig(t, "name = [broken"))
	gt.Error(t, err)
}

func TestMatrixConfigToModel(t *testing.T) {
	cfg, err := config.LoadMatrixConfig(writeConfig(t, matrixTOML))
	gt.NoError(t, err).Required()

	matrix, err := cfg.ToModel()
	gt.NoError(t, err).Required()

	gt.Value(t, matrix.OrganizationID).Equal(types.OrgID("acme"))
	gt.Number(t, matrix.Version).Equal(2)
	gt.Array(t, matrix.Cells).Length(25)
	gt.Array(t, matrix.Validate()).Length(0)

	t.Run("unbounded scale becomes infinite", func(t *testing.T) {
		top := matrix.ImpactScale[len(matrix.ImpactScale)-1]
		gt.Value(t, math.IsInf(top.Max, 1)).Equal(true)
	})

	t.Run("explicit cell overrides the generated one", func(t *testing.T) {
		cell := matrix.RiskLevelAt(5, 5)
		gt.Value(t, cell).NotNil().Required()
		gt.Value(t, cell.Color).Equal("#b71c1c")
		gt.Value(t, cell.Action).Equal(types.ActionAvoid)
	})

	t.Run("generated cell falls back to defaults", func(t *testing.T) {
		cell := matrix.RiskLevelAt(1, 1)
		gt.Value(t, cell).NotNil().Required()
		gt.Value(t, cell.RiskLevel).Equal(types.RiskLevelVeryLow)
		gt.Value(t, cell.Color).NotEqual("")
	})

	t.Run("escalation rules carry over", func(t *testing.T) {
		gt.Array(t, matrix.EscalationRules).Length(1).Required()
		rule := matrix.EscalationRules[0]
		gt.Value(t, rule.Name).Equal("board-review")
		gt.Value(t, rule.Condition.MinScore).NotNil().Required()
		gt.Number(t, *rule.Condition.MinScore).Equal(20)
		gt.Array(t, rule.Actions).Length(2)
	})
}

func TestMatrixConfigToModelInvalidOrg(t *testing.T) {
	cfg := &config.MatrixConfig{Name: "broken", ProbabilityLevels: 5, ImpactLevels: 5}
	_, err := cfg.ToModel()
	gt.Error(t, err).Is(config.ErrInvalidConfig)
}
