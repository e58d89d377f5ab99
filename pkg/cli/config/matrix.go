package config

import (
	"math"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// MatrixConfig is the TOML representation of a risk matrix. Cells may be
// omitted; they are then generated from the level product and the standard
// score breakpoints.
type MatrixConfig struct {
	Name              string           `toml:"name"`
	OrganizationID    string           `toml:"organization_id"`
	Version           int              `toml:"version"`
	ProbabilityLevels int              `toml:"probability_levels"`
	ImpactLevels      int              `toml:"impact_levels"`
	Probability       []ScaleEntry     `toml:"probability"`
	Impact            []ScaleEntry     `toml:"impact"`
	Cells             []Cell           `toml:"cell"`
	Escalations       []EscalationRule `toml:"escalation"`
}

// ScaleEntry represents one scale level configuration
type ScaleEntry struct {
	Level       int     `toml:"level"`
	Name        string  `toml:"name"`
	Min         float64 `toml:"min"`
	Max         float64 `toml:"max"`
	Unbounded   bool    `toml:"unbounded"`
	Description string  `toml:"description"`
}

// Cell represents one explicit matrix cell configuration
type Cell struct {
	Probability int    `toml:"probability"`
	Impact      int    `toml:"impact"`
	RiskLevel   string `toml:"risk_level"`
	Color       string `toml:"color"`
	Action      string `toml:"action"`
}

// EscalationRule represents one escalation rule configuration
type EscalationRule struct {
	Name       string   `toml:"name"`
	RiskLevels []string `toml:"risk_levels"`
	MinScore   *int     `toml:"min_score"`
	MaxScore   *int     `toml:"max_score"`
	Actions    []string `toml:"actions"`
}

// LoadMatrixConfig reads and parses a matrix configuration file
func LoadMatrixConfig(path string) (*MatrixConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(ErrConfigNotFound, "failed to read matrix configuration",
			goerr.V(ConfigPathKey, path))
	}

	var cfg MatrixConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse matrix configuration",
			goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}

// ToModel converts the configuration into a domain matrix. The result still
// needs model-level validation before activation.
func (c *MatrixConfig) ToModel() (*model.RiskMatrix, error) {
	orgID := types.OrgID(c.OrganizationID)
	if err := orgID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid organization ID",
			goerr.V("organization_id", c.OrganizationID))
	}

	version := c.Version
	if version == 0 {
		version = 1
	}

	m := &model.RiskMatrix{
		ID:                types.NewMatrixID(),
		OrganizationID:    orgID,
		Name:              c.Name,
		Version:           version,
		ProbabilityLevels: c.ProbabilityLevels,
		ImpactLevels:      c.ImpactLevels,
		ProbabilityScale:  toModelScale(c.Probability),
		ImpactScale:       toModelScale(c.Impact),
		IsActive:          true,
	}

	if len(c.Cells) > 0 {
		explicit := make(map[[2]int]Cell, len(c.Cells))
		for _, cell := range c.Cells {
			explicit[[2]int{cell.Probability, cell.Impact}] = cell
		}
		for p := 1; p <= c.ProbabilityLevels; p++ {
			for i := 1; i <= c.ImpactLevels; i++ {
				score := p * i
				level := types.RiskLevelForScore(float64(score))
				action := ""
				color := ""
				if cell, ok := explicit[[2]int{p, i}]; ok {
					level = types.RiskLevel(cell.RiskLevel)
					action = cell.Action
					color = cell.Color
				}
				modelCell := model.MatrixCell{
					ProbabilityLevel: p,
					ImpactLevel:      i,
					RiskLevel:        level,
					RiskScore:        score,
				}
				if action != "" {
					modelCell.Action = types.RecommendedAction(action)
				} else {
					modelCell.Action = model.DefaultActionForLevel(level)
				}
				if color != "" {
					modelCell.Color = color
				} else {
					modelCell.Color = model.DefaultColorForLevel(level)
				}
				m.Cells = append(m.Cells, modelCell)
			}
		}
	} else {
		generated := model.GenerateDefaultMatrix(orgID, c.ProbabilityLevels, c.ImpactLevels)
		m.Cells = generated.Cells
		m.Tolerance = generated.Tolerance
		if len(m.ProbabilityScale) == 0 {
			m.ProbabilityScale = generated.ProbabilityScale
		}
		if len(m.ImpactScale) == 0 {
			m.ImpactScale = generated.ImpactScale
		}
	}

	for _, rule := range c.Escalations {
		modelRule := model.EscalationRule{
			Name: rule.Name,
			Condition: model.EscalationCondition{
				MinScore: rule.MinScore,
				MaxScore: rule.MaxScore,
			},
			Actions: rule.Actions,
		}
		for _, level := range rule.RiskLevels {
			modelRule.Condition.RiskLevels = append(modelRule.Condition.RiskLevels, types.RiskLevel(level))
		}
		m.EscalationRules = append(m.EscalationRules, modelRule)
	}

	return m, nil
}

func toModelScale(entries []ScaleEntry) []model.ScaleEntry {
	scale := make([]model.ScaleEntry, 0, len(entries))
	for _, e := range entries {
		entry := model.ScaleEntry{
			Level:       e.Level,
			Name:        e.Name,
			Min:         e.Min,
			Max:         e.Max,
			Description: e.Description,
		}
		if e.Unbounded {
			entry.Max = math.Inf(1)
		}
		scale = append(scale, entry)
	}
	return scale
}
