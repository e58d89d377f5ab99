package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/moirai/pkg/cli/config"
)

func cmdValidate() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate matrix configuration files",
		ArgsUsage: "<matrix.toml> [...]",
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one configuration file is required")
			}

			ok := color.New(color.FgGreen, color.Bold)
			bad := color.New(color.FgRed, color.Bold)
			detail := color.New(color.FgYellow)

			failed := 0
			for _, path := range paths {
				cfg, err := config.LoadMatrixConfig(path)
				if err != nil {
					bad.Printf("✗ %s\n", path)
					detail.Printf("  %s\n", err.Error())
					failed++
					continue
				}

				matrix, err := cfg.ToModel()
				if err != nil {
					bad.Printf("✗ %s\n", path)
					detail.Printf("  %s\n", err.Error())
					failed++
					continue
				}

				violations := matrix.Validate()
				if len(violations) > 0 {
					bad.Printf("✗ %s\n", path)
					for _, v := range violations {
						detail.Printf("  %s\n", v.String())
					}
					failed++
					continue
				}

				ok.Printf("✓ %s\n", path)
				fmt.Printf("  matrix %q: %dx%d levels, %d cells, %d escalation rules\n",
					matrix.Name,
					matrix.ProbabilityLevels, matrix.ImpactLevels,
					len(matrix.Cells), len(matrix.EscalationRules),
				)
			}

			if failed > 0 {
				return goerr.New("validation failed",
					goerr.V("failed", failed), goerr.V("total", len(paths)))
			}
			return nil
		},
	}
}
