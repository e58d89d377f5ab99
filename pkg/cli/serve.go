package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/moirai/pkg/cli/config"
	httpctrl "github.com/secmon-lab/moirai/pkg/controller/http"
	"github.com/secmon-lab/moirai/pkg/usecase"
	"github.com/secmon-lab/moirai/pkg/utils/logging"
	"github.com/secmon-lab/moirai/pkg/utils/safe"
)

func cmdServe() *cli.Command {
	var addr string
	var matrixConfigPath string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MOIRAI_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "matrix-config",
			Usage:       "Path to a TOML matrix configuration installed as the organization default at startup",
			Sources:     cli.EnvVars("MOIRAI_MATRIX_CONFIG"),
			Destination: &matrixConfigPath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)

			if matrixConfigPath != "" {
				if err := installMatrix(ctx, uc, matrixConfigPath); err != nil {
					return err
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// installMatrix loads a matrix configuration and promotes it to the default
// slot of its organization
func installMatrix(ctx context.Context, uc *usecase.UseCases, path string) error {
	cfg, err := config.LoadMatrixConfig(path)
	if err != nil {
		return err
	}

	matrix, err := cfg.ToModel()
	if err != nil {
		return err
	}

	created, err := uc.Matrix.CreateMatrix(ctx, matrix)
	if err != nil {
		return goerr.Wrap(err, "failed to install matrix configuration", goerr.V("path", path))
	}

	if _, err := uc.Matrix.ActivateDefault(ctx, created.OrganizationID, created.ID); err != nil {
		return goerr.Wrap(err, "failed to activate installed matrix", goerr.V("path", path))
	}

	logging.Default().Info("Installed default matrix",
		"path", path,
		"matrix_id", created.ID,
		"organization_id", created.OrganizationID,
	)
	return nil
}
