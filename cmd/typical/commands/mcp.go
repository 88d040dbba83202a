package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typical/internal/mcp"
	"github.com/Sumatoshi-tech/typical/internal/observability"
	"github.com/Sumatoshi-tech/typical/internal/runner"
	"github.com/Sumatoshi-tech/typical/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool:
  - typical_summarize: statistics and typical points of a batch of weighted points

With --metrics-addr, /healthz, /readyz and Prometheus /metrics are served over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cobraCmd)
			if err != nil {
				return err
			}

			if debug {
				cfg.Logging.Level = "debug"
			}

			if metricsAddr == "" {
				metricsAddr = cfg.Telemetry.PrometheusAddr
			}

			providers, err := initObservability(cfg, observability.ModeMCP, metricsAddr != "")
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			limit, err := cfg.Input.Limit()
			if err != nil {
				return err
			}

			srv, err := newMCPServer(providers, limit)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				diag, diagErr := observability.NewDiagnosticsServer(metricsAddr, providers.MetricsHandler, providers.Logger)
				if diagErr != nil {
					return diagErr
				}

				defer func() {
					closeErr := diag.Close(context.Background())
					if closeErr != nil {
						providers.Logger.Warn("diagnostics shutdown failed", "error", closeErr)
					}
				}()
			}

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve health and Prometheus metrics on this address (e.g. ':9464')")

	return cmd
}

func newMCPServer(providers observability.Providers, maxPoints int) (*mcp.Server, error) {
	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create red metrics: %w", err)
	}

	summaryMetrics, err := observability.NewSummaryMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create summary metrics: %w", err)
	}

	run := runner.New(runner.Deps{Metrics: summaryMetrics, Tracer: providers.Tracer, Logger: providers.Logger})

	return mcp.NewServer(mcp.ServerDeps{
		Logger:  providers.Logger,
		Metrics: red,
		Tracer:  providers.Tracer,
		Runner:  run,
		Version: version.Version,
		Limits:  mcp.Limits{MaxPoints: maxPoints},
	}), nil
}
