package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celestiaorg/zk-age-rollup/ledger"
	"github.com/celestiaorg/zk-age-rollup/proof/groth16"
	"github.com/celestiaorg/zk-age-rollup/rollup"
	"github.com/celestiaorg/zk-age-rollup/verifier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const apiTimeout = 30 * time.Second

var runFlags = []string{
	rollup.KeyServerURL,
	rollup.KeyVerifyingKey,
	rollup.KeyLedgerPath,
	rollup.KeyAPIAddr,
	rollup.KeyCoordinatorTimeout,
}

func runCmd(v *viper.Viper, logger *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the rollup dispatch loop",
		Long: `Run the rollup dispatch loop against the coordinator at
ROLLUP_HTTP_SERVER_URL. Every advance request must carry a proof payload for
the compiled-in eligibility program. Verdicts are recorded in the local ledger
and served on the status API.

The verifying key must match the compiled-in program id, otherwise run refuses
to start. Pin the id printed by keygen at build time:

  go build -ldflags "-X github.com/celestiaorg/zk-age-rollup/verifier.programIDHex=0x..." ./cmd/age-rollup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustBindFlags(v, cmd.Flags(), runFlags...)
			cfg, err := rollup.LoadConfig(v)
			if err != nil {
				return err
			}
			return runRollup(cmd.Context(), cfg, *logger)
		},
	}

	flags := cmd.Flags()
	flags.String(rollup.KeyServerURL, "", "coordinator base URL")
	flags.String(rollup.KeyVerifyingKey, "", "path to the eligibility verifying key")
	flags.String(rollup.KeyLedgerPath, "", "path to the verdict ledger database")
	flags.String(rollup.KeyAPIAddr, "", "status API listen address, empty disables the API")
	flags.Duration(rollup.KeyCoordinatorTimeout, 0, "timeout of each coordinator call")
	return cmd
}

// loadReceiptVerifier loads the verifying key at path and refuses keys whose
// identity differs from the compiled-in eligibility program.
func loadReceiptVerifier(path string, logger zerolog.Logger) (*verifier.ReceiptVerifier, error) {
	vk, err := groth16.LoadVerifyingKey(path)
	if err != nil {
		return nil, err
	}
	capability, err := groth16.NewVerifier(vk)
	if err != nil {
		return nil, err
	}
	id, err := groth16.ProgramIDOf(vk)
	if err != nil {
		return nil, err
	}
	if id != verifier.EligibilityProgramID {
		return nil, fmt.Errorf("verifying key %s has program id %s, expected %s", path, id, verifier.EligibilityProgramID)
	}
	return verifier.New(id, capability, logger), nil
}

func runRollup(ctx context.Context, cfg rollup.Config, logger zerolog.Logger) error {
	rv, err := loadReceiptVerifier(cfg.VerifyingKey, logger)
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	loop := rollup.NewLoop(
		rollup.NewClient(cfg.ServerURL, cfg.CoordinatorTimeout),
		rv,
		logger,
		rollup.WithRecorder(store),
		rollup.WithMetrics(rollup.NewMetrics(reg)),
	)

	logger.Info().
		Str("server_url", cfg.ServerURL).
		Stringer("program_id", rv.Expected()).
		Msg("starting rollup")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(ctx)
	})
	if cfg.APIAddr != "" {
		g.Go(func() error {
			return ledger.Serve(ctx, cfg.APIAddr, ledger.NewRouter(store, reg), apiTimeout, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("rollup stopped")
		return err
	}
	logger.Info().Msg("rollup stopped")
	return nil
}
