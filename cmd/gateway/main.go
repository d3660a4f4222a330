// Command gateway runs the exchange simulator: one TCP listener per
// enabled protocol in SPEC_FULL.md §4 (FIX, OUCH 4.2/5.0, iLink3,
// Optiq, Pillar), sharing a single order registry, fill engine and
// dispatcher underneath. Generalizes cmd_teacher_ref/server/main.go's
// single-binary, signal-driven Server into a multi-protocol gateway
// built on a cobra root command rather than the teacher's flag.FlagSet.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/gateway"
	"github.com/marketsim/exchange-sim/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Multi-protocol institutional exchange simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (optional; EXCHANGE_SIM_* env vars and defaults fill in the rest)")
	return cmd
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	log := logging.New("gateway")
	log.Info("starting gateway", "journal_dir", cfg.JournalDir, "fill_seed", cfg.FillSeed)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gw := gateway.New(cfg, log)
	return gw.Run(ctx)
}
