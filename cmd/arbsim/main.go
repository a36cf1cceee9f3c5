package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "arbsim"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Multi-venue crypto arbitrage simulator",
		Version: version,
		Long: `arbsim runs a simulated cross-venue arbitrage scanner: it tracks a
normalized order book per venue, evaluates every venue pair for a
profitable spread net of fees and transfer costs, and optionally
simulates the resulting trade against a per-venue paper wallet.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulator and expose its HTTP/websocket API",
		Long:  "Starts feed adapters, the arbitrage engine, the async persistence worker, and the HTTP API; runs until interrupted",
		RunE:  runServe,
	}
	serveCmd.Flags().String("functional-config", "", "Path to functional JSON config (defaults baked in if omitted)")
	serveCmd.Flags().String("tuning-config", "", "Path to operational tuning YAML config (defaults baked in if omitted)")
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP API bind host")
	serveCmd.Flags().Int("port", 8090, "HTTP API bind port")
	serveCmd.Flags().String("db-driver", "sqlite", "Persistence driver: sqlite|postgres")
	serveCmd.Flags().String("db-dsn", "arbsim.db", "Database DSN (sqlite file path or postgres connection string)")
	serveCmd.Flags().String("redis-addr", "", "Optional Redis address for opportunity dedup (disabled if empty)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print a one-shot wallet and spread snapshot from a running instance",
		Long:  "Polls a running arbsim serve instance's /snapshot endpoint and renders it as a table",
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().String("addr", "http://127.0.0.1:8090", "Base URL of a running arbsim serve instance")

	rebalanceCmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Run one quote-rebalance pass and print the report",
		Long:  "Builds the configured venue wallets and runs the engine's quote-rebalance routine directly, printing the resulting report (spec.md §4.5)",
		RunE:  runRebalance,
	}
	rebalanceCmd.Flags().String("functional-config", "", "Path to functional JSON config (defaults baked in if omitted)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(rebalanceCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
