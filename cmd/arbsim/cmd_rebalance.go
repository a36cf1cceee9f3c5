package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbrun/simulator/internal/arbengine"
)

// runRebalance builds the configured venues' starting wallets and
// runs one quote-rebalance pass directly against the engine, printing
// the report from spec.md §4.5. This is a local operator action, not
// a call against a running arbsim serve instance — no persistence or
// feed wiring is needed to exercise the routine.
func runRebalance(cmd *cobra.Command, args []string) error {
	functional, _, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	engineCfg := arbengine.Config{
		TradeSize:          functional.TradeSize,
		StartingBalanceUSD: functional.StartingBalanceUSD,
		Fees:               functional.Fees(),
	}
	baseAssets := uniqueBaseAssets(functional.Symbols, functional.Symbol)
	engine := arbengine.NewEngine(engineCfg, functional.Venues(), baseAssets, nil, nil)

	report := engine.RebalanceQuotes()

	fmt.Printf("transfers:        %d\n", report.Transfers)
	fmt.Printf("total moved:      $%.2f\n", report.TotalMovedUSD)
	fmt.Printf("target per venue: $%.2f\n", report.TargetPerUSD)
	fmt.Printf("transfer costs:   $%.2f\n", report.TransferCostsUSD)
	return nil
}
