package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

// snapshotResponse mirrors httpapi.SnapshotResponse's wire shape; kept
// local so this command doesn't import internal/httpapi just for a
// struct tag.
type snapshotResponse struct {
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Symbol      string    `json:"symbol"`
	TotalPnLUSD float64   `json:"total_pnl_usd"`
	BalanceUSD  float64   `json:"balance_usd"`
	Wallets     []struct {
		Venue        string  `json:"venue"`
		QuoteBalance float64 `json:"quote_balance_usd"`
		USDValue     float64 `json:"usd_value"`
		StatusHint   string  `json:"status_hint"`
	} `json:"wallets"`
}

// runSnapshot fetches /snapshot from a running arbsim serve instance
// and renders it as a plain table. Rendering doesn't depend on
// terminal width being available; term.IsTerminal just decides
// whether to print a machine-friendly JSON fallback when stdout isn't
// a TTY.
func runSnapshot(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	resp, err := http.Get(addr + "/snapshot")
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("snapshot request failed: %s", resp.Status)
	}

	var snap snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return json.NewEncoder(os.Stdout).Encode(snap)
	}

	fmt.Printf("symbol: %s   total pnl: $%.2f   total balance: $%.2f\n\n", snap.Symbol, snap.TotalPnLUSD, snap.BalanceUSD)

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "VENUE\tQUOTE\tUSD VALUE\tSTATUS")
	for _, wallet := range snap.Wallets {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\n", wallet.Venue, wallet.QuoteBalance, wallet.USDValue, wallet.StatusHint)
	}
	return w.Flush()
}
