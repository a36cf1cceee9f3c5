package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arbrun/simulator/internal/arbengine"
	"github.com/arbrun/simulator/internal/arbmodel"
	"github.com/arbrun/simulator/internal/config"
	"github.com/arbrun/simulator/internal/feeds"
	"github.com/arbrun/simulator/internal/httpapi"
	"github.com/arbrun/simulator/internal/inventory"
	arblog "github.com/arbrun/simulator/internal/log"
	"github.com/arbrun/simulator/internal/persistence"
)

var serveSteps = []string{"config", "persistence", "engine", "feeds", "http"}

// runServe wires every long-running component together and blocks
// until SIGINT/SIGTERM, grounded on
// cmd/cryptorun/monitor_main.go's server-goroutine-plus-signal-channel
// shutdown shape.
func runServe(cmd *cobra.Command, args []string) error {
	steps := arblog.NewStepLogger("arbsim serve", serveSteps)

	steps.StartStep("config")
	functional, tuning, err := loadServeConfig(cmd)
	if err != nil {
		steps.Fail(err.Error())
		return err
	}
	inventory.ApplyReferenceOverrides(tuning.Reference.Prices, tuning.Reference.TransferUnits)
	steps.CompleteStep()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	steps.StartStep("persistence")
	dbDriver, _ := cmd.Flags().GetString("db-driver")
	dbDSN := flagOrEnv(cmd, "db-dsn", "DATABASE_URL")
	store, err := persistence.Open(ctx, dbDriver, dbDSN)
	if err != nil {
		steps.Fail(err.Error())
		return fmt.Errorf("open persistence store: %w", err)
	}
	queue := persistence.NewQueue(ctx, store, persistence.DefaultQueueCapacity)
	defer queue.Close()

	var submitter arbengine.Submitter = queue
	if redisAddr := flagOrEnv(cmd, "redis-addr", "REDIS_URL"); redisAddr != "" {
		dedup := persistence.NewDedupCache(redis.NewClient(&redis.Options{Addr: redisAddr}), tuning.Dedup.Window)
		submitter = &dedupSubmitter{next: queue, dedup: dedup}
	}
	steps.CompleteStep()

	steps.StartStep("engine")
	baseAssets := uniqueBaseAssets(functional.Symbols, functional.Symbol)
	engineCfg := arbengine.Config{
		TradeSize:               functional.TradeSize,
		TransferCostUSD:         functional.TransferCostUSD,
		StartingBalanceUSD:      functional.StartingBalanceUSD,
		AutoSimulateExecution:   functional.AutoSimulateExecution,
		OpportunityThresholdUSD: functional.OpportunityThresholdUSD,
		Fees:                    functional.Fees(),
	}
	engine := arbengine.NewEngine(engineCfg, functional.Venues(), baseAssets, submitter, store)
	steps.CompleteStep()

	steps.StartStep("feeds")
	supervisor := feeds.NewSupervisor(engine, functional.Symbol)
	for _, fc := range functional.Feeds {
		if !fc.IsEnabled() {
			log.Info().Str("venue", fc.Venue).Msg("feed disabled, skipping")
			continue
		}
		vt := tuning.VenueOrDefault(fc.Venue)
		log.Info().
			Str("venue", fc.Venue).
			Str("kind", fc.Kind).
			Dur("ping_interval", vt.PingInterval).
			Dur("staleness_budget", vt.StalenessBudget).
			Msg("starting feed")
		supervisor.AddVenue(ctx, fc.Venue, feedFactory(fc, vt))
	}
	defer supervisor.StopAll()
	steps.CompleteStep()

	steps.StartStep("http")
	httpCfg := httpapi.DefaultServerConfig()
	if h, _ := cmd.Flags().GetString("host"); h != "" {
		httpCfg.Host = h
	}
	if p, _ := cmd.Flags().GetInt("port"); p != 0 {
		httpCfg.Port = p
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		httpCfg.CORSOrigins = splitAndTrim(origins)
	}
	server := httpapi.NewServer(httpCfg, engine, supervisor, functional.Symbol)
	steps.CompleteStep()
	steps.Finish()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		cancel()
		return fmt.Errorf("http server error: %w", err)
	}

	cancel()
	time.Sleep(200 * time.Millisecond) // let in-flight feed callbacks and the queue worker drain
	log.Info().Msg("arbsim shutdown complete")
	return nil
}

func loadServeConfig(cmd *cobra.Command) (config.Functional, config.Tuning, error) {
	functional := config.DefaultFunctional()
	if path, _ := cmd.Flags().GetString("functional-config"); path != "" {
		loaded, err := config.LoadFunctional(path)
		if err != nil {
			return config.Functional{}, config.Tuning{}, err
		}
		functional = loaded
	}

	tuning := config.DefaultTuning()
	if path, _ := cmd.Flags().GetString("tuning-config"); path != "" {
		loaded, err := config.LoadTuning(path)
		if err != nil {
			return config.Functional{}, config.Tuning{}, err
		}
		tuning = loaded
	}

	return functional, tuning, nil
}

// flagOrEnv resolves a string setting with CLI-flag-wins-if-explicit
// precedence: an explicitly passed flag always wins, otherwise the
// named environment variable is used if set, otherwise the flag's
// default value (spec.md §6 / SPEC_FULL.md's DATABASE_URL/REDIS_URL
// env vars).
func flagOrEnv(cmd *cobra.Command, flagName, envVar string) string {
	if cmd.Flags().Changed(flagName) {
		v, _ := cmd.Flags().GetString(flagName)
		return v
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	v, _ := cmd.Flags().GetString(flagName)
	return v
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaultFeedEndpoints returns the public depth-stream endpoints each
// streaming venue connects to when no override URL is configured.
func defaultFeedEndpoints(venue string) []string {
	switch venue {
	case "binance":
		return []string{"wss://stream.binance.com:9443/ws/btcusdt@depth20@100ms"}
	case "kraken":
		return []string{"wss://ws.kraken.com"}
	case "bybit":
		return []string{"wss://stream.bybit.com/v5/public/spot"}
	default:
		return nil
	}
}

// feedFactory builds the adapter constructor for one configured feed,
// threading both the functional config's per-feed fields (fee is
// consumed by functional.Fees(), not here) and the matching venue's
// operational tuning into the adapter.
func feedFactory(fc config.FeedConfig, vt config.VenueTuning) feeds.Factory {
	endpoints := defaultFeedEndpoints(fc.Venue)
	if fc.URL != "" {
		endpoints = []string{fc.URL}
	}

	at := feeds.AdapterTuning{
		DepthLevels:         fc.DepthLevels,
		PingInterval:        vt.PingInterval,
		StalenessBudget:     vt.StalenessBudget,
		BackoffFloor:        vt.Backoff.Floor,
		BackoffCeiling:      vt.Backoff.Ceiling,
		BackoffFactor:       vt.Backoff.Factor,
		CircuitMaxFailures:  vt.Circuit.MaxFailures,
		CircuitOpenDuration: vt.Circuit.OpenDuration,
	}

	switch fc.Kind {
	case config.FeedBinanceWS:
		return func(symbol string) feeds.Adapter {
			return feeds.NewBinanceAdapter(symbol, endpoints, at)
		}
	case config.FeedKrakenWS:
		return func(symbol string) feeds.Adapter {
			return feeds.NewKrakenAdapter(symbol, endpoints, at)
		}
	case config.FeedBybitWS:
		return func(symbol string) feeds.Adapter {
			return feeds.NewBybitAdapter(symbol, endpoints, at)
		}
	case config.FeedUpholdTicker:
		url := fc.URL
		return func(symbol string) feeds.Adapter { return feeds.NewPolledTickerAdapter(fc.Venue, symbol, url) }
	default: // config.FeedSimulated
		seed := venueSeed(fc.Venue)
		return func(symbol string) feeds.Adapter {
			return feeds.NewSimulatedAdapter(feeds.SimulatedConfig{
				Venue: fc.Venue, Symbol: symbol, Seed: seed,
				DepthLevels: fc.DepthLevels, VolatilityPct: fc.Volatility, PriceOffset: fc.PriceOffset,
			})
		}
	}
}

// venueSeed derives a stable per-venue simulation seed so repeated
// runs with the same venue name drift identically.
func venueSeed(venue string) int64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for _, c := range venue {
		h ^= uint64(c)
		h *= 1099511628211 // FNV-1a prime
	}
	return int64(h)
}

// dedupSubmitter suppresses opportunity submissions that repeat the
// same (symbol, buy venue, sell venue) triple within the dedup
// cache's window, passing everything else through to next unchanged.
type dedupSubmitter struct {
	next  arbengine.Submitter
	dedup *persistence.DedupCache
}

func (d *dedupSubmitter) SubmitOpportunity(o arbengine.Opportunity) {
	if d.dedup.SeenRecently(context.Background(), o.Symbol, o.BuyVenue, o.SellVenue) {
		return
	}
	d.next.SubmitOpportunity(o)
}

func (d *dedupSubmitter) SubmitTrade(t arbengine.SimulatedTrade) {
	d.next.SubmitTrade(t)
}

func uniqueBaseAssets(symbols []string, primary string) []string {
	all := symbols
	if len(all) == 0 {
		all = []string{primary}
	}
	seen := make(map[string]bool)
	var out []string
	for _, sym := range all {
		base, _ := arbmodel.Split(sym)
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, base)
	}
	return out
}
