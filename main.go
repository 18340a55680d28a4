package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/internal"
	"sjsage522/pricescout/internal/crawler"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/services/aggregator"
	"sjsage522/pricescout/services/cache"
	"sjsage522/pricescout/services/publisher"
	"sjsage522/pricescout/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCommand(a).ExecuteContext(ctx)
	a.cleanup()
	if err != nil {
		logger.Default.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// app is the state shared by every subcommand
type app struct {
	cfg     *config.Config
	deps    *internal.Dependencies
	publish bool
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pricescout",
		Short:         "Extract product data and compare prices across marketplaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&a.publish, "publish", false, "publish extraction records to Redis streams")

	root.AddCommand(
		&cobra.Command{
			Use:   "extract <url>...",
			Short: "Extract title, price and image from product pages",
			Args:  cobra.MinimumNArgs(1),
			RunE:  a.runExtract,
		},
		&cobra.Command{
			Use:   "search <query>...",
			Short: "Search every marketplace and rank relevant offers by price",
			Args:  cobra.MinimumNArgs(1),
			RunE:  a.runSearch,
		},
		&cobra.Command{
			Use:   "alternatives <url>",
			Short: "Find cheaper offers for the product behind a URL",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runAlternatives,
		},
	)
	return root
}

// setup loads configuration and connects the optional services
func (a *app) setup(ctx context.Context) error {
	log := logger.Default

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	a.cfg = cfg

	deps, err := initializeServices(ctx, cfg, a.publish)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}
	a.deps = deps

	log.Info().
		Str("environment", cfg.Environment).
		Bool("cache", deps.Cache != nil).
		Bool("publish", deps.Publisher != nil).
		Msg("Starting application")
	return nil
}

func (a *app) cleanup() {
	if a.deps != nil {
		a.deps.Cleanup()
	}
}

// initializeServices connects Memcache when an address is configured and
// Redis when publishing was requested
func initializeServices(ctx context.Context, cfg *config.Config, publish bool) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}

	if cfg.MemcacheAddr != "" {
		addrs := strings.Split(cfg.MemcacheAddr, ",")
		for i := range addrs {
			addrs[i] = strings.TrimSpace(addrs[i])
		}
		deps.Cache = cache.NewMemcacheService(addrs...)
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	}

	if publish {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			return nil, err
		}
		deps.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s", cfg.RedisAddr)
	}

	return deps, nil
}

func (a *app) runExtract(cmd *cobra.Command, urls []string) error {
	engine, _ := crawler.NewEngineFromConfig(a.cfg, a.deps.Cache)
	w := worker.NewWorker(engine, a.deps.Publisher, a.cfg.WorkerConcurrency, a.cfg.IsProduction())

	summary := w.Run(cmd.Context(), urls)
	if len(urls) == 1 {
		return writeJSON(cmd.OutOrStdout(), summary.Records[0].Result)
	}
	return writeJSON(cmd.OutOrStdout(), summary.Records)
}

func (a *app) runSearch(cmd *cobra.Command, args []string) error {
	_, providers := crawler.NewEngineFromConfig(a.cfg, a.deps.Cache)
	agg := aggregator.NewAggregator(providers, a.deps.Cache, a.cfg.SearchCacheTTL)

	results := agg.SearchProducts(cmd.Context(), strings.Join(args, " "))
	return writeJSON(cmd.OutOrStdout(), nonNil(results))
}

func (a *app) runAlternatives(cmd *cobra.Command, args []string) error {
	engine, providers := crawler.NewEngineFromConfig(a.cfg, a.deps.Cache)
	agg := aggregator.NewAggregator(providers, a.deps.Cache, a.cfg.SearchCacheTTL)

	product := engine.ExtractProduct(cmd.Context(), args[0])
	if product.HasError() {
		return fmt.Errorf("extract %s: %s", args[0], product.Error)
	}
	if product.Title == nil {
		return fmt.Errorf("extract %s: no product title found", args[0])
	}

	alternatives := agg.SearchAlternatives(cmd.Context(), *product.Title)
	return writeJSON(cmd.OutOrStdout(), struct {
		Product      crawler.ExtractionResult `json:"product"`
		Alternatives []crawler.SearchResult   `json:"alternatives"`
	}{product, nonNil(alternatives)})
}

func nonNil(results []crawler.SearchResult) []crawler.SearchResult {
	if results == nil {
		return []crawler.SearchResult{}
	}
	return results
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
