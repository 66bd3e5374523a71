package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"listingradar/config"
	"listingradar/helpers"
	"listingradar/internal/scraper"
	"listingradar/logger"
	"listingradar/services/cache"
	"listingradar/services/command"
	"listingradar/services/dedup"
	"listingradar/services/publisher"
	"listingradar/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("marketplace", cfg.Marketplace).
		Str("sink", cfg.Sink).
		Dur("poll_interval", cfg.PollInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services := initializeServices(&cfg)
	defer services.Cleanup()

	// Build one assembler per marketplace; the scheduler picks by name
	searchFn := buildSearchFunc(&cfg, services.Cache)

	// Shared mutable state between the scheduler and the command handler
	search := config.NewSearchConfig(cfg)
	seen := dedup.NewStore()

	// Command surface over stdin; any chat frontend can replace this loop
	handler := command.NewHandler(search, seen)
	go runCommandLoop(ctx, handler)

	sched := worker.NewScheduler(search, seen, searchFn, services.Notifier, cfg.MessageDelay)

	schedulerDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedulerDone)
	}()

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-schedulerDone
	case <-schedulerDone:
		log.Info().Msg("Scheduler exited")
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache    cache.CacheService
	Notifier publisher.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Notifier != nil {
		s.Notifier.Close()
	}
}

// initializeServices wires the cache backend and notification sink chosen
// by configuration. Validate has already ruled out unknown values.
func initializeServices(cfg *config.Config) *Services {
	services := &Services{}

	switch cfg.CacheBackend {
	case "memcache":
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
	default:
		services.Cache = cache.NewMemoryCache()
	}

	switch cfg.Sink {
	case "redis":
		services.Notifier = publisher.NewRedisNotifier(
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream,
			cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
	default:
		services.Notifier = publisher.NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.NotifyTimeout)
	}

	return services
}

// buildSearchFunc constructs an assembler per known marketplace and returns
// the dispatch function the scheduler calls each cycle.
func buildSearchFunc(cfg *config.Config, cacheSvc cache.CacheService) worker.SearchFunc {
	fetcher := helpers.NewFetcher()

	assemblers := make(map[string]*scraper.Assembler)
	for _, name := range scraper.Names() {
		market, _ := scraper.Lookup(name)
		assemblers[name] = scraper.NewAssembler(market, fetcher.Fetch, cacheSvc, cfg.EnrichCacheTTL)
	}

	return func(ctx context.Context, marketplace string, q scraper.SearchQuery) ([]scraper.Listing, error) {
		assembler, ok := assemblers[marketplace]
		if !ok {
			return nil, fmt.Errorf("no assembler for marketplace %q", marketplace)
		}
		return assembler.Search(ctx, q)
	}
}

// runCommandLoop feeds stdin lines to the command handler and prints the
// replies. Exits when stdin closes or the context is cancelled.
func runCommandLoop(ctx context.Context, handler *command.Handler) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		reply, handled := handler.Handle(scanner.Text())
		if handled {
			fmt.Println(reply)
		}
	}
}
