package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/patchhound/patchhound/internal/fetcher"
	"github.com/patchhound/patchhound/internal/spider"
	"github.com/patchhound/patchhound/internal/util"
	"github.com/patchhound/patchhound/internal/vuln"
)

// appConfig holds the environment-driven part of the configuration;
// traversal options come from flags.
type appConfig struct {
	Env       string // Environment (development/production)
	SentryDSN string // Sentry DSN for error tracking
	LogLevel  string // Log level (debug, info, warn, error)
}

type crawlFlags struct {
	depth      int
	patchLimit int
	deny       []string
	important  []string
	noLog      bool
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &crawlFlags{}

	cmd := &cobra.Command{
		Use:           "patchhound <vulnerability-id>",
		Short:         "Find patches that remediate a vulnerability",
		Long:          "patchhound resolves a vulnerability identifier (CVE, DSA, GLSA), crawls the tracker pages that reference it, and collects links to the commits and patch files that fix it.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], flags)
		},
	}

	// Load .env files - .env.local takes priority for development
	godotenv.Load(".env.local", ".env")

	cmd.Flags().IntVarP(&flags.depth, "depth", "d", getEnvInt("PATCHHOUND_DEPTH", 1), "maximum traversal depth")
	cmd.Flags().IntVarP(&flags.patchLimit, "patch-limit", "p", getEnvInt("PATCHHOUND_PATCH_LIMIT", 100), "maximum number of patches to collect")
	cmd.Flags().StringSliceVar(&flags.deny, "deny-domains", []string{"facebook.com", "twitter.com"}, "domains to avoid crawling")
	cmd.Flags().StringSliceVar(&flags.important, "imp-domains", nil, "domains to prioritise while crawling")
	cmd.Flags().BoolVar(&flags.noLog, "no-log", false, "disable logging output")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "overall crawl timeout (0 for none)")

	return cmd
}

func run(ctx context.Context, vulnID string, flags *crawlFlags) error {
	config := &appConfig{
		Env:       getEnvWithDefault("APP_ENV", "development"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
	}

	setupLogging(config, flags.noLog)

	// Initialise Sentry for error tracking when configured
	if config.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              config.SentryDSN,
			Environment:      config.Env,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	for _, domain := range append(append([]string{}, flags.deny...), flags.important...) {
		if err := util.ValidateDomain(domain); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid domain %q: %v\n", domain, err)
			return err
		}
	}

	registry := vuln.NewRegistry()
	root, err := registry.Resolve(vulnID)
	if err != nil {
		if errors.Is(err, vuln.ErrUnrecognizedIdentifier) {
			fmt.Println("Can't recognise that vulnerability.")
			return err
		}
		sentry.CaptureException(err)
		return err
	}

	cfg := &spider.Config{
		DepthLimit:      flags.depth,
		PatchLimit:      flags.patchLimit,
		DenyDomains:     flags.deny,
		PriorityDomains: flags.important,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if flags.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	log.Info().
		Str("run_id", runID).
		Str("vulnerability", root.ID).
		Str("kind", root.Kind.String()).
		Int("depth_limit", cfg.DepthLimit).
		Int("patch_limit", cfg.PatchLimit).
		Msg("Starting crawl")

	driver := spider.NewDriver(root, cfg, registry)
	runner := fetcher.NewRunner(fetcher.New(nil), driver)
	runner.OnPatch = func(p spider.Patch) {
		fmt.Printf("%s (found on %s)\n", p.PatchLink, p.ReachingPath)
	}

	patches, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		sentry.CaptureException(err)
		return err
	}

	log.Info().
		Str("run_id", runID).
		Int("patches", len(patches)).
		Int("aliases", len(driver.Aliases())).
		Msg("Crawl finished")

	fmt.Println("Crawling completed.")
	return nil
}

// setupLogging configures the logging system
func setupLogging(config *appConfig, noLog bool) {
	if noLog {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	// Use console writer in development
	if config.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Str("service", "patchhound").
			Logger()
	}
}

func getEnvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
