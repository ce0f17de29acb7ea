package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/config"
	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/internal/metrics"
	"github.com/aretw0/pathway/internal/validator"
	httpAdapter "github.com/aretw0/pathway/pkg/adapters/http"
	"github.com/aretw0/pathway/pkg/adapters/openai"
	"github.com/aretw0/pathway/pkg/classifier"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/persistence/middleware"
	"github.com/aretw0/pathway/pkg/render"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCfg = config.Default()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat completions proxy",
	Long: `Loads the pathway file and serves POST /chat/completions, forwarding every
rewritten turn to the OpenAI-compatible upstream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ApplyEnv(cmd.Flags()); err != nil {
			return err
		}
		return runServe(cmd.Context(), serveCfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCfg.BindServeFlags(serveCmd.Flags())
}

func runServe(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	mode, err := httpAdapter.ParseResponseMode(cfg.ResponseMode)
	if err != nil {
		return err
	}
	logger := logging.NewWithOptions(logging.Options{Level: level, Format: format})

	store, closer, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	m := metrics.New()
	instrumented := middleware.Chain(store, middleware.NewInstrumentMiddleware(m.ObserveStore))

	cls, err := classifier.NewOpenAI(ctx, classifier.Config{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ClassifierModel,
		Timeout: cfg.ClassifierTimeout,
	}, classifier.WithLogger(logger))
	if err != nil {
		return err
	}
	upstream := openai.New(cfg.OpenAIKey,
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithTimeout(cfg.UpstreamTimeout),
		openai.WithLogger(logger),
	)

	proxy, err := pathway.New(cfg.PathwayFile,
		pathway.WithStore(instrumented),
		pathway.WithLocker(openLocker(cfg, store)),
		pathway.WithClassifier(cls),
		pathway.WithUpstream(upstream),
		pathway.WithLogger(logger),
		pathway.WithLifecycleHooks(m.Hooks(domain.LifecycleHooks{})),
	)
	if err != nil {
		return err
	}

	for _, issue := range validator.Lint(proxy.Catalog(), render.New()) {
		logger.Warn("Pathway warning", "step", issue.Step, "field", issue.Field, "issue", issue.Message)
	}

	handler, err := proxy.Handler(
		httpAdapter.WithResponseMode(mode),
		httpAdapter.WithMetricsHandler(m.Handler()),
		httpAdapter.WithUpstreamObserver(m.ObserveUpstream),
		httpAdapter.WithInfo(map[string]any{
			"store":   cfg.Store,
			"durable": cfg.Durable(),
		}),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting Pathway Server",
			"addr", srv.Addr,
			"pathway", cfg.PathwayFile,
			"steps", proxy.Catalog().Len(),
			"store", cfg.Store,
			"durable", cfg.Durable(),
			"upstream", upstream.BaseURL(),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Start shutdown", "signal", sig.String())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("Pathway Server stopped gracefully")
		return nil
	}
}
