package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/adwikanair2008-hue/swim-flow/internal/api"
	"github.com/adwikanair2008-hue/swim-flow/internal/core"
	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
	"github.com/adwikanair2008-hue/swim-flow/internal/state"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the SwimFlow HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) (err error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	if err := a.cfg.RequireGemini(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsManager := metrics.NewManager("swimflow", "api", registry)
	metricsManager.GaugeLifeSignal.Set(1)

	llmService, err := core.NewLLMService(ctx, a.cfg.Gemini.APIKey, a.cfg.Gemini.ChatModel, a.cfg.Gemini.WorkoutModel)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, llmService.Close()) }()

	saver := state.NewSaver(a.snapshots, a.cfg.SaveDebounce(), metricsManager)
	a.state.Subscribe(saver.Notify)
	// the saver flushes before the slot closes
	defer func() { err = multierr.Append(err, saver.Close()) }()

	advice := core.NewAdviceCache(a.cfg.Advice.CacheMB, a.cfg.AdviceTTL(), metricsManager)
	apiHandler := api.NewAPIHandler(api.Services{
		State:     a.state,
		Snapshots: a.snapshots,
		Saver:     saver,
		Coach:     core.NewCoachService(llmService, a.state, advice, metricsManager),
		Advice:    advice,
		Metrics:   metricsManager,
	})

	serverAddr := fmt.Sprintf(":%s", a.cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      api.NewRouter(apiHandler, metricsManager, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls can take a while
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	metricsManager.GaugeLifeSignal.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exiting gracefully")
	return nil
}
