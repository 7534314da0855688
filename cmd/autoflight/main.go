package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simwidget/autoflight/internal/advisor"
	"github.com/simwidget/autoflight/internal/config"
	"github.com/simwidget/autoflight/internal/core"
	"github.com/simwidget/autoflight/internal/learning"
	internalmcp "github.com/simwidget/autoflight/internal/mcp"
	"github.com/simwidget/autoflight/internal/simlink"
	"github.com/simwidget/autoflight/internal/state"
	"github.com/simwidget/autoflight/internal/telemetry"
	"github.com/simwidget/autoflight/internal/tuning"
)

func main() {
	if err := run(); err != nil {
		log.Printf("autoflight exited: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	mgr := state.NewManager(cfg.SimLink.StaleThreshold)
	tuningStore := tuning.NewStore(filepath.Join(cfg.Storage.DataDir, "tuning.json"))
	learningStore := learning.NewStore(filepath.Join(cfg.Storage.DataDir, "learnings.json"))

	history, err := telemetry.OpenHistory(filepath.Join(cfg.Storage.DataDir, "attempts.db"))
	if err != nil {
		return err
	}
	defer history.Close()

	client := simlink.NewClient(simlink.Config{
		Host:    cfg.SimLink.Host,
		Port:    cfg.SimLink.Port,
		Timeout: cfg.SimLink.Timeout,
		AppName: cfg.SimLink.AppName,
	})

	var adv advisor.Advisor
	if cfg.Advisory.AdvisorURL != "" {
		adv = advisor.NewHTTPAdvisor(cfg.Advisory.AdvisorURL, cfg.Advisory.AdvisorTimeout)
	} else {
		log.Printf("autoflight: no ADVISOR_URL configured, advisory loop disabled")
	}

	controller := core.New(core.Deps{
		Frames:           mgr,
		Dispatcher:       simlink.NewDispatcher(client),
		Tuning:           tuningStore,
		Learnings:        learningStore,
		History:          history,
		Advisor:          adv,
		StatePath:        filepath.Join(cfg.Storage.DataDir, "engine_state.json"),
		DecisionInterval: cfg.Control.DecisionInterval,
		ReapplyInterval:  cfg.Control.ReapplyInterval,
		SampleInterval:   cfg.Control.SampleInterval,
		AdvisoryInterval: cfg.Advisory.Interval,
		AttemptLimit:     cfg.Advisory.AttemptLimit,
	})

	go runPollerLoop(ctx, cfg, client, mgr)

	if cfg.Metrics.Addr != "" {
		go runMetricsListener(ctx, cfg.Metrics.Addr)
	}

	// Crash recovery: resume autonomous control if it was enabled when the
	// process last stopped.
	if err := controller.Resume(ctx); err != nil {
		log.Printf("autoflight: resume persisted state: %v", err)
	}
	defer func() {
		if err := controller.Disable(); err != nil {
			log.Printf("autoflight: disable on shutdown: %v", err)
		}
	}()

	mcpServer := internalmcp.NewServer(ctx, controller, mgr, tuningStore, learningStore)
	if err := mcpServer.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runPollerLoop connects to the simulator and polls for frames, retrying
// with exponential backoff (1s → 30s cap) on failure.
func runPollerLoop(ctx context.Context, cfg config.Config, client *simlink.Client, mgr *state.Manager) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if err := ctx.Err(); err != nil {
			return
		}

		if err := runPoller(ctx, cfg, client, mgr); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("simlink: disconnected: %v (retrying in %s)", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runPoller connects the client, registers SimVars, and runs the polling
// loop. Returns when the connection is lost or ctx is done.
func runPoller(ctx context.Context, cfg config.Config, client *simlink.Client, mgr *state.Manager) error {
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	pollerCfg := simlink.PollerConfig{PollInterval: cfg.SimLink.PollInterval}
	poller := simlink.NewPoller(client, mgr, pollerCfg)

	if err := poller.RegisterSimVars(); err != nil {
		return err
	}

	return poller.Start(ctx)
}

func runMetricsListener(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Printf("metrics: listener: %v", err)
	}
}
