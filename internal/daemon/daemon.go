// Package daemon wires the bot together: transport, conversation flow,
// download orchestration, session sweeping and the liveness endpoint.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/harun/leechbot/internal/config"
	"github.com/harun/leechbot/internal/download"
	"github.com/harun/leechbot/internal/flow"
	"github.com/harun/leechbot/internal/httpclient"
	"github.com/harun/leechbot/internal/logger"
	"github.com/harun/leechbot/internal/metrics"
	"github.com/harun/leechbot/internal/session"
	"github.com/harun/leechbot/internal/telegram"
)

var (
	_ flow.Replier   = (*telegram.Bot)(nil)
	_ flow.Uploader  = (*telegram.Bot)(nil)
	_ flow.Recorder  = (*metrics.Metrics)(nil)
	_ telegram.Stats = (*metrics.Metrics)(nil)
)

// Daemon represents the leechbot daemon service
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	// Core modules
	store        *session.Store
	orchestrator *download.Orchestrator
	machine      *flow.Machine
	metrics      *metrics.Metrics

	// Services
	bot           *telegram.Bot
	dispatcher    *dispatcher
	sweeper       *cron.Cron
	healthServer  *http.Server
	metricsServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// New creates a new daemon instance
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config: cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := d.initialize(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize daemon: %w", err)
	}

	return d, nil
}

// initialize builds the modules in dependency order.
func (d *Daemon) initialize() error {
	d.metrics = metrics.NewMetrics()

	d.store = session.NewStore()
	d.logger.Info().Msg("Session store initialized")

	d.orchestrator = download.New(download.Options{
		ResolverBase: d.config.Resolver.BaseURL,
		WorkRoot:     d.config.Download.WorkRoot,
		HTTP: httpclient.Options{
			Timeout:       d.config.HTTPTimeout(),
			RetryAttempts: d.config.Download.Retries,
		},
		MediaRetries: d.config.Download.Retries,
	}, d.logger.GetZerolog())
	d.logger.Info().Msg("Download orchestrator initialized")

	bot, err := telegram.New(&d.config.Telegram, d.logger, d.metrics)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	d.bot = bot
	bot.SetUpdateHandler(d)

	d.machine = flow.New(d.store, d.orchestrator, d.bot, d.bot, d.metrics, d.logger.GetZerolog())
	d.logger.Info().Msg("Conversation flow initialized")

	d.dispatcher = newDispatcher(d.logger.GetZerolog())

	if d.config.IdleTTL() > 0 {
		d.sweeper = cron.New()
		if _, err := d.sweeper.AddFunc(d.config.Sessions.SweepSchedule, d.sweepIdleSessions); err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", d.config.Sessions.SweepSchedule, err)
		}
		d.logger.Info().
			Str("schedule", d.config.Sessions.SweepSchedule).
			Dur("idle_ttl", d.config.IdleTTL()).
			Msg("Session sweeper initialized")
	}

	d.healthServer = newHealthServer(d.config.Health.Port, d.config.Health.Body)
	if d.config.Metrics.Enabled {
		d.metricsServer = newMetricsServer(d.config.Metrics.Port, d.metrics)
	}

	return nil
}

// Start starts the daemon and all of its services.
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon is already running")
	}

	if err := d.bot.Start(); err != nil {
		return fmt.Errorf("failed to start telegram bot: %w", err)
	}

	d.serveHTTP(d.healthServer, "health")
	if d.metricsServer != nil {
		d.serveHTTP(d.metricsServer, "metrics")
	}

	if d.sweeper != nil {
		d.sweeper.Start()
	}

	d.startTime = time.Now()
	d.running = true
	d.logger.Info().Msg("Daemon started")

	return nil
}

// Stop shuts the daemon down. In-flight downloads are allowed to finish;
// only the HTTP listeners are cut off after a grace period.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return fmt.Errorf("daemon is not running")
	}

	d.logger.Info().Msg("Stopping daemon")

	if err := d.bot.Stop(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to stop telegram bot")
	}

	if d.sweeper != nil {
		sweepCtx := d.sweeper.Stop()
		<-sweepCtx.Done()
	}

	// Drain per-user workers before cancelling the base context so that a
	// running download is never cut off mid-flight.
	d.dispatcher.Close()
	d.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.healthServer.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn().Err(err).Msg("Health server shutdown failed")
	}
	if d.metricsServer != nil {
		if err := d.metricsServer.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	d.wg.Wait()
	d.running = false
	d.logger.Info().Dur("uptime", time.Since(d.startTime)).Msg("Daemon stopped")

	return nil
}

// IsRunning returns whether the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// serveHTTP runs an HTTP server on its own goroutine until shutdown.
func (d *Daemon) serveHTTP(srv *http.Server, name string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.logger.Info().Str("addr", srv.Addr).Msgf("Serving %s endpoint", name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Error().Err(err).Msgf("%s server failed", name)
		}
	}()
}

// sweepIdleSessions evicts sessions idle past the configured TTL. Sessions
// with a download in flight are left alone.
func (d *Daemon) sweepIdleSessions() {
	evicted := d.store.SweepIdle(d.config.IdleTTL())
	for range evicted {
		d.metrics.SessionClosed("evicted")
	}
	if len(evicted) > 0 {
		d.logger.Info().Int("count", len(evicted)).Msg("Idle sessions evicted")
	}
}
