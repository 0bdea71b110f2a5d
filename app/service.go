// Package app assembles the advisory service from its configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aryanzkys/apatte-pitbox/api/advisory"
	"github.com/aryanzkys/apatte-pitbox/config"
	"github.com/aryanzkys/apatte-pitbox/core/advisor"
	"github.com/aryanzkys/apatte-pitbox/core/history"
	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	coremon "github.com/aryanzkys/apatte-pitbox/core/monitoring"
	"github.com/aryanzkys/apatte-pitbox/core/perf"
	"github.com/aryanzkys/apatte-pitbox/core/predict"
	"github.com/aryanzkys/apatte-pitbox/core/racectx"
	"github.com/aryanzkys/apatte-pitbox/core/trigger"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
	inframetrics "github.com/aryanzkys/apatte-pitbox/infra/metrics"
	"github.com/aryanzkys/apatte-pitbox/infra/monitoring"
	"github.com/aryanzkys/apatte-pitbox/infra/mqtt"
	"github.com/aryanzkys/apatte-pitbox/infra/telemetry"
	"github.com/aryanzkys/apatte-pitbox/internal/eventbus"
	"github.com/aryanzkys/apatte-pitbox/timing"
)

// Service wires the advisory engine to its transports and surfaces.
type Service struct {
	Engine    *advisor.Engine
	Ring      *history.Ring
	Tracker   *racectx.Tracker
	Telemetry *telemetry.Manager

	cfg        *config.Config
	bus        eventbus.EventBus
	publisher  *mqtt.PahoClient
	dispatcher *mqtt.AdvisoryDispatcher
	connector  timing.Connector
	periodic   *trigger.Periodic
	api        *advisory.Server
	log        logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	zerolog.SetGlobalLevel(cfg.Logging.ZerologLevel())
	logg := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	cycles := perf.NewTracker(0, cfg.Engine.Budget())
	models := perf.NewModelTracker(0)
	sink = coremetrics.NewMultiSink(sink, models)

	bus := eventbus.New()

	tracker, err := racectx.New(cfg.Race, logger.New("racectx"))
	if err != nil {
		return nil, err
	}
	ring := history.NewRing(cfg.Engine.HistorySize)

	predictors, err := predict.BuildChain(cfg.Predictors)
	if err != nil {
		return nil, fmt.Errorf("predictor chain: %w", err)
	}
	sched, err := advisor.NewScheduler(predictors, cfg.Engine.Budget(), logger.New("scheduler"))
	if err != nil {
		return nil, err
	}
	for _, id := range cfg.Engine.Disabled {
		sched.SetActive(model.PredictorID(id), false)
	}

	engine, err := advisor.NewEngine(cfg.Engine.VehicleID, sched, advisor.NewPriorityCascade(), tracker, ring, sink, bus, logger.New("engine"), cycles)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Engine:  engine,
		Ring:    ring,
		Tracker: tracker,
		cfg:     cfg,
		bus:     bus,
		log:     logg,
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.publisher = pub
		disp, err := mqtt.NewAdvisoryDispatcher(pub, bus, sink, cfg.Engine.AckTimeout, logger.New("dispatcher"))
		if err != nil {
			return nil, err
		}
		svc.dispatcher = disp

		if cfg.Telemetry.Enabled {
			mgr, err := telemetry.NewManager(cfg.MQTT, cfg.Telemetry, sink, tracker)
			if err != nil {
				return nil, fmt.Errorf("telemetry manager: %w", err)
			}
			svc.Telemetry = mgr
		}
	}

	if cfg.Timing.Enabled {
		var chans timing.ChannelSink
		if svc.Telemetry != nil {
			chans = svc.Telemetry
		}
		applier, err := timing.NewApplier(tracker, chans, logger.New("timing"))
		if err != nil {
			return nil, err
		}
		svc.connector = timing.NewConnector(cfg.Timing, applier)
	}

	if cfg.Trigger.Enabled && svc.Telemetry != nil {
		interval := time.Duration(cfg.Trigger.IntervalSeconds) * time.Second
		per, err := trigger.NewPeriodic(interval, svc.cycle, logger.New("trigger"))
		if err != nil {
			return nil, err
		}
		svc.periodic = per
	}

	if cfg.API.Enabled {
		srv, err := advisory.NewServer(engine, ring, tracker, cycles, models, cfg.API.Token, logger.New("api"))
		if err != nil {
			return nil, err
		}
		svc.api = srv
	}

	return svc, nil
}

// cycle runs one advisory pass on the latest telemetry. A stale feed is
// skipped rather than degraded: the fallback advisory is reserved for
// samples that arrive incomplete.
func (s *Service) cycle(ctx context.Context) {
	if !s.Telemetry.Fresh() {
		s.log.Debugf("telemetry stale, skipping cycle")
		return
	}
	sample, _ := s.Telemetry.Latest()
	s.Engine.RunCycle(ctx, sample)
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.dispatcher != nil {
		s.dispatcher.Start(ctx)
	}
	if s.Telemetry != nil {
		go s.Telemetry.Start(ctx)
	}
	if s.connector != nil {
		go func() {
			if err := s.connector.Start(ctx); err != nil {
				s.log.Errorf("timing connector: %v", err)
			}
		}()
	}
	if s.periodic != nil {
		s.periodic.Start(ctx)
	}
	if s.api != nil {
		go s.serveAPI(ctx)
	}
	if s.cfg.Prom.Enabled {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.cfg.Prom.Address); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

func (s *Service) serveAPI(ctx context.Context) {
	srv := &http.Server{Addr: s.cfg.API.Address, Handler: s.api.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("advisory API listening on %s", s.cfg.API.Address)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	return nil
}
