package metrics

import (
	"strconv"

	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records advisory cycle events in Prometheus metrics.
type PromSink struct {
	cycles  *prometheus.CounterVec
	alerts  prometheus.Counter
	latency *prometheus.HistogramVec
	soc     prometheus.Gauge
	lap     prometheus.Gauge
}

// NewPromSink registers advisory metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "advisory_cycles_total",
		Help: "Total number of inference cycles",
	}, []string{"severity", "primary_action", "fallback"})
	alerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisory_alerts_total",
		Help: "Total number of alert grade cascade actions",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "predictor_latency_seconds",
		Help:    "Time spent in each predictive model per cycle",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5},
	}, []string{"predictor", "succeeded"})
	soc := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "race_soc_percent",
		Help: "Last observed battery state of charge",
	})
	lap := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "race_current_lap",
		Help: "Current lap tracked by the race context",
	})

	if err := reg.Register(cycles); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycles = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(alerts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			alerts = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(soc); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			soc = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(lap); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			lap = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{cycles: cycles, alerts: alerts, latency: latency, soc: soc, lap: lap}, nil
}

// RecordCycleResult increments the cycle counter and adds alert counts.
func (s *PromSink) RecordCycleResult(res coremetrics.CycleResult) error {
	s.cycles.WithLabelValues(res.Severity.String(), res.Primary.String(), strconv.FormatBool(res.Fallback)).Inc()
	if res.AlertCount > 0 {
		s.alerts.Add(float64(res.AlertCount))
	}
	return nil
}

// RecordPredictorRuns records the per model latency histogram.
func (s *PromSink) RecordPredictorRuns(runs []coremetrics.PredictorRun) error {
	for _, r := range runs {
		s.latency.WithLabelValues(string(r.Predictor), strconv.FormatBool(r.Succeeded)).Observe(r.Latency.Seconds())
	}
	return nil
}

// RecordRaceContext updates the race state gauges.
func (s *PromSink) RecordRaceContext(ev coremetrics.RaceContextEvent) error {
	if s.soc != nil {
		s.soc.Set(ev.Context.CurrentSoC)
	}
	if s.lap != nil {
		s.lap.Set(float64(ev.Context.CurrentLap))
	}
	return nil
}
