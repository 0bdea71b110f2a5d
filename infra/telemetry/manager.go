// Package telemetry ingests vehicle channels over MQTT and maintains the
// latest fused sample every advisory cycle reads.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryanzkys/apatte-pitbox/config"
	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
	infmqtt "github.com/aryanzkys/apatte-pitbox/infra/mqtt"
)

// ContextUpdater receives every accepted sample, typically the race
// context tracker.
type ContextUpdater interface {
	UpdateFromTelemetry(sample model.TelemetrySample)
}

// Manager collects telemetry either via push subscription or polling and
// folds incoming channels into one rolling sample.
type Manager struct {
	cfg     config.TelemetryConfig
	cli     paho.Client
	sink    coremetrics.MetricsSink
	updater ContextUpdater
	log     logger.Logger

	mu     sync.RWMutex
	latest model.TelemetrySample
	lastAt time.Time

	respCh chan []byte

	msgs        prometheus.Counter
	decodeErrs  prometheus.Counter
	pollReq     prometheus.Counter
	pollResp    prometheus.Counter
	pollTimeout prometheus.Counter
	lastCollect prometheus.Gauge
}

// NewManager connects to MQTT and prepares telemetry collection. The
// updater may be nil when no race context should follow the feed.
func NewManager(mqttCfg infmqtt.Config, cfg config.TelemetryConfig, sink coremetrics.MetricsSink, updater ContextUpdater) (*Manager, error) {
	if sink == nil {
		return nil, fmt.Errorf("telemetry: nil parameter provided to NewManager")
	}
	cfg.SetDefaults()
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-telemetry"
	} else {
		id = "telemetry-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	m := &Manager{
		cfg:     cfg,
		cli:     cli,
		sink:    sink,
		updater: updater,
		log:     logger.New("telemetry"),
		latest:  make(model.TelemetrySample),
		respCh:  make(chan []byte, 100),
	}
	if err := m.registerMetrics(prometheus.DefaultRegisterer); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) registerMetrics(reg prometheus.Registerer) error {
	m.msgs = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_messages_total", Help: "Number of telemetry messages received"})
	m.decodeErrs = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_decode_errors_total", Help: "Number of undecodable telemetry messages"})
	m.pollReq = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_requests_total", Help: "Number of telemetry poll requests"})
	m.pollResp = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_responses_total", Help: "Number of telemetry poll responses"})
	m.pollTimeout = prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_timeout_total", Help: "Number of telemetry poll timeouts"})
	m.lastCollect = prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_collect_timestamp_seconds", Help: "Unix timestamp of last telemetry collection"})

	for _, c := range []*prometheus.Counter{&m.msgs, &m.decodeErrs, &m.pollReq, &m.pollResp, &m.pollTimeout} {
		if err := reg.Register(*c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				*c = are.ExistingCollector.(prometheus.Counter)
			} else {
				return err
			}
		}
	}
	if err := reg.Register(m.lastCollect); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.lastCollect = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return err
		}
	}
	return nil
}

// Start runs telemetry collection until the context is done.
func (m *Manager) Start(ctx context.Context) {
	mode := strings.ToLower(m.cfg.Mode)
	if mode == "" {
		mode = "push"
	}
	if mode == "push" || mode == "hybrid" {
		if token := m.cli.Subscribe(m.cfg.Topic, 0, m.onPush); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe telemetry: %v", token.Error())
		}
	}
	if mode == "pull" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.ResponsePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onResponse); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe response: %v", token.Error())
		}
		go m.pollLoop(ctx)
	}
	<-ctx.Done()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}

// Latest returns a copy of the rolling sample and its collection time.
func (m *Manager) Latest() (model.TelemetrySample, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest.Clone(), m.lastAt
}

// Fresh reports whether the rolling sample is recent enough to trust.
func (m *Manager) Fresh() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastAt.IsZero() {
		return false
	}
	return time.Since(m.lastAt) <= time.Duration(m.cfg.Stale())*time.Second
}

func (m *Manager) onPush(_ paho.Client, msg paho.Message) {
	if err := m.process(msg.Payload(), msg.Topic()); err != nil {
		m.decodeErrs.Inc()
		m.log.Errorf("push decode: %v", err)
	}
}

func (m *Manager) onResponse(_ paho.Client, msg paho.Message) {
	m.respCh <- msg.Payload()
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.Interval()) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.doPoll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) doPoll(ctx context.Context) {
	m.pollReq.Inc()
	token := m.cli.Publish(m.cfg.RequestTopic, 0, false, []byte("poll"))
	token.Wait()
	timeout := time.NewTimer(time.Duration(m.cfg.Timeout()) * time.Second)
	defer timeout.Stop()
	select {
	case payload := <-m.respCh:
		if err := m.process(payload, ""); err != nil {
			m.decodeErrs.Inc()
			m.log.Errorf("poll decode: %v", err)
			return
		}
		m.pollResp.Inc()
	case <-timeout.C:
		m.pollTimeout.Inc()
	case <-ctx.Done():
	}
}

// Merge folds externally sourced channels, e.g. fleet statistics from
// the timing feed, into the rolling sample. Merging does not refresh
// the collection time: only vehicle telemetry counts as fresh.
func (m *Manager) Merge(sample model.TelemetrySample) {
	if len(sample) == 0 {
		return
	}
	m.mu.Lock()
	for k, v := range sample {
		m.latest[k] = v
	}
	m.mu.Unlock()
}

// process folds one message into the rolling sample. The payload is
// either a JSON object of channels, or a bare number published on a
// per-channel subtopic.
func (m *Manager) process(payload []byte, topic string) error {
	channels := make(map[string]float64)
	if err := json.Unmarshal(payload, &channels); err != nil {
		var v float64
		if numErr := json.Unmarshal(payload, &v); numErr != nil {
			return err
		}
		key := channelFromTopic(topic)
		if key == "" {
			return fmt.Errorf("scalar payload without channel topic")
		}
		channels[key] = v
	}
	if len(channels) == 0 {
		return nil
	}

	m.mu.Lock()
	for k, v := range channels {
		m.latest[k] = v
	}
	m.lastAt = time.Now()
	sample := m.latest.Clone()
	m.mu.Unlock()

	m.msgs.Inc()
	m.lastCollect.SetToCurrentTime()

	if m.updater != nil {
		m.updater.UpdateFromTelemetry(sample)
	}
	if rec, ok := m.sink.(coremetrics.TelemetryRecorder); ok {
		_ = rec.RecordTelemetry(coremetrics.TelemetryEvent{
			Sample:    sample,
			Component: "telemetry",
			Time:      time.Now(),
		})
	}
	return nil
}

// channelFromTopic maps pitbox/telemetry/<channel> onto the channel key.
func channelFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-1]
}
