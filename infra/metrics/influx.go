package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
)

// InfluxSink writes advisory events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCycleResult writes the completed cycle as a line protocol event.
func (s *InfluxSink) RecordCycleResult(res coremetrics.CycleResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("advisory_cycle").
		AddTag("vehicle_id", res.VehicleID).
		AddTag("cycle_id", res.CycleID).
		AddTag("race_phase", res.Phase.String()).
		AddTag("severity", res.Severity.String()).
		AddTag("primary_action", res.Primary.String()).
		AddTag("fallback", strconv.FormatBool(res.Fallback)).
		AddTag("component", "cycle_orchestrator").
		AddField("alert_count", res.AlertCount).
		AddField("inference_ms", round3(res.InferenceTime.Seconds()*1000)).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPredictorRuns persists each model execution of a cycle.
func (s *InfluxSink) RecordPredictorRuns(runs []coremetrics.PredictorRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range runs {
		p := write.NewPointWithMeasurement("predictor_run").
			AddTag("predictor", string(r.Predictor)).
			AddTag("cycle_id", r.CycleID).
			AddTag("succeeded", strconv.FormatBool(r.Succeeded)).
			AddTag("component", "inference_scheduler").
			AddField("latency_ms", round3(r.Latency.Seconds()*1000)).
			AddField("errors", r.Error).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordAction records a cascade action attached to a decision.
func (s *InfluxSink) RecordAction(ev coremetrics.ActionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("advisory_action").
		AddTag("cycle_id", ev.CycleID).
		AddTag("action", ev.Action.String()).
		AddTag("severity", ev.Severity.String()).
		AddTag("component", "priority_cascade").
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAdvisoryAck records the crew acknowledgment result.
func (s *InfluxSink) RecordAdvisoryAck(ev coremetrics.AdvisoryAckEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("advisory_ack").
		AddTag("cycle_id", ev.CycleID).
		AddTag("severity", ev.Severity.String()).
		AddTag("acknowledged", strconv.FormatBool(ev.Acknowledged)).
		AddTag("component", "advice_publisher").
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("errors", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFallback records a fallback advisory.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fallback_applied").
		AddTag("cycle_id", ev.CycleID).
		AddTag("component", "fallback").
		AddField("fallback_reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTelemetry writes the raw sample with one field per channel.
// Fields are added in key order so the line protocol stays deterministic.
func (s *InfluxSink) RecordTelemetry(ev coremetrics.TelemetryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("telemetry_sample").
		AddTag("vehicle_id", ev.VehicleID)
	if ev.Component != "" {
		p = p.AddTag("component", ev.Component)
	}
	keys := make([]string, 0, len(ev.Sample))
	for k := range ev.Sample {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p = p.AddField(k, round3(ev.Sample[k]))
	}
	p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRaceContext writes a snapshot of the tracked race state.
func (s *InfluxSink) RecordRaceContext(ev coremetrics.RaceContextEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc := ev.Context
	p := write.NewPointWithMeasurement("race_context").
		AddTag("race_phase", rc.Phase.String()).
		AddTag("track_condition", rc.Condition.String()).
		AddTag("aggressiveness", rc.Aggressiveness.String())
	if ev.Component != "" {
		p = p.AddTag("component", ev.Component)
	}
	p = p.AddField("current_lap", rc.CurrentLap).
		AddField("laps_remaining", rc.LapsRemaining).
		AddField("current_soc", round3(rc.CurrentSoC)).
		AddField("soc_target", round3(rc.TargetSoC)).
		AddField("weather_factor", round3(rc.WeatherFactor)).
		AddField("current_rank", rc.CurrentRank).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
