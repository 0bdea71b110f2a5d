package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

func TestInfluxSink_RecordCycleResult(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	rec := coremetrics.CycleResult{
		CycleID:       "c1",
		VehicleID:     "apatte-01",
		Phase:         model.PhaseMid,
		Severity:      model.SeverityCritical,
		Primary:       model.ActionDNFRisk,
		AlertCount:    2,
		Fallback:      false,
		InferenceTime: 42 * time.Millisecond,
		Time:          now,
	}

	if err := sink.RecordCycleResult(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("advisory_cycle").
		AddTag("vehicle_id", "apatte-01").
		AddTag("cycle_id", "c1").
		AddTag("race_phase", "MID").
		AddTag("severity", "CRITICAL").
		AddTag("primary_action", "DNF_RISK").
		AddTag("fallback", "false").
		AddTag("component", "cycle_orchestrator").
		AddField("alert_count", 2).
		AddField("inference_ms", 42.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestInfluxSink_RecordPredictorRuns(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	runs := []coremetrics.PredictorRun{
		{CycleID: "c1", Predictor: model.PredictorEnergy, Latency: 3 * time.Millisecond, Succeeded: true, Time: now},
		{CycleID: "c1", Predictor: model.PredictorAnomaly, Latency: time.Millisecond, Succeeded: false, Error: "bad window", Time: now},
	}
	if err := sink.RecordPredictorRuns(runs); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(bodies))
	}
	p := write.NewPointWithMeasurement("predictor_run").
		AddTag("predictor", "energy").
		AddTag("cycle_id", "c1").
		AddTag("succeeded", "true").
		AddTag("component", "inference_scheduler").
		AddField("latency_ms", 3.0).
		AddField("errors", "").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if bodies[0] != exp {
		t.Errorf("unexpected first body: %s", bodies[0])
	}
	if !strings.Contains(bodies[1], `errors="bad window"`) {
		t.Errorf("error field missing: %s", bodies[1])
	}
}

func TestInfluxSink_RecordAdvisoryAck(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.AdvisoryAckEvent{
		CycleID:      "c1",
		Severity:     model.SeverityCritical,
		Acknowledged: true,
		Latency:      time.Second,
		Time:         now,
	}
	if err := sink.RecordAdvisoryAck(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("advisory_ack").
		AddTag("cycle_id", "c1").
		AddTag("severity", "CRITICAL").
		AddTag("acknowledged", "true").
		AddTag("component", "advice_publisher").
		AddField("latency_ms", 1000.0).
		AddField("errors", "").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordTelemetry(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.TelemetryEvent{
		VehicleID: "apatte-01",
		Sample: model.TelemetrySample{
			model.KeySpeedAvg:   31.5,
			model.KeySocCurrent: 54.2,
		},
		Component: "telemetry_manager",
		Time:      now,
	}
	if err := sink.RecordTelemetry(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("telemetry_sample").
		AddTag("vehicle_id", "apatte-01").
		AddTag("component", "telemetry_manager").
		AddField("soc_current", 54.2).
		AddField("speed_avg", 31.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordRaceContext(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.RaceContextEvent{
		Context: model.RaceContext{
			Phase:         model.PhaseLate,
			CurrentLap:    9,
			LapsRemaining: 1,
			CurrentSoC:    12.5,
			TargetSoC:     10,
			Condition:     model.TrackWet,
			WeatherFactor: 0.9,
			CurrentRank:   4,
		},
		Time: now,
	}
	if err := sink.RecordRaceContext(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(bodies) != 1 {
		t.Fatalf("expected 1 write, got %d", len(bodies))
	}
	for _, want := range []string{"race_context", "race_phase=LATE", "track_condition=WET", "current_soc=12.5"} {
		if !strings.Contains(bodies[0], want) {
			t.Errorf("missing %q in body: %s", want, bodies[0])
		}
	}
}
