package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/infra/metrics"
)

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var strat AckStrategy = AutoAck{Delay: cfg.AckLatency}
	if cfg.DropRate > 0 {
		strat = RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate}
	}

	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if cfg.InfluxURL != "" {
		sink = metrics.NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	car := NewCar(cfg, rand.New(rand.NewSource(seed)))

	sim := &Simulator{cfg: cfg, car: car, strat: strat, sink: sink, ackCh: make(chan string, 50)}
	if err := sim.Run(ctx); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("simulator: %v", err)
	}
}

func newMQTTClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.CarID, "car-id", "apatte-01", "vehicle identifier")
	flag.StringVar(&cfg.TelemetryTopic, "telemetry-topic", "pitbox/telemetry", "telemetry publish topic")
	flag.StringVar(&cfg.RequestTopic, "request-topic", "pitbox/telemetry/request", "telemetry poll request topic")
	flag.StringVar(&cfg.ResponsePrefix, "response-prefix", "pitbox/telemetry/response", "telemetry poll response prefix")
	flag.StringVar(&cfg.AdviceTopic, "advice-topic", "pitbox/advice", "crew advice topic")
	flag.StringVar(&cfg.AckPrefix, "ack-prefix", "pitbox/advice/ack", "advice acknowledgment prefix")
	flag.IntVar(&cfg.TotalLaps, "laps", 10, "race length in laps")
	flag.Float64Var(&cfg.LapSeconds, "lap-seconds", 120, "seconds per lap")
	flag.Float64Var(&cfg.StartSoC, "start-soc", 95, "state of charge on the grid, percent")
	flag.StringVar(&cfg.BatteryProfile, "battery-profile", "standard", "discharge profile (standard,endurance,sprint)")
	flag.DurationVar(&cfg.Interval, "interval", time.Second, "telemetry publish interval")
	flag.StringVar(&cfg.Scenario, "scenario", "none", "fault to inject (none,overheat,hypoxia,low-soc,slip,purge)")
	flag.IntVar(&cfg.ScenarioLap, "scenario-lap", 3, "lap on which the fault starts")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 0, "crew ack latency")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "crew ack drop rate")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 means time based")
	flag.StringVar(&cfg.InfluxURL, "influx-url", "", "InfluxDB URL")
	flag.StringVar(&cfg.InfluxToken, "influx-token", "", "InfluxDB token")
	flag.StringVar(&cfg.InfluxOrg, "influx-org", "", "InfluxDB organization")
	flag.StringVar(&cfg.InfluxBucket, "influx-bucket", "", "InfluxDB bucket")
	flag.Parse()
	return cfg
}

// Simulator drives one car over MQTT: it publishes telemetry on a fixed
// cadence, answers pull requests with the latest snapshot, and plays the
// crew role by acknowledging critical advice.
type Simulator struct {
	cfg   Config
	car   *Car
	strat AckStrategy
	sink  coremetrics.MetricsSink

	cli   paho.Client
	ackCh chan string

	mu     sync.Mutex
	latest model.TelemetrySample
}

// Run connects to the broker and loops until the race ends or ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	cli, err := newMQTTClient(s.cfg.Broker, "sim-"+s.cfg.CarID)
	if err != nil {
		return err
	}
	s.cli = cli
	defer cli.Disconnect(250)

	for i := 0; i < 3; i++ {
		go s.ackWorker(ctx)
	}
	if token := cli.Subscribe(s.cfg.AdviceTopic, 1, s.onAdvice); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	if token := cli.Subscribe(s.cfg.RequestTopic, 0, s.onPollRequest); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(s.ackCh)
			return nil
		case <-ticker.C:
			s.car.Advance(s.cfg.Interval.Seconds())
			s.publishSample()
			if s.car.Finished() {
				log.Printf("%s: race complete after %d laps", s.cfg.CarID, s.cfg.TotalLaps)
				close(s.ackCh)
				return nil
			}
		}
	}
}

func (s *Simulator) publishSample() {
	sample := s.car.Sample()
	s.mu.Lock()
	s.latest = sample
	s.mu.Unlock()

	payload, err := json.Marshal(sample)
	if err != nil {
		log.Printf("marshal sample: %v", err)
		return
	}
	token := s.cli.Publish(s.cfg.TelemetryTopic, 0, false, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("publish telemetry: %v", token.Error())
		return
	}
	log.Printf("%s: lap %d soc %.1f temp %.1f", s.cfg.CarID, s.car.Lap(),
		sample.Value(model.KeySocCurrent), sample.Value(model.KeyMotorTemp))

	if rec, ok := s.sink.(coremetrics.TelemetryRecorder); ok {
		_ = rec.RecordTelemetry(coremetrics.TelemetryEvent{
			Sample:    sample,
			Component: "simulator",
			Time:      time.Now(),
		})
	}
}

func (s *Simulator) onPollRequest(_ paho.Client, _ paho.Message) {
	s.mu.Lock()
	sample := s.latest.Clone()
	s.mu.Unlock()
	if len(sample) == 0 {
		return
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		log.Printf("marshal poll response: %v", err)
		return
	}
	s.cli.Publish(s.cfg.ResponsePrefix+"/"+s.cfg.CarID, 0, false, payload)
}

func (s *Simulator) onAdvice(_ paho.Client, msg paho.Message) {
	var d model.Decision
	if err := json.Unmarshal(msg.Payload(), &d); err != nil {
		log.Printf("decode advice: %v", err)
		return
	}
	log.Printf("%s: advice %s severity %s", s.cfg.CarID, d.CycleID, d.Severity)
	if !d.IsCritical() {
		return
	}
	select {
	case s.ackCh <- d.CycleID:
	default:
		log.Printf("%s: ack queue full, dropping cycle %s", s.cfg.CarID, d.CycleID)
	}
}

func (s *Simulator) ackWorker(ctx context.Context) {
	for {
		select {
		case cycleID, ok := <-s.ackCh:
			if !ok {
				return
			}
			s.strat.Ack(ctx, s.cli, s.cfg.AckPrefix, cycleID)
		case <-ctx.Done():
			return
		}
	}
}
