package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/monitoring"
	coremqtt "github.com/aryanzkys/apatte-pitbox/core/mqtt"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
)

// Default topics of the advisory surface.
const (
	DefaultAdviceTopic = "pitbox/advice"
	DefaultAckPrefix   = "pitbox/advice/ack"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	AdviceTopic string          `json:"advice_topic"`
	AckPrefix   string          `json:"ack_prefix"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	QoS         map[string]byte `json:"qos"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`
	TLSConfig   *tls.Config     `json:"-"`
}

// SetDefaults fills the topic layout and the offline will.
func (c *Config) SetDefaults() {
	if c.AdviceTopic == "" {
		c.AdviceTopic = DefaultAdviceTopic
	}
	if c.AckPrefix == "" {
		c.AckPrefix = DefaultAckPrefix
	}
	if c.LWTTopic == "" {
		c.LWTTopic = "pitbox/status"
		c.LWTPayload = `{"status":"advisor offline"}`
		c.LWTQoS = 1
		c.LWTRetain = true
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the AdvisoryPublisher interface using Eclipse Paho.
type PahoClient struct {
	cli         pahoClient
	adviceTopic string
	ackPrefix   string
	qos         map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the crew
// acknowledgment topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger := logger.New("mqtt_client")
	pc := &PahoClient{
		adviceTopic: cfg.AdviceTopic,
		ackPrefix:   strings.TrimSuffix(cfg.AckPrefix, "/"),
		ackChans:    make(map[string]chan struct{}),
		logger:      logger,
		qos:         cfg.QoS,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		logger.Infof("MQTT connected")
		qos := byte(1)
		if q, ok := pc.qos["ack"]; ok {
			qos = q
		}
		if token := c.Subscribe(pc.ackPrefix+"/+", qos, pc.onAck); token.Wait() && token.Error() != nil {
			logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// onAck matches the cycle from the topic suffix, falling back to the
// payload when the crew tool publishes on the bare prefix.
func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	cycleID := strings.TrimPrefix(msg.Topic(), p.ackPrefix+"/")
	if cycleID == "" || cycleID == msg.Topic() {
		var m struct {
			CycleID string `json:"cycle_id"`
		}
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			p.logger.Errorf("failed to decode ack: %v", err)
			return
		}
		cycleID = m.CycleID
	}
	p.mu.Lock()
	ch, ok := p.ackChans[cycleID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Infof("received ack for cycle %s", cycleID)
	}
	p.mu.Unlock()
}

// severityQoS scales delivery guarantees with urgency: critical advice is
// published exactly-once and retained so a reconnecting crew display
// still sees it.
func (p *PahoClient) severityQoS(sev model.Severity) (byte, bool) {
	switch {
	case sev >= model.SeverityCritical:
		return 2, true
	case sev >= model.SeverityHigh:
		return 1, false
	default:
		qos := byte(0)
		if q, ok := p.qos["advice"]; ok {
			qos = q
		}
		return qos, false
	}
}

// PublishDecision pushes the decision to the advice topic and registers
// its cycle for acknowledgment tracking.
func (p *PahoClient) PublishDecision(d model.Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	qos, retained := p.severityQoS(d.Severity)

	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.adviceTopic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published %s advice for cycle %s", d.Severity, d.CycleID)
			break
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	if publishErr != nil {
		monitoring.CaptureException(publishErr, map[string]string{
			"cycle_id": d.CycleID,
			"module":   "mqtt",
		})
		return publishErr
	}

	p.mu.Lock()
	p.ackChans[d.CycleID] = make(chan struct{}, 1)
	p.mu.Unlock()
	return nil
}

// WaitForAck blocks until a crew ACK for the cycle arrives or the timeout
// expires.
func (p *PahoClient) WaitForAck(cycleID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[cycleID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("unknown cycle")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		p.mu.Lock()
		delete(p.ackChans, cycleID)
		p.mu.Unlock()
		return true, nil
	case <-timer.C:
		p.mu.Lock()
		delete(p.ackChans, cycleID)
		p.mu.Unlock()
		return false, fmt.Errorf("%w", coremqtt.ErrAckTimeout)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
