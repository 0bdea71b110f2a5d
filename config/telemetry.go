package config

// TelemetryConfig holds configuration for the telemetry ingest manager.
type TelemetryConfig struct {
	Enabled         bool   `json:"enabled"`
	Mode            string `json:"mode"` // push, pull or hybrid
	Topic           string `json:"topic"`
	RequestTopic    string `json:"request_topic"`
	ResponsePrefix  string `json:"response_topic_prefix"`
	IntervalSeconds int    `json:"interval_seconds"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	StaleSeconds    int    `json:"stale_seconds"`
}

// SetDefaults fills the topic layout of the advisory surface.
func (c *TelemetryConfig) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "pitbox/telemetry/#"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "pitbox/telemetry/request"
	}
	if c.ResponsePrefix == "" {
		c.ResponsePrefix = "pitbox/telemetry/response"
	}
}

func (c TelemetryConfig) Interval() int {
	if c.IntervalSeconds <= 0 {
		return 10
	}
	return c.IntervalSeconds
}

func (c TelemetryConfig) Timeout() int {
	if c.TimeoutSeconds <= 0 {
		return 3
	}
	return c.TimeoutSeconds
}

// Stale returns the age in seconds past which the latest sample is no
// longer trusted for a cycle.
func (c TelemetryConfig) Stale() int {
	if c.StaleSeconds <= 0 {
		return 30
	}
	return c.StaleSeconds
}
