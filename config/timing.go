package config

import "github.com/aryanzkys/apatte-pitbox/auth"

// TimingConfig defines configuration for the standings connector.
type TimingConfig struct {
	Enabled bool               `json:"enabled"`
	Mode    string             `json:"mode"` // client or mock
	Client  TimingClientConfig `json:"client"`
	Mock    TimingMockConfig   `json:"mock"`
}

// TimingClientConfig points at the official timing tower API.
type TimingClientConfig struct {
	APIURL              string    `json:"api_url"`
	PollIntervalSeconds int       `json:"poll_interval_seconds"`
	Auth                auth.Conf `json:"auth"`
}

// TimingMockConfig configures the local injection server used on tracks
// without a timing feed.
type TimingMockConfig struct {
	Address string `json:"address"`
}
