package metrics

import "github.com/aryanzkys/apatte-pitbox/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
