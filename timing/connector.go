package timing

import (
	"context"
	"fmt"
	"strings"

	"github.com/aryanzkys/apatte-pitbox/config"
	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/racectx"
)

// Receiver consumes every validated standings payload.
type Receiver interface {
	ApplyStandings(Standings)
}

// Connector defines the behavior of a connector receiving standings.
type Connector interface {
	Start(ctx context.Context) error
}

// NewConnector creates a connector depending on cfg.Mode ("client" or
// "mock").
func NewConnector(cfg config.TimingConfig, r Receiver) Connector {
	switch strings.ToLower(cfg.Mode) {
	case "mock":
		return NewServerMock(cfg.Mock, r)
	default:
		return NewClient(cfg.Client, r)
	}
}

// ChannelSink merges externally sourced channels into the rolling
// telemetry sample.
type ChannelSink interface {
	Merge(sample model.TelemetrySample)
}

// Applier folds standings into the race context and, when a sink is
// given, pushes the fleet statistics into the telemetry stream.
type Applier struct {
	tracker  *racectx.Tracker
	channels ChannelSink
	log      logger.Logger
}

// NewApplier wires the standard receiver. The channel sink may be nil
// when no telemetry stream should follow the feed.
func NewApplier(tracker *racectx.Tracker, channels ChannelSink, log logger.Logger) (*Applier, error) {
	if tracker == nil || log == nil {
		return nil, fmt.Errorf("timing: nil parameter provided to NewApplier")
	}
	return &Applier{tracker: tracker, channels: channels, log: log}, nil
}

// ApplyStandings updates rank, lap and fleet statistics.
func (a *Applier) ApplyStandings(s Standings) {
	a.tracker.SetRank(s.Rank, s.Confidence)
	if s.Lap > 0 {
		a.tracker.SetLap(s.Lap)
	}
	if a.channels != nil {
		if sample := s.Channels(); len(sample) > 0 {
			a.channels.Merge(sample)
		}
	}
	a.log.Debugf("standings applied: rank %d/%d, lap %d", s.Rank, s.FleetSize, s.Lap)
}
