package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
	coremqtt "github.com/aryanzkys/apatte-pitbox/core/mqtt"
)

// AdvisoryPublisher mirrors the core mqtt.AdvisoryPublisher interface.
type AdvisoryPublisher = coremqtt.AdvisoryPublisher

// MockPublisher is a scriptable publisher used in tests. Published
// decisions are retained; ack outcomes can be preconfigured per cycle.
type MockPublisher struct {
	mu         sync.Mutex
	Published  []model.Decision
	Fail       bool
	AckResults map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{AckResults: make(map[string]bool)}
}

// PublishDecision records the decision or fails when scripted to.
func (m *MockPublisher) PublishDecision(d model.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Published = append(m.Published, d)
	if _, ok := m.AckResults[d.CycleID]; !ok {
		m.AckResults[d.CycleID] = true
	}
	return nil
}

// WaitForAck returns the scripted outcome immediately.
func (m *MockPublisher) WaitForAck(cycleID string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[cycleID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("unknown cycle")
	}
	if !ok {
		return false, coremqtt.ErrAckTimeout
	}
	return true, nil
}

// Decisions returns a copy of everything published so far.
func (m *MockPublisher) Decisions() []model.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Decision, len(m.Published))
	copy(out, m.Published)
	return out
}
