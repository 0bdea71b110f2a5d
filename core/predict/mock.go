package predict

import (
	"sync"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// MockPredictor is a scriptable predictor for tests and scenario replays.
// It returns a fixed result (or error) and can simulate slow inference.
type MockPredictor struct {
	Identifier model.PredictorID
	Result     any
	Err        error
	Delay      time.Duration

	mu    sync.Mutex
	calls int
}

func (m *MockPredictor) ID() model.PredictorID { return m.Identifier }

func (m *MockPredictor) Predict(model.TelemetrySample) (any, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Calls reports how many times Predict ran.
func (m *MockPredictor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
