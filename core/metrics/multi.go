package metrics

// MultiSink fanouts advisory events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycleResult forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCycleResult(res CycleResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycleResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordPredictorRuns forwards per-model run records when supported by the sink.
func (m *MultiSink) RecordPredictorRuns(runs []PredictorRun) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PredictorRunRecorder); ok {
			if err := rec.RecordPredictorRuns(runs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAction forwards cascade action events.
func (m *MultiSink) RecordAction(ev ActionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ActionRecorder); ok {
			if err := rec.RecordAction(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAdvisoryAck forwards crew acknowledgment events.
func (m *MultiSink) RecordAdvisoryAck(ev AdvisoryAckEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AckRecorder); ok {
			if err := rec.RecordAdvisoryAck(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFallback forwards fallback events.
func (m *MultiSink) RecordFallback(ev FallbackEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTelemetry forwards telemetry snapshots.
func (m *MultiSink) RecordTelemetry(ev TelemetryEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TelemetryRecorder); ok {
			if err := rec.RecordTelemetry(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRaceContext forwards race context snapshots.
func (m *MultiSink) RecordRaceContext(ev RaceContextEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RaceContextRecorder); ok {
			if err := rec.RecordRaceContext(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
