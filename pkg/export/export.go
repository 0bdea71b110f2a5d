// Package export serializes decision history for post-race analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// WriteJSON writes the decision history to w in JSON format.
func WriteJSON(w io.Writer, decisions []model.Decision) error {
	enc := json.NewEncoder(w)
	return enc.Encode(decisions)
}

// WriteCSV writes the decision history to w as one row per decision,
// with the executed model list flattened for spreadsheet use.
func WriteCSV(w io.Writer, decisions []model.Decision) error {
	cw := csv.NewWriter(w)
	header := []string{
		"cycle_id", "timestamp", "severity", "primary_action",
		"race_phase", "lap", "count_alerts", "total_inference_ms",
		"fallback", "models_executed", "models_skipped",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range decisions {
		rec := []string{
			d.CycleID,
			d.Timestamp.Format(time.RFC3339),
			d.Severity.String(),
			d.Primary.Kind.String(),
			d.Phase.String(),
			strconv.Itoa(d.Lap),
			strconv.Itoa(d.AlertCount),
			strconv.FormatFloat(d.InferenceMillis, 'f', 3, 64),
			strconv.FormatBool(d.Fallback),
			strings.Join(d.ModelsExecuted, "|"),
			strings.Join(d.ModelsSkipped, "|"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
