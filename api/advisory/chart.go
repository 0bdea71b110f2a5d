package advisory

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// DecisionChartHTML renders the decision history as a severity and
// inference-latency timeline for the pit wall display.
func DecisionChartHTML(decisions []model.Decision) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Advisory Timeline"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Severity / Latency (ms)"}),
	)

	var xAxis []string
	var severity []opts.LineData
	var latency []opts.LineData
	for _, d := range decisions {
		xAxis = append(xAxis, fmt.Sprintf("L%d %s", d.Lap, d.Timestamp.Format("15:04:05")))
		severity = append(severity, opts.LineData{Value: int(d.Severity)})
		latency = append(latency, opts.LineData{Value: d.InferenceMillis})
	}

	line.SetXAxis(xAxis).
		AddSeries("Severity", severity).
		AddSeries("Inference ms", latency)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %v", err)
	}
	return buf.String(), nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	decisions, err := s.decisionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Chronological order reads better on a timeline.
	for i, j := 0, len(decisions)-1; i < j; i, j = i+1, j-1 {
		decisions[i], decisions[j] = decisions[j], decisions[i]
	}
	html, err := DecisionChartHTML(decisions)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(html)); err != nil {
		s.log.Errorf("write chart: %v", err)
	}
}
