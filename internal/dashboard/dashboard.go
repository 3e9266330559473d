// Package dashboard serves the session cost dashboard.
//
// DESIGN: Read-only views over one Calculator's ledger plus the tracking
// metrics. Three endpoints: HTML page (auto-refreshing), JSON summary, and a
// WebSocket live feed pushing summary snapshots.
package dashboard

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
	"github.com/tokenmeter/tokenmeter/internal/monitoring"
)

// recentRecordLimit caps how many ledger rows the HTML page renders.
const recentRecordLimit = 50

// Server renders dashboard views for one session ledger.
type Server struct {
	calc    *ledger.Calculator
	metrics *monitoring.Metrics
}

// NewServer creates a dashboard server. metrics may be nil.
func NewServer(calc *ledger.Calculator, metrics *monitoring.Metrics) *Server {
	return &Server{calc: calc, metrics: metrics}
}

// Routes returns the dashboard mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleDashboard)
	mux.HandleFunc("/summary.json", s.HandleSummary)
	mux.HandleFunc("/live", s.HandleLive)
	return mux
}

// HandleSummary serves the session summary as JSON.
func (s *Server) HandleSummary(w http.ResponseWriter, _ *http.Request) {
	payload := struct {
		SessionID string               `json:"session_id"`
		Summary   ledger.Summary       `json:"summary"`
		Metrics   *monitoring.Snapshot `json:"metrics,omitempty"`
	}{
		SessionID: s.calc.ID(),
		Summary:   s.calc.Summary(),
	}
	if s.metrics != nil {
		snap := s.metrics.Snapshot()
		payload.Metrics = &snap
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleDashboard serves the cost dashboard HTML page.
func (s *Server) HandleDashboard(w http.ResponseWriter, _ *http.Request) {
	summary := s.calc.Summary()
	records := s.calc.Records()

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>tokenmeter - Session Costs</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { font-family: 'SF Mono', 'Fira Code', 'Cascadia Code', monospace; background: #0d1117; color: #c9d1d9; padding: 24px; }
  h1 { color: #58a6ff; font-size: 18px; margin-bottom: 16px; }
  .summary { display: flex; gap: 24px; margin-bottom: 24px; padding: 16px; background: #161b22; border: 1px solid #30363d; border-radius: 6px; }
  .stat { }
  .stat-label { font-size: 11px; color: #8b949e; text-transform: uppercase; letter-spacing: 1px; }
  .stat-value { font-size: 24px; font-weight: bold; color: #f0f6fc; }
  .stat-value.cost { color: #ffa657; }
  table { width: 100%; border-collapse: collapse; background: #161b22; border: 1px solid #30363d; border-radius: 6px; overflow: hidden; }
  th { text-align: left; padding: 10px 14px; font-size: 11px; color: #8b949e; text-transform: uppercase; letter-spacing: 1px; background: #0d1117; border-bottom: 1px solid #30363d; }
  td { padding: 10px 14px; font-size: 13px; border-bottom: 1px solid #21262d; }
  tr:last-child td { border-bottom: none; }
  .model { color: #d2a8ff; }
  .cost { color: #ffa657; font-weight: bold; }
  .empty { text-align: center; padding: 40px; color: #8b949e; }
  .footer { margin-top: 16px; font-size: 11px; color: #484f58; }
</style>
</head>
<body>
<h1>tokenmeter - Session Costs</h1>
<div class="summary">
  <div class="stat">
    <div class="stat-label">Total Spend</div>
    <div class="stat-value cost">`)
	fmt.Fprintf(&b, "$%s", summary.TotalCost.StringFixed(6))
	b.WriteString(`</div>
  </div>
  <div class="stat">
    <div class="stat-label">Calls</div>
    <div class="stat-value">`)
	fmt.Fprintf(&b, "%d", summary.CallCount)
	b.WriteString(`</div>
  </div>
  <div class="stat">
    <div class="stat-label">Input Tokens</div>
    <div class="stat-value">`)
	fmt.Fprintf(&b, "%d", summary.TotalInputTokens)
	b.WriteString(`</div>
  </div>
  <div class="stat">
    <div class="stat-label">Output Tokens</div>
    <div class="stat-value">`)
	fmt.Fprintf(&b, "%d", summary.TotalOutputTokens)
	b.WriteString(`</div>
  </div>`)

	if s.metrics != nil {
		snap := s.metrics.Snapshot()
		b.WriteString(`
  <div class="stat">
    <div class="stat-label">Tracking Failures</div>
    <div class="stat-value">`)
		fmt.Fprintf(&b, "%d", snap.TrackingFailures)
		b.WriteString(`</div>
  </div>`)
	}

	b.WriteString(`
</div>
`)

	if len(records) == 0 {
		b.WriteString(`<div class="empty">No calls yet. Tracked calls will appear here as they complete.</div>`)
	} else {
		b.WriteString(`<table>
<tr>
  <th>When</th>
  <th>Model</th>
  <th>Input</th>
  <th>Output</th>
  <th>Cost</th>
</tr>
`)
		start := 0
		if len(records) > recentRecordLimit {
			start = len(records) - recentRecordLimit
		}
		// Newest first
		for i := len(records) - 1; i >= start; i-- {
			r := records[i]
			fmt.Fprintf(&b, `<tr>
  <td>%s</td>
  <td class="model">%s</td>
  <td>%d</td>
  <td>%d</td>
  <td class="cost">$%s</td>
</tr>
`, agoString(time.Since(r.Timestamp)), html.EscapeString(r.Model), r.InputTokens, r.OutputTokens, r.TotalCost.StringFixed(6))
		}
		b.WriteString(`</table>`)
	}

	fmt.Fprintf(&b, `
<div class="footer">Session %s &middot; Auto-refreshes every 5 seconds</div>
</body>
</html>`, html.EscapeString(s.calc.ID()))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func agoString(ago time.Duration) string {
	switch {
	case ago < time.Minute:
		return fmt.Sprintf("%ds ago", int(ago.Seconds()))
	case ago < time.Hour:
		return fmt.Sprintf("%dm ago", int(ago.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(ago.Hours()))
	}
}
