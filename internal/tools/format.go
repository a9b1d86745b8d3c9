package tools

import (
	"time"

	"opscheck/internal/abc"
	"opscheck/internal/check"
)

// maxLogEntries caps the log entries included in a report. The level
// breakdown always covers the full result set.
const maxLogEntries = 50

// report is the tool's JSON output.
type report struct {
	Query   string                 `json:"query"`
	Intent  reportIntent           `json:"intent"`
	Checks  map[string]interface{} `json:"checks"`
	Errors  []string               `json:"errors,omitempty"`
	Summary reportSummary          `json:"summary"`
}

type reportIntent struct {
	Kinds      []check.Kind `json:"check_types"`
	Confidence float64      `json:"confidence"`
}

type reportSummary struct {
	Performed       int       `json:"checks_performed"`
	Failed          int       `json:"checks_failed"`
	ExecutionTimeMS float64   `json:"execution_time_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

func buildReport(req check.Request, result check.Result) report {
	checks := make(map[string]interface{}, len(result.Entries))
	for _, e := range result.Entries {
		if !e.OK() {
			continue
		}
		checks[string(e.Kind)] = formatPayload(e.Payload)
	}

	return report{
		Query: req.Query,
		Intent: reportIntent{
			Kinds:      req.Kinds,
			Confidence: req.Confidence,
		},
		Checks: checks,
		Errors: result.Errors(),
		Summary: reportSummary{
			Performed:       result.Performed,
			Failed:          result.Failed,
			ExecutionTimeMS: result.ElapsedMS,
			Timestamp:       result.Timestamp,
		},
	}
}

// formatPayload summarizes one check payload. List payloads get count
// rollups so callers do not have to scan raw arrays; scalar payloads pass
// through unchanged.
func formatPayload(payload interface{}) interface{} {
	switch p := payload.(type) {
	case []abc.UserStatus:
		active := 0
		for _, u := range p {
			if u.Status == "active" {
				active++
			}
		}
		return map[string]interface{}{
			"total_users":  len(p),
			"active_users": active,
			"users":        p,
		}

	case []abc.ServiceInfo:
		running := 0
		for _, s := range p {
			if s.Status == "running" {
				running++
			}
		}
		return map[string]interface{}{
			"total_services":   len(p),
			"running_services": running,
			"services":         p,
		}

	case []abc.LogEntry:
		breakdown := make(map[string]int)
		for _, e := range p {
			breakdown[e.Level]++
		}
		entries := p
		if len(entries) > maxLogEntries {
			entries = entries[:maxLogEntries]
		}
		return map[string]interface{}{
			"total_entries":   len(p),
			"level_breakdown": breakdown,
			"entries":         entries,
		}

	default:
		return p
	}
}
