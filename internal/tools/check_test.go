package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"opscheck/internal/abc"
	"opscheck/internal/check"
	"opscheck/internal/intent"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAggregator records the request and replies with a canned result.
type fakeAggregator struct {
	req    check.Request
	result check.Result
}

func (f *fakeAggregator) Run(ctx context.Context, req check.Request) check.Result {
	f.req = req
	return f.result
}

func cannedResult() check.Result {
	return check.Result{
		Entries: []check.Entry{
			{Kind: check.KindHealth, Payload: &abc.HealthStatus{Status: "healthy"}},
			{Kind: check.KindUsers, Payload: []abc.UserStatus{
				{UserID: "u1", Status: "active"},
				{UserID: "u2", Status: "idle"},
			}},
		},
		Performed: 2,
		Failed:    0,
		ElapsedMS: 12.5,
		Timestamp: time.Now().UTC(),
	}
}

func callTool(t *testing.T, agg Aggregator, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool := CheckSystemABC(intent.New(), agg)
	result, err := tool.Handler(context.Background(), args)
	require.NoError(t, err)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestCheckSystemABC_Descriptor(t *testing.T) {
	tool := CheckSystemABC(intent.New(), &fakeAggregator{})

	assert.Equal(t, "check_system_abc", tool.Tool.Name)
	assert.Equal(t, []string{"query"}, tool.Tool.InputSchema.Required)
	assert.Contains(t, tool.Tool.InputSchema.Properties, "query")
	assert.Contains(t, tool.Tool.InputSchema.Properties, "filters")
}

func TestCheckSystemABC_ClassifiesAndRuns(t *testing.T) {
	agg := &fakeAggregator{result: cannedResult()}
	result := callTool(t, agg, map[string]interface{}{"query": "Check all systems"})

	assert.False(t, result.IsError)
	assert.Equal(t, check.AllKinds(), agg.req.Kinds)

	var rep struct {
		Query  string                     `json:"query"`
		Checks map[string]json.RawMessage `json:"checks"`
		Intent struct {
			Confidence float64 `json:"confidence"`
		} `json:"intent"`
		Summary struct {
			Performed int `json:"checks_performed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &rep))
	assert.Equal(t, "Check all systems", rep.Query)
	assert.Equal(t, 2, rep.Summary.Performed)
	assert.InDelta(t, 0.95, rep.Intent.Confidence, 0.001)
	assert.Contains(t, rep.Checks, "health")
	assert.Contains(t, rep.Checks, "users")
}

func TestCheckSystemABC_FiltersOverrideQuery(t *testing.T) {
	agg := &fakeAggregator{result: cannedResult()}
	callTool(t, agg, map[string]interface{}{
		"query": "Show error logs from the last 2 hours",
		"filters": map[string]interface{}{
			"log_timeframe": "30m",
			"log_level":     "critical",
			"log_service":   "auth",
		},
	})

	assert.Equal(t, "30m", agg.req.Logs.Timeframe)
	assert.Equal(t, "critical", agg.req.Logs.Level)
	assert.Equal(t, "auth", agg.req.Logs.Service)
}

func TestCheckSystemABC_EmptyQueryFails(t *testing.T) {
	tool := CheckSystemABC(intent.New(), &fakeAggregator{})

	for _, query := range []interface{}{"", "   ", nil} {
		_, err := tool.Handler(context.Background(), map[string]interface{}{"query": query})
		assert.Error(t, err, "query %v", query)
	}
}

func TestCheckSystemABC_FailuresReported(t *testing.T) {
	agg := &fakeAggregator{result: check.Result{
		Entries: []check.Entry{
			{Kind: check.KindHealth, Payload: &abc.HealthStatus{Status: "healthy"}},
			{Kind: check.KindUsers, Err: "api error (status 500): boom"},
		},
		Performed: 2,
		Failed:    1,
		Timestamp: time.Now().UTC(),
	}}
	result := callTool(t, agg, map[string]interface{}{"query": "check users and health"})

	text := resultText(t, result)
	var rep struct {
		Errors []string                   `json:"errors"`
		Checks map[string]json.RawMessage `json:"checks"`
		Summary struct {
			Failed int `json:"checks_failed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &rep))
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "users:")
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Contains(t, rep.Checks, "health")
	assert.NotContains(t, rep.Checks, "users")
}

func TestFormatPayload_Rollups(t *testing.T) {
	t.Run("users", func(t *testing.T) {
		out := formatPayload([]abc.UserStatus{
			{UserID: "u1", Status: "active"},
			{UserID: "u2", Status: "active"},
			{UserID: "u3", Status: "idle"},
		}).(map[string]interface{})
		assert.Equal(t, 3, out["total_users"])
		assert.Equal(t, 2, out["active_users"])
	})

	t.Run("services", func(t *testing.T) {
		out := formatPayload([]abc.ServiceInfo{
			{ServiceID: "s1", Status: "running"},
			{ServiceID: "s2", Status: "stopped"},
		}).(map[string]interface{})
		assert.Equal(t, 2, out["total_services"])
		assert.Equal(t, 1, out["running_services"])
	})

	t.Run("logs capped with full breakdown", func(t *testing.T) {
		logs := make([]abc.LogEntry, 75)
		for i := range logs {
			level := "info"
			if i%5 == 0 {
				level = "error"
			}
			logs[i] = abc.LogEntry{Level: level, Message: "m"}
		}

		out := formatPayload(logs).(map[string]interface{})
		assert.Equal(t, 75, out["total_entries"])
		assert.Len(t, out["entries"], maxLogEntries)

		breakdown := out["level_breakdown"].(map[string]int)
		assert.Equal(t, 15, breakdown["error"])
		assert.Equal(t, 60, breakdown["info"])
	})

	t.Run("scalar payloads pass through", func(t *testing.T) {
		metrics := &abc.SystemMetrics{CPUUsage: 42}
		assert.Equal(t, metrics, formatPayload(metrics))
	})
}
