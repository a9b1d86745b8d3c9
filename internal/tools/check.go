// Package tools defines the tools this server exposes over the protocol.
// Each tool pairs an input-schema descriptor with a handler that runs the
// request against the ABC system.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"opscheck/internal/check"
	"opscheck/internal/intent"
	"opscheck/internal/protocol"
	"opscheck/pkg/logging"
	pkgstrings "opscheck/pkg/strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CheckSystemABCName is the wire name of the system check tool.
const CheckSystemABCName = "check_system_abc"

// Aggregator runs the requested checks against the ABC system. Satisfied
// by *abc.Client.
type Aggregator interface {
	Run(ctx context.Context, req check.Request) check.Result
}

// CheckSystemABC builds the system check tool: it classifies the caller's
// free-text query, runs the matching checks concurrently and returns a
// formatted report.
func CheckSystemABC(classifier *intent.Classifier, agg Aggregator) protocol.RegisteredTool {
	return protocol.RegisteredTool{
		Tool: mcp.Tool{
			Name: CheckSystemABCName,
			Description: "Check the ABC system: health, user status, services, logs and metrics. " +
				"Accepts natural-language queries in English or Vietnamese, e.g. " +
				"\"Check all systems\" or \"Kiểm tra lỗi hệ thống\".",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Free-text status query in English or Vietnamese",
					},
					"filters": map[string]interface{}{
						"type":        "object",
						"description": "Explicit log filters, overriding anything inferred from the query",
						"properties": map[string]interface{}{
							"log_timeframe": map[string]interface{}{
								"type":        "string",
								"description": "Log window such as 30m, 2h or 1d",
							},
							"log_level": map[string]interface{}{
								"type":        "string",
								"description": "Minimum log level: debug, info, warning, error or critical",
							},
							"log_service": map[string]interface{}{
								"type":        "string",
								"description": "Restrict logs to one service",
							},
						},
					},
				},
				Required: []string{"query"},
			},
		},
		Handler: checkHandler(classifier, agg),
	}
}

func checkHandler(classifier *intent.Classifier, agg Aggregator) protocol.ToolHandler {
	return func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("query must not be empty")
		}

		req := classifier.Classify(query, parseFilters(args["filters"]))
		logging.Info("Tools", "Query %q resolved to %v (confidence %.2f)",
			pkgstrings.TruncateQuery(query, pkgstrings.DefaultQueryMaxLen), req.Kinds, req.Confidence)

		result := agg.Run(ctx, req)

		data, err := json.MarshalIndent(buildReport(req, result), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding report: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func parseFilters(raw interface{}) intent.Filters {
	var f intent.Filters
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return f
	}
	f.LogTimeframe, _ = obj["log_timeframe"].(string)
	f.LogLevel, _ = obj["log_level"].(string)
	f.LogService, _ = obj["log_service"].(string)
	return f
}
