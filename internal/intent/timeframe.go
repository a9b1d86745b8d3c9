package intent

import (
	"regexp"
	"strings"
)

// timeframeRule converts a matched time expression into the canonical
// compact form the ABC log API expects ("15m", "1h", "7d", ...).
type timeframeRule struct {
	re      *regexp.Regexp
	convert func(match []string) string
}

var timeframeRules = []timeframeRule{
	{regexp.MustCompile(`(\d+)\s*(phút|minute|min)`), func(m []string) string { return m[1] + "m" }},
	{regexp.MustCompile(`(\d+)\s*(giờ|hour|h)`), func(m []string) string { return m[1] + "h" }},
	{regexp.MustCompile(`(\d+)\s*(ngày|day|d)`), func(m []string) string { return m[1] + "d" }},
	{regexp.MustCompile(`1\s*(tuần|week|w)`), func(m []string) string { return "7d" }},
	{regexp.MustCompile(`hôm nay|today`), func(m []string) string { return "24h" }},
	{regexp.MustCompile(`gần đây|recent|latest`), func(m []string) string { return "1h" }},
}

// defaultTimeframe is used when the text carries no recognizable window.
const defaultTimeframe = "1h"

func parseTimeframe(text string) string {
	for _, rule := range timeframeRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			return rule.convert(m)
		}
	}
	return defaultTimeframe
}

// logLevelRules maps level mentions in either language to canonical levels.
// Ordered: more severe levels are checked first so "critical error logs"
// resolves to critical.
var logLevelRules = []struct {
	re    *regexp.Regexp
	level string
}{
	{regexp.MustCompile(`critical|nghiêm trọng`), "critical"},
	{regexp.MustCompile(`error|lỗi`), "error"},
	{regexp.MustCompile(`warning|cảnh báo`), "warning"},
	{regexp.MustCompile(`info|thông tin`), "info"},
	{regexp.MustCompile(`debug`), "debug"},
}

func parseLogLevel(text string) string {
	for _, rule := range logLevelRules {
		if rule.re.MatchString(text) {
			return rule.level
		}
	}
	return ""
}

var serviceNameRules = compileAll(
	`service[=:\s]+([a-zA-Z0-9_-]+)`,
	`from\s+([a-zA-Z0-9_-]+)\s+service`,
	`của\s+([a-zA-Z0-9_-]+)`,
)

func parseServiceName(text string) string {
	for _, re := range serviceNameRules {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

var searchTermRules = compileAll(
	`search\s+(?:for\s+)?['"]?([^'"]+)['"]?`,
	`tìm\s+['"]?([^'"]+)['"]?`,
	`find\s+['"]?([^'"]+)['"]?`,
)

func parseSearchTerm(text string) string {
	for _, re := range searchTermRules {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
