// Package intent maps free-text queries (English or Vietnamese) to the set
// of system checks they request. Classification is pure pattern matching
// over closed rule tables; there is no I/O and identical input always
// produces identical output.
package intent

import (
	"regexp"
	"strings"

	"opscheck/internal/check"
)

// Language identifies a supported query language.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageVietnamese Language = "vi"
)

// rule binds one check kind to its ordered pattern list for one language.
type rule struct {
	kind     check.Kind
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// ruleTable is the ordered rule list for one language. Order matters only
// for readability; every kind whose patterns match is collected.
type ruleTable struct {
	language Language
	all      []*regexp.Regexp // full-scan patterns, checked before per-kind rules
	rules    []rule
}

var englishRules = ruleTable{
	language: LanguageEnglish,
	all: compileAll(
		`(check|scan).*(all|everything|full)`,
		`(full|complete).*(system|check|scan)`,
		`(system|server).*(overview|summary)`,
		`everything`,
	),
	rules: []rule{
		{check.KindHealth, compileAll(
			`(check|verify).*(system|health)`,
			`(system|server).*(health|status)`,
			`is.*(system|server).*(up|running|healthy)`,
		)},
		{check.KindUsers, compileAll(
			`(user|users).*(status|active|online)`,
			`(check|list).*(user|users|account)`,
			`who.*(online|active|logged in)`,
			`(how many|count).*(user|users)`,
		)},
		{check.KindServices, compileAll(
			`(service|services).*(list|available|running)`,
			`(check|list).*(service|services|api)`,
			`what.*(service|services).*(running|available)`,
			`(show|get).*(service|services)`,
		)},
		{check.KindLogs, compileAll(
			`(log|logs).*(recent|latest|last)`,
			`(check|view|show).*(log|logs)`,
			`(error|warning).*(log|logs)`,
			`(search|find).*(log|logs)`,
		)},
		{check.KindMetrics, compileAll(
			`(metric|metrics).*(current|now|latest)`,
			`(system|server).*(performance|metric)`,
			`(cpu|memory|disk|network).*(usage|utilization)`,
			`(check|show|get).*(metric|metrics|performance)`,
		)},
	},
}

var vietnameseRules = ruleTable{
	language: LanguageVietnamese,
	all: compileAll(
		`(kiểm tra|check).*(toàn bộ|tất cả|all|everything)`,
		`(toàn bộ|tất cả).*(hệ thống|system)`,
		`(overview|tổng quan).*(hệ thống|system)`,
	),
	rules: []rule{
		{check.KindHealth, compileAll(
			`(kiểm tra|check).*(hệ thống|system|health|sức khỏe)`,
			`(health|sức khỏe).*(hệ thống|system)`,
			`(status|trạng thái).*(hệ thống|system)`,
			`hệ thống.*(hoạt động|running|ok)`,
		)},
		{check.KindUsers, compileAll(
			`(người dùng|user).*(status|trạng thái|đang|online)`,
			`(kiểm tra|check).*(user|người dùng|account|tài khoản)`,
			`(ai|who).*(đang|currently).*(online|active)`,
			`số lượng.*(user|người dùng)`,
		)},
		{check.KindServices, compileAll(
			`(dịch vụ|service).*(nào|list|danh sách)`,
			`(kiểm tra|check).*(service|dịch vụ|api)`,
			`các.*(service|dịch vụ).*(đang chạy|running)`,
			`danh sách.*(service|dịch vụ)`,
		)},
		{check.KindLogs, compileAll(
			`(log|nhật ký|lịch sử).*(gần đây|recent|latest)`,
			`(kiểm tra|check|xem).*(log|nhật ký)`,
			`(error|lỗi).*(log|nhật ký)`,
			`(tìm|search).*(log|nhật ký)`,
		)},
		{check.KindMetrics, compileAll(
			`(metric|chỉ số|số liệu).*(hiện tại|current|now)`,
			`(hiệu suất|performance).*(hệ thống|system)`,
			`(cpu|memory|ram|disk).*(usage|sử dụng)`,
			`(kiểm tra|check|lấy).*(metric|chỉ số|performance)`,
		)},
	},
}

// tables lists the per-language rule tables in evaluation order.
var tables = []ruleTable{englishRules, vietnameseRules}

// Filters carries explicit sub-parameters supplied alongside a query. Values
// set here take precedence over anything inferred from the query text.
type Filters struct {
	LogTimeframe string
	LogLevel     string
	LogService   string
}

// Classifier turns a raw query plus optional filters into a check.Request.
// The zero value is not usable; construct with New.
type Classifier struct{}

// New returns a ready-to-use classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify parses a free-text query and merges explicit filters into the
// result. The returned request always has a non-empty kind set: a query
// matching no rule resolves to all five kinds, preferring over-fetching to
// returning nothing.
func (c *Classifier) Classify(query string, filters Filters) check.Request {
	text := strings.ToLower(strings.TrimSpace(query))

	req := check.Request{
		Query: query,
		Logs:  check.DefaultLogQuery(),
	}

	switch kinds, matched := matchKinds(text); {
	case matched == 0:
		req.Kinds = check.AllKinds()
		req.Confidence = 0.3
	case kinds == nil:
		// Full-scan pattern hit.
		req.Kinds = check.AllKinds()
		req.Confidence = 0.95
	default:
		req.Kinds = kinds
		req.Confidence = 0.5 + float64(matched)*0.15
		if req.Confidence > 0.9 {
			req.Confidence = 0.9
		}
	}

	if req.Wants(check.KindLogs) || req.Wants(check.KindMetrics) {
		req.Logs.Timeframe = parseTimeframe(text)
		req.Logs.Level = parseLogLevel(text)
		req.Logs.Service = parseServiceName(text)
		req.Logs.Search = parseSearchTerm(text)
	}

	applyFilters(&req, filters)
	return req
}

// matchKinds evaluates the rule tables against the query. It returns
// (nil, 1) when a full-scan pattern matched, the matched kinds in canonical
// order otherwise. matched is the number of distinct kinds hit, 0 for none.
func matchKinds(text string) ([]check.Kind, int) {
	for _, table := range tables {
		for _, re := range table.all {
			if re.MatchString(text) {
				return nil, 1
			}
		}
	}

	hit := make(map[check.Kind]bool)
	for _, table := range tables {
		for _, r := range table.rules {
			if hit[r.kind] {
				continue
			}
			for _, re := range r.patterns {
				if re.MatchString(text) {
					hit[r.kind] = true
					break
				}
			}
		}
	}

	if len(hit) == 0 {
		return nil, 0
	}

	var kinds []check.Kind
	for _, k := range check.AllKinds() {
		if hit[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, len(kinds)
}

func applyFilters(req *check.Request, filters Filters) {
	if filters.LogTimeframe != "" {
		req.Logs.Timeframe = filters.LogTimeframe
	}
	if filters.LogLevel != "" {
		req.Logs.Level = filters.LogLevel
	}
	if filters.LogService != "" {
		req.Logs.Service = filters.LogService
	}
}
