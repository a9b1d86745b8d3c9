package strings

import "testing"

func TestTruncateQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "check all systems",
			maxLen:   40,
			expected: "check all systems",
		},
		{
			name:     "long string truncated",
			input:    "show me all the error logs from every service for the whole week",
			maxLen:   20,
			expected: "show me all the e...",
		},
		{
			name:     "newlines flattened",
			input:    "check\nall\nsystems",
			maxLen:   40,
			expected: "check all systems",
		},
		{
			name:     "whitespace collapsed",
			input:    "  check   all\t systems ",
			maxLen:   40,
			expected: "check all systems",
		},
		{
			name:     "vietnamese not cut mid-character",
			input:    "kiểm tra toàn bộ hệ thống ngay bây giờ",
			maxLen:   12,
			expected: "kiểm tra ...",
		},
		{
			name:     "tiny maxLen clamped",
			input:    "abcdefgh",
			maxLen:   1,
			expected: "a...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateQuery(tt.input, tt.maxLen)
			if got != tt.expected {
				t.Errorf("TruncateQuery(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
