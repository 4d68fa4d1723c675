package dokan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		expr, name string
		ignoreCase bool
		want       bool
	}{
		{"*", "anything.txt", false, true},
		{"*", "", false, true},
		{"", "", false, true},
		{"", "a", false, false},
		{"*.txt", "notes.txt", false, true},
		{"*.txt", "notes.TXT", false, false},
		{"*.txt", "notes.TXT", true, true},
		{"a?c", "abc", false, true},
		{"a?c", "ac", false, false},
		{"<.txt", "report.final.txt", false, true},
		{"<", "archive.tar.gz", false, false},
		{"<.gz", "archive.tar.gz", false, true},
		{`file"txt`, "file.txt", false, true},
		{`file"`, "file", false, true},
		{"ab>", "ab", false, true},
		{"ab>", "abc", false, true},
		{"ab>", "abcd", false, false},
		{"a*b*c", "aXXbYYc", false, true},
		{"a*b*c", "aXXbYY", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr+"|"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPattern(tt.expr, tt.name, tt.ignoreCase))
		})
	}
}
