package schema

import (
	"strings"
	"testing"
)

func TestConcatenate_ResolvesLines(t *testing.T) {
	names := []string{"first.sql", "second.sql"}
	rendered := []string{
		"line a\nline b\n",
		"line c\nline d\nline e", // no trailing newline
	}

	script, sm := concatenate(names, rendered)

	if got := strings.Count(script, "\n"); got != 5 {
		t.Errorf("script lines = %d, want 5", got)
	}

	tests := []struct {
		scriptLine int
		wantAsset  string
		wantLocal  int
	}{
		{1, "first.sql", 1},
		{2, "first.sql", 2},
		{3, "second.sql", 1},
		{5, "second.sql", 3},
	}
	for _, tt := range tests {
		asset, local, found := sm.Resolve(tt.scriptLine)
		if !found {
			t.Errorf("line %d not resolved", tt.scriptLine)
			continue
		}
		if asset != tt.wantAsset || local != tt.wantLocal {
			t.Errorf("Resolve(%d) = %s:%d, want %s:%d",
				tt.scriptLine, asset, local, tt.wantAsset, tt.wantLocal)
		}
	}

	if _, _, found := sm.Resolve(99); found {
		t.Error("line past end of script resolved")
	}
}

func TestExtractLineFromMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int
	}{
		{"syntax error marker", `syntax error at or near "DISTKEY"` + "\nLINE 42: ) DISTKEY(id)", 42},
		{"no marker", "relation does not exist", 0},
		{"malformed marker", "LINE abc: nope", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractLineFromMessage(tt.message); got != tt.want {
				t.Errorf("extractLineFromMessage = %d, want %d", got, tt.want)
			}
		})
	}
}
