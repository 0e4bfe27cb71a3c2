package schema

import (
	"strings"
)

// sourceRange maps a line span in the concatenated script back to one asset.
type sourceRange struct {
	start int // first script line, 1-based inclusive
	end   int // last script line, 1-based inclusive
	asset string
}

// SourceMap tracks which rendered asset each line of the concatenated
// script came from, for error attribution.
type SourceMap struct {
	ranges []sourceRange
}

// Resolve returns the asset name and asset-local line for a script line.
func (sm *SourceMap) Resolve(scriptLine int) (asset string, localLine int, found bool) {
	for _, r := range sm.ranges {
		if scriptLine >= r.start && scriptLine <= r.end {
			return r.asset, scriptLine - r.start + 1, true
		}
	}
	return "", 0, false
}

// concatenate joins rendered assets into one script, recording the line
// range each asset occupies.
func concatenate(names, rendered []string) (string, *SourceMap) {
	var b strings.Builder
	sm := &SourceMap{}
	line := 1
	for i, content := range rendered {
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		n := strings.Count(content, "\n")
		sm.ranges = append(sm.ranges, sourceRange{
			start: line,
			end:   line + n - 1,
			asset: names[i],
		})
		b.WriteString(content)
		line += n
	}
	return b.String(), sm
}
