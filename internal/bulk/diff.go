package bulk

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/sweep"
)

// levelDiff renders a unified diff of the level document an update would
// write. Empty when the action does not change level data.
func levelDiff(a *sweep.Action) string {
	if a.Kind != sweep.KindUpdate || a.Entity != domain.EntityLevel || a.LevelPatch == nil || a.LevelPatch.Data == nil {
		return ""
	}
	var current []byte
	if a.Before != nil {
		current = a.Before.Data
	}
	from, to := pretty(current), pretty(*a.LevelPatch.Data)
	if from == to {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: "current",
		ToFile:   "incoming",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func pretty(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data) + "\n"
	}
	buf.WriteByte('\n')
	return buf.String()
}

func indent(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(l)
	}
	return b.String()
}
