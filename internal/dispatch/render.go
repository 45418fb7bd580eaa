package dispatch

import (
	"fmt"
	"strings"

	"github.com/starford/jarvis/internal/intent"
)

// Result markers.
const (
	MarkOK   = "✅"
	MarkFail = "❌"
)

// RenderResult renders one result as "✅ message" or "❌ message". Answers
// pass through without a marker.
func RenderResult(r Result) string {
	if r.Action == intent.ActionNone && r.Success {
		return r.Message
	}
	return mark(r) + " " + r.Message
}

func mark(r Result) string {
	if r.Success {
		return MarkOK
	}
	return MarkFail
}

// Render renders a report. Batches become a numbered list under a header.
func Render(rep Report) string {
	if !rep.Batch {
		lines := make([]string, 0, len(rep.Results))
		for _, r := range rep.Results {
			lines = append(lines, RenderResult(r))
		}
		return strings.Join(lines, "\n\n")
	}
	if len(rep.Results) == 0 {
		return MarkFail + " The request contained no actions."
	}
	items := make([]string, 0, len(rep.Results))
	for i, r := range rep.Results {
		pos := r.Position
		if pos == 0 {
			pos = i + 1
		}
		items = append(items, fmt.Sprintf("%d. %s %s", pos, mark(r), r.Message))
	}
	return MarkOK + " Actions completed:\n\n" + strings.Join(items, "\n\n")
}
