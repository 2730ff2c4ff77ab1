// Package progress renders batch progress events into user-facing text.
// Rendering is pure and side-effect free; delivery of the rendered text is
// the caller's concern.
package progress

import (
	"strconv"
	"strings"

	"github.com/xeptore/musicflow/pipeline"
)

const barWidth = 10

// Bar renders a fixed-width completion bar for completed out of total jobs.
func Bar(completed, total int) string {
	if total <= 0 {
		return strings.Repeat("░", barWidth)
	}

	filled := completed * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// Percent returns the integer completion percentage, clamped to [0, 100].
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}

	p := completed * 100 / total
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Render formats one progress event as a short status line suitable for an
// in-place message edit.
func Render(ev pipeline.ProgressEvent) string {
	var b strings.Builder
	b.WriteString(Bar(ev.Completed, ev.Total))
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(Percent(ev.Completed, ev.Total)))
	b.WriteString("% (")
	b.WriteString(strconv.Itoa(ev.Completed))
	b.WriteString("/")
	b.WriteString(strconv.Itoa(ev.Total))
	b.WriteString(")")

	if ev.Title != "" {
		if nil != ev.Failure {
			b.WriteString("\n✗ ")
		} else {
			b.WriteString("\n✓ ")
		}

		b.WriteString(ev.Title)
		if ev.Artist != "" {
			b.WriteString(" · ")
			b.WriteString(ev.Artist)
		}

		if nil != ev.Failure {
			b.WriteString(" (")
			b.WriteString(ev.Failure.Kind.String())
			b.WriteString(")")
		}
	}

	return b.String()
}
