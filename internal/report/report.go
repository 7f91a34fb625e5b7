package report

import (
	"strings"

	"github.com/Borislavv/go-ash-compactor/model"
)

// Builder renders one line per (target, outcome) pair in the order they are appended.
// The document starts with a line break and every line ends with one.
type Builder struct {
	sb                         strings.Builder
	lines                      int
	succeeded, failed, skipped int
}

func New() *Builder {
	b := &Builder{}
	b.sb.WriteString("\n")
	return b
}

func (b *Builder) Append(target model.Target, outcome model.Outcome) {
	b.sb.WriteString("disk store: ")
	b.sb.WriteString(target.DiskStoreName())
	b.sb.WriteString(" type: ")
	b.sb.WriteString(target.Classification().String())
	b.sb.WriteString(" source: ")
	b.sb.WriteString(target.Source())

	switch outcome.Kind {
	case model.OutcomeSucceeded:
		b.succeeded++
		b.sb.WriteString(" compaction successful")
	case model.OutcomeSkipped:
		b.skipped++
		b.sb.WriteString(" cannot be compacted - ")
		b.sb.WriteString(outcome.Reason)
	default:
		b.failed++
		b.sb.WriteString(" compaction failed")
		if outcome.Cause != nil {
			b.sb.WriteString(" exception: ")
			b.sb.WriteString(singleLine(outcome.Cause.Error()))
		}
	}

	b.sb.WriteString("\n")
	b.lines++
}

func (b *Builder) String() string { return b.sb.String() }
func (b *Builder) Lines() int     { return b.lines }

// Counts tallies outcomes by kind. It is meant for logs and telemetry;
// callers of the function only ever see the text document.
func (b *Builder) Counts() (succeeded, failed, skipped int) {
	return b.succeeded, b.failed, b.skipped
}

// singleLine keeps one report line per target even when an error message spans lines.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
