// Package observability provides logging setup and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-autofill/internal/assign"
	"github.com/jonathan/cv-autofill/internal/namelock"
	"github.com/jonathan/cv-autofill/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 12
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip truncates s to max runes, marking the cut with "...".
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

// PrintFillReport outputs the counters and items of a fill report, followed
// by the debug lines when the report carries them.
func (p *Printer) PrintFillReport(r *types.FillReport) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Filled: %d, Skipped: %d, Errors: %d\n", r.Stats.Filled, r.Stats.Skipped, r.Stats.Errors))
	sb.WriteString(fmt.Sprintf("Matched: %d   Elapsed: %dms\n", r.Stats.Matched, r.ElapsedMs))
	if r.Frame.Href != "" {
		sb.WriteString(fmt.Sprintf("Page: %s\n", r.Frame.Href))
	}

	if len(r.Items) > 0 {
		sb.WriteString("\n")
		count := min(len(r.Items), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(itemLine(r.Items[i]))
			sb.WriteString("\n")
		}
		if len(r.Items) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(r.Items)-maxItemsToShow))
		}
	}

	p.printBox(fmt.Sprintf("FILL REPORT (%s)", r.Frame.Frame), strings.TrimSuffix(sb.String(), "\n"))

	if r.Debug != nil && len(r.Debug.Lines) > 0 {
		p.printBox("DEBUG", strings.Join(r.Debug.Lines, "\n\n"))
	}
}

func itemLine(it types.FillItem) string {
	name := string(it.Type)
	if name == "" {
		name = "-"
	}
	line := fmt.Sprintf("%s %-18s %4d  ", actionMark(it.Action), name, int(math.Round(it.Score)))
	switch it.Action {
	case types.ActionFilled, types.ActionDryRun:
		if it.To != nil {
			line += fmt.Sprintf("-> %q", *it.To)
		}
	default:
		line += it.Reason
	}
	return line
}

func actionMark(a types.Action) string {
	switch a {
	case types.ActionFilled:
		return "✓"
	case types.ActionDryRun:
		return "~"
	case types.ActionSkipped:
		return "-"
	default:
		return "⚠"
	}
}

// PrintMatches outputs the best match of every candidate that cleared the threshold.
func (p *Printer) PrintMatches(matches []assign.MatchResult) {
	if len(matches) == 0 {
		p.printBox("MATCHED FIELDS", "No candidate cleared the threshold")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matched %d fields:\n\n", len(matches)))
	for i, m := range matches {
		c := m.Candidate
		ident := strings.TrimSpace(c.Name + " #" + c.ID)
		sb.WriteString(fmt.Sprintf("#%d  %s (%d)  %s <%s>\n", i+1, m.FieldType, int(math.Round(m.Score)), c.Handle, ident))
		if len(m.Reasons) > 0 {
			sb.WriteString(fmt.Sprintf("    %s\n", strings.Join(m.Reasons, ", ")))
		}
	}

	p.printBox("MATCHED FIELDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLocks outputs the fields protected by the name lock.
func (p *Printer) PrintLocks(entries []namelock.Entry) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("• %s = %q\n", e.Handle, e.Expected))
	}
	p.printBox("NAME LOCK", strings.TrimSuffix(sb.String(), "\n"))
}
