// Package report accumulates the outcome of one fill invocation.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cv-autofill/internal/types"
)

// MaxDebugLines caps the number of debug lines carried by a report.
const MaxDebugLines = 12

// FatalPrefix marks the reason of an item recorded for a fatal failure.
const FatalPrefix = "fatal: "

// Builder collects items and counters in resolution order. It is not safe
// for concurrent use; one invocation owns one builder.
type Builder struct {
	started time.Time
	now     func() time.Time
	debug   bool
	report  types.FillReport
}

// Option configures a Builder.
type Option func(*Builder)

// WithDebug attaches the debug section to the report.
func WithDebug(enabled []types.FieldType, dryRun bool) Option {
	return func(b *Builder) {
		b.debug = true
		copied := make([]types.FieldType, len(enabled))
		copy(copied, enabled)
		b.report.Debug = &types.FillDebug{
			EnabledTypes: copied,
			DryRun:       dryRun,
		}
	}
}

// WithClock replaces the wall clock used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder starts a report for the given frame.
func NewBuilder(frame types.FrameInfo, opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	b.report = types.FillReport{
		ID:    uuid.New().String(),
		Frame: frame,
		Items: []types.FillItem{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.started = b.now()
	return b
}

// Matched sets the number of assignments the resolver produced.
func (b *Builder) Matched(n int) {
	b.report.Stats.Matched = n
}

// Filled records a successful write.
func (b *Builder) Filled(t types.FieldType, score float64, from, to string, reasons []string) {
	b.report.Stats.Filled++
	b.report.Items = append(b.report.Items, types.FillItem{
		Type:   t,
		Score:  score,
		Action: types.ActionFilled,
		From:   &from,
		To:     &to,
	})
	if b.debug && len(b.report.Debug.Lines) < MaxDebugLines {
		b.report.Debug.Lines = append(b.report.Debug.Lines, DebugLine(t, score, to, reasons))
	}
}

// Skipped records a refusal by the gate or the name lock.
func (b *Builder) Skipped(t types.FieldType, score float64, reason, current string) {
	b.report.Stats.Skipped++
	b.report.Items = append(b.report.Items, types.FillItem{
		Type:    t,
		Score:   score,
		Action:  types.ActionSkipped,
		Reason:  reason,
		Current: strings.TrimSpace(current),
	})
}

// DryRun records a write that was reported but not performed.
// Dry-run items do not touch any counter.
func (b *Builder) DryRun(t types.FieldType, score float64, reason, to string) {
	b.report.Items = append(b.report.Items, types.FillItem{
		Type:   t,
		Score:  score,
		Action: types.ActionDryRun,
		Reason: reason,
		To:     &to,
	})
}

// Error records a failed write.
func (b *Builder) Error(t types.FieldType, score float64, reason string) {
	b.report.Stats.Errors++
	b.report.Items = append(b.report.Items, types.FillItem{
		Type:   t,
		Score:  score,
		Action: types.ActionError,
		Reason: reason,
	})
}

// Fatal records a failure that aborted the invocation.
func (b *Builder) Fatal(err error) {
	b.report.Stats.Errors++
	b.report.Items = append(b.report.Items, types.FillItem{
		Action: types.ActionError,
		Reason: FatalPrefix + err.Error(),
	})
}

// Build stamps the elapsed time and returns the report.
func (b *Builder) Build() *types.FillReport {
	b.report.ElapsedMs = b.now().Sub(b.started).Milliseconds()
	r := b.report
	r.Items = append([]types.FillItem(nil), b.report.Items...)
	if b.report.Debug != nil {
		d := *b.report.Debug
		d.Lines = append([]string(nil), d.Lines...)
		r.Debug = &d
	}
	return &r
}

// DebugLine renders one filled assignment for the debug overlay.
func DebugLine(t types.FieldType, score float64, value string, reasons []string) string {
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return fmt.Sprintf("✅ %s (%d) -> %q\n  reasons: %s", t, int(math.Round(score)), value, strings.Join(reasons, ", "))
}
