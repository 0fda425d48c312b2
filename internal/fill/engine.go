// Package fill runs one autofill invocation against a page: scan, filter,
// resolve, gate each assignment, write, lock protected names and report.
package fill

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/cv-autofill/internal/assign"
	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/namelock"
	"github.com/jonathan/cv-autofill/internal/policy"
	"github.com/jonathan/cv-autofill/internal/report"
	"github.com/jonathan/cv-autofill/internal/scoring"
	"github.com/jonathan/cv-autofill/internal/sensitivity"
	"github.com/jonathan/cv-autofill/internal/types"
	"go.uber.org/zap"
)

// ReasonWriteFailed is reported when the writer fails without a message.
const ReasonWriteFailed = "setNativeValue failed"

// Options selects what one invocation considers.
type Options struct {
	// EnabledTypes restricts scoring to these types. nil means all types;
	// an empty list means none.
	EnabledTypes []types.FieldType `json:"enabledTypes,omitempty" validate:"dive,required"`
	// Scope is a CSS selector limiting the scan; empty means the whole page.
	Scope string `json:"scope,omitempty"`
}

// Engine fills one page. It owns the page's name lock guard, so it lives
// as long as the page does.
type Engine struct {
	page     dom.Page
	filter   *sensitivity.Filter
	resolver *assign.Resolver
	guard    *namelock.Guard
	logger   *zap.Logger
}

// New creates an engine for page. ctx bounds the name lock watcher and
// should live as long as the page.
func New(ctx context.Context, page dom.Page, scorer scoring.Scorer, filter *sensitivity.Filter, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if filter == nil {
		filter = sensitivity.New(logger)
	}
	return &Engine{
		page:     page,
		filter:   filter,
		resolver: assign.NewResolver(scorer, logger),
		guard:    namelock.NewGuard(ctx, page, logger),
		logger:   logger,
	}
}

// Fill runs one invocation and always returns a report. Failures that abort
// the invocation are recorded as a single fatal error item and the partial
// report is returned.
func (e *Engine) Fill(ctx context.Context, profile types.Profile, settings types.Settings, opts Options) (out *types.FillReport) {
	enabled := opts.EnabledTypes
	if enabled == nil {
		enabled = types.AllFieldTypes()
	}

	var bopts []report.Option
	if settings.Debug {
		bopts = append(bopts, report.WithDebug(enabled, settings.FillPolicy.DryRun))
	}
	b := report.NewBuilder(e.frame(ctx), bopts...)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Fill aborted", zap.Any("panic", r))
			b.Fatal(fmt.Errorf("%v", r))
			out = b.Build()
		}
	}()

	if err := e.run(ctx, b, profile, settings, enabled, opts.Scope); err != nil {
		e.logger.Error("Fill aborted", zap.Error(err))
		b.Fatal(err)
	}

	out = b.Build()
	e.logger.Info("Fill complete",
		zap.String("id", out.ID),
		zap.String("frame", out.Frame.Frame),
		zap.Int("matched", out.Stats.Matched),
		zap.Int("filled", out.Stats.Filled),
		zap.Int("skipped", out.Stats.Skipped),
		zap.Int("errors", out.Stats.Errors),
		zap.Int64("elapsed_ms", out.ElapsedMs))
	return out
}

func (e *Engine) run(ctx context.Context, b *report.Builder, profile types.Profile, settings types.Settings, enabled []types.FieldType, scope string) error {
	candidates, err := e.page.Scan(ctx, scope)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	allowed, rejected := e.filter.Apply(candidates)
	assignments := e.resolver.Resolve(allowed, enabled, profile)
	b.Matched(len(assignments))

	e.logger.Debug("Resolved page",
		zap.Int("candidates", len(candidates)),
		zap.Int("sensitive", rejected),
		zap.Int("assignments", len(assignments)))

	for _, a := range assignments {
		e.apply(ctx, b, a, settings)
	}
	return nil
}

// apply gates, writes and reports one assignment.
func (e *Engine) apply(ctx context.Context, b *report.Builder, a assign.Assignment, settings types.Settings) {
	h := a.Candidate.Handle

	current, err := e.page.Value(ctx, h)
	if err != nil {
		b.Error(a.FieldType, a.Score, err.Error())
		return
	}

	verdict := namelock.Check(settings.NameLock, a.FieldType, current, a.Desired)
	decision := policy.Decide(current, settings.FillPolicy, verdict)

	switch decision.Kind {
	case policy.Skip:
		e.logger.Debug("Skipped", zap.String("type", string(a.FieldType)), zap.String("reason", decision.Reason))
		b.Skipped(a.FieldType, a.Score, decision.Reason, current)
	case policy.DryRun:
		b.DryRun(a.FieldType, a.Score, decision.Reason, a.Desired)
	default:
		res := e.page.Write(ctx, h, a.Desired)
		if !res.OK {
			reason := res.Error
			if reason == "" {
				reason = ReasonWriteFailed
			}
			e.logger.Warn("Write failed", zap.String("type", string(a.FieldType)), zap.String("reason", reason))
			b.Error(a.FieldType, a.Score, reason)
			return
		}
		b.Filled(a.FieldType, a.Score, res.From, res.To, a.Reasons)

		if settings.Protecting() && a.FieldType.IsName() {
			if err := e.guard.Register(h, strings.TrimSpace(res.To)); err != nil {
				e.logger.Warn("Name lock registration failed", zap.String("handle", string(h)), zap.Error(err))
			}
		}
	}
}

// frame never fails; a broken page reports as an unknown top frame.
func (e *Engine) frame(ctx context.Context) (fi types.FrameInfo) {
	defer func() {
		if r := recover(); r != nil {
			fi = types.FrameInfo{Frame: "top"}
		}
	}()
	return e.page.Frame(ctx)
}

// Frame reports the page the engine fills.
func (e *Engine) Frame(ctx context.Context) types.FrameInfo {
	return e.frame(ctx)
}

// Locks returns the name lock entries registered so far.
func (e *Engine) Locks() []namelock.Entry {
	return e.guard.Entries()
}

// Close stops the name lock watcher. Call it when the page goes away.
func (e *Engine) Close() {
	e.guard.Close()
}
