// Package namelock protects name-shaped fields (first, last and full name)
// from unwanted overwrites. It decides whether the engine may fill a name
// field and, in PROTECT mode, keeps a persistent watcher that restores the
// last value the engine wrote whenever the page's own scripts change it.
package namelock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/policy"
	"github.com/jonathan/cv-autofill/internal/types"
	"go.uber.org/zap"
)

// Refusal reasons.
const (
	ReasonNever         = "name-lock: NEVER (skip)"
	ReasonAlreadyFilled = "name-lock: IF_EMPTY and already filled"
	ReasonNoDesired     = "name-lock: no desired value"
	ReasonProtectDiff   = "name-lock: PROTECT and value differs (refuse override)"
)

// Check decides whether the engine may write desired into a field of type t
// that currently holds current.
func Check(cfg types.NameLockConfig, t types.FieldType, current, desired string) policy.Verdict {
	if !cfg.Enabled || !t.IsName() {
		return policy.Allow
	}

	current = strings.TrimSpace(current)
	desired = strings.TrimSpace(desired)

	switch cfg.Mode {
	case types.NameLockNever:
		return policy.Verdict{Reason: ReasonNever}
	case types.NameLockIfEmpty:
		if current != "" {
			return policy.Verdict{Reason: ReasonAlreadyFilled}
		}
		if desired == "" {
			return policy.Verdict{Reason: ReasonNoDesired}
		}
		return policy.Allow
	case types.NameLockProtect:
		if current != "" && current != desired {
			return policy.Verdict{Reason: ReasonProtectDiff}
		}
		return policy.Allow
	default:
		return policy.Allow
	}
}

// Page is what the watcher needs from the document.
type Page interface {
	dom.Reader
	dom.Writer
	dom.Observer
}

// Entry is one protected element and the value it must keep.
type Entry struct {
	Handle   dom.Handle `json:"handle"`
	Expected string     `json:"expected"`
}

// Guard owns the lock entries of one page and the watcher that enforces them.
// It lives as long as the page.
type Guard struct {
	ctx    context.Context
	page   Page
	logger *zap.Logger

	mu      sync.Mutex
	entries map[dom.Handle]string
	order   []dom.Handle

	// diverged holds the live value a restore left behind when the page
	// would not keep the expected value. It is not rewritten again.
	diverged map[dom.Handle]string

	// startMu serializes subscription; it is never held while mu is.
	startMu sync.Mutex
	cancel  func()
}

// NewGuard creates a guard for page. ctx bounds every read and write the
// watcher performs and should live as long as the page.
func NewGuard(ctx context.Context, page Page, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		ctx:      ctx,
		page:     page,
		logger:   logger,
		entries:  make(map[dom.Handle]string),
		diverged: make(map[dom.Handle]string),
	}
}

// Register records expected as the value h must keep and makes sure the
// watcher is running. Only values the engine itself wrote may be registered.
func (g *Guard) Register(h dom.Handle, expected string) error {
	g.mu.Lock()
	if _, ok := g.entries[h]; !ok {
		g.order = append(g.order, h)
	}
	g.entries[h] = strings.TrimSpace(expected)
	delete(g.diverged, h)
	g.mu.Unlock()

	return g.ensureStarted()
}

// ensureStarted subscribes to page mutations once; later calls are no-ops.
func (g *Guard) ensureStarted() error {
	g.startMu.Lock()
	defer g.startMu.Unlock()

	if g.cancel != nil {
		return nil
	}
	cancel, err := g.page.Observe(g.reconcile)
	if err != nil {
		return fmt.Errorf("failed to start name lock watcher: %w", err)
	}
	g.cancel = cancel
	g.logger.Debug("Name lock watcher started")
	return nil
}

// reconcile restores every attached entry whose live value drifted.
func (g *Guard) reconcile() {
	for _, e := range g.Entries() {
		g.restore(e)
	}
}

func (g *Guard) restore(e Entry) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("Name lock restore panicked", zap.String("handle", string(e.Handle)), zap.Any("panic", r))
		}
	}()

	if !g.page.Attached(g.ctx, e.Handle) {
		return
	}
	cur, err := g.page.Value(g.ctx, e.Handle)
	if err != nil {
		g.logger.Warn("Name lock could not read field", zap.String("handle", string(e.Handle)), zap.Error(err))
		return
	}
	cur = strings.TrimSpace(cur)
	if cur == e.Expected || g.isDiverged(e.Handle, cur) {
		return
	}

	g.logger.Debug("Name lock restore",
		zap.String("handle", string(e.Handle)),
		zap.String("current", cur),
		zap.String("expected", e.Expected))

	res := g.page.Write(g.ctx, e.Handle, e.Expected)
	if !res.OK {
		g.logger.Warn("Name lock restore failed", zap.String("handle", string(e.Handle)), zap.String("error", res.Error))
		return
	}

	after, err := g.page.Value(g.ctx, e.Handle)
	if err != nil {
		return
	}
	if after = strings.TrimSpace(after); after != e.Expected {
		g.logger.Warn("Name lock restore did not hold; leaving field as is",
			zap.String("handle", string(e.Handle)),
			zap.String("current", after),
			zap.String("expected", e.Expected))
		g.mu.Lock()
		g.diverged[e.Handle] = after
		g.mu.Unlock()
	}
}

func (g *Guard) isDiverged(h dom.Handle, cur string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.diverged[h]
	return ok && v == cur
}

// Entries returns a snapshot of the lock entries in registration order.
func (g *Guard) Entries() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Entry, 0, len(g.order))
	for _, h := range g.order {
		out = append(out, Entry{Handle: h, Expected: g.entries[h]})
	}
	return out
}

// Active reports whether the watcher is subscribed.
func (g *Guard) Active() bool {
	g.startMu.Lock()
	defer g.startMu.Unlock()
	return g.cancel != nil
}

// Close unsubscribes the watcher. It is only called when the page goes away.
func (g *Guard) Close() {
	g.startMu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.startMu.Unlock()

	if cancel != nil {
		cancel()
	}
}
