// Package browser drives a live Chrome page over the DevTools protocol and
// exposes it as the engine's page collaborators.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/types"
	"go.uber.org/zap"
)

// DefaultTimeout bounds navigation and initial rendering.
const DefaultTimeout = 30 * time.Second

// DefaultSettle is how long the page may render after the body is ready.
const DefaultSettle = 2 * time.Second

// Options configures a Session.
type Options struct {
	Timeout  time.Duration
	Settle   time.Duration
	Headless bool
	Logger   *zap.Logger
}

// DefaultOptions returns headless defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:  DefaultTimeout,
		Settle:   DefaultSettle,
		Headless: true,
	}
}

// Session is one browser tab kept open for the lifetime of a page.
// Requires Chrome/Chromium to be installed on the system.
type Session struct {
	url    string
	tab    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	obs    *dom.Dispatcher

	bindMu sync.Mutex
	bound  bool
}

// Open starts a browser, navigates to url and waits for the page to render.
func Open(ctx context.Context, url string, opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("Starting browser", zap.String("url", url), zap.Bool("headless", opts.Headless))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		url: url,
		tab: tab,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		logger: logger,
		obs:    dom.NewDispatcher(logger),
	}

	// The first Run allocates the browser; it must not see the navigation timeout.
	if err := chromedp.Run(tab); err != nil {
		s.Close()
		return nil, &Error{URL: url, Message: "failed to start browser", Cause: err}
	}

	navCtx, cancelNav := context.WithTimeout(tab, opts.Timeout)
	defer cancelNav()
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.Settle),
	)
	if err != nil {
		s.Close()
		return nil, &Error{URL: url, Message: "navigation failed", Cause: err}
	}

	logger.Info("Page ready", zap.String("url", url))
	return s, nil
}

// Close disconnects the in-page observer and stops the browser.
func (s *Session) Close() {
	s.obs.Close()

	s.bindMu.Lock()
	bound := s.bound
	s.bound = false
	s.bindMu.Unlock()
	if bound {
		ctx, cancel := context.WithTimeout(s.tab, 2*time.Second)
		var done bool
		_ = s.eval(ctx, &done, "unobserve")
		cancel()
	}

	s.cancel()
}

// run executes actions on the tab and stops them when ctx is done.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *Session) eval(ctx context.Context, res any, method string, args ...any) error {
	expr, err := call(method, args...)
	if err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.Evaluate(expr, res)); err != nil {
		return &Error{URL: s.url, Message: method + " failed", Cause: err}
	}
	return nil
}

// Scan returns the visible, enabled form controls inside scope.
func (s *Session) Scan(ctx context.Context, scope string) ([]dom.Candidate, error) {
	var out []dom.Candidate
	if err := s.eval(ctx, &out, "scan", scope); err != nil {
		return nil, err
	}
	s.logger.Debug("Scanned page", zap.String("scope", scope), zap.Int("candidates", len(out)))
	return out, nil
}

// Value returns the element's live value.
func (s *Session) Value(ctx context.Context, h dom.Handle) (string, error) {
	var v string
	if err := s.eval(ctx, &v, "value", string(h)); err != nil {
		return "", err
	}
	return v, nil
}

// Attached reports whether the element is still connected to the document.
func (s *Session) Attached(ctx context.Context, h dom.Handle) bool {
	var ok bool
	if err := s.eval(ctx, &ok, "attached", string(h)); err != nil {
		s.logger.Debug("Attached check failed", zap.String("handle", string(h)), zap.Error(err))
		return false
	}
	return ok
}

// Write assigns value through the element's native value setter and
// dispatches input and change events so page frameworks see the change.
func (s *Session) Write(ctx context.Context, h dom.Handle, value string) dom.WriteResult {
	var res dom.WriteResult
	if err := s.eval(ctx, &res, "write", string(h), value); err != nil {
		return dom.WriteResult{Error: err.Error()}
	}
	return res
}

// Frame reports the page location and whether it is the top frame.
func (s *Session) Frame(ctx context.Context) types.FrameInfo {
	var fi types.FrameInfo
	if err := s.eval(ctx, &fi, "frame"); err != nil {
		return types.FrameInfo{Href: s.url, Frame: "top"}
	}
	return fi
}

// Observe calls fn after DOM mutations and input events until cancel is called.
func (s *Session) Observe(fn func()) (func(), error) {
	if err := s.bind(); err != nil {
		return nil, err
	}
	cancel, err := s.obs.Subscribe(fn)
	if err != nil {
		return nil, &Error{URL: s.url, Message: "failed to observe page", Cause: err}
	}
	return cancel, nil
}

// bind installs the mutation binding and the in-page observer once.
func (s *Session) bind() error {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	if s.bound {
		return nil
	}

	chromedp.ListenTarget(s.tab, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == bindingName {
			s.obs.Notify()
		}
	})

	if err := s.run(s.tab, runtime.AddBinding(bindingName)); err != nil {
		return &Error{URL: s.url, Message: "failed to add mutation binding", Cause: err}
	}
	var installed bool
	if err := s.eval(s.tab, &installed, "observe", bindingName); err != nil {
		return err
	}

	s.bound = true
	s.logger.Debug("Mutation observer installed", zap.String("url", s.url))
	return nil
}
