// Package page provides an in-memory HTML document that implements the
// engine's page collaborators. It backs offline fills of saved application
// forms and every engine test.
package page

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/types"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. All element access goes through handles.
// It is safe for concurrent use; mutation observers run on the document's
// dispatcher goroutine.
type Document struct {
	logger *zap.Logger
	frame  types.FrameInfo

	mu      sync.Mutex
	doc     *goquery.Document
	handles map[dom.Handle]*html.Node
	nodes   map[*html.Node]dom.Handle
	next    int

	obs *dom.Dispatcher
}

// Option configures a Document.
type Option func(*Document)

// WithHref sets the URL the document reports as its location.
func WithHref(href string) Option {
	return func(d *Document) {
		d.frame.Href = href
	}
}

// WithFrame marks the document as a top-level page or an iframe.
func WithFrame(frame string) Option {
	return func(d *Document) {
		d.frame.Frame = frame
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &Error{Message: "failed to parse HTML", Cause: err}
	}

	d := &Document{
		logger:  zap.NewNop(),
		frame:   types.FrameInfo{Href: "about:blank", Frame: "top"},
		doc:     doc,
		handles: make(map[dom.Handle]*html.Node),
		nodes:   make(map[*html.Node]dom.Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.obs = dom.NewDispatcher(d.logger)
	return d, nil
}

// ParseString parses an HTML string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// ParseFile parses the HTML file at path. The href defaults to a file URL.
func ParseFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: "failed to open HTML file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	opts = append([]Option{WithHref("file://" + path)}, opts...)
	return Parse(f, opts...)
}

// Frame reports the document's location and frame kind.
func (d *Document) Frame(_ context.Context) types.FrameInfo {
	return d.frame
}

// HTML serializes the current state of the document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.doc.Html()
	if err != nil {
		return "", &Error{Message: "failed to render HTML", Cause: err}
	}
	return out, nil
}

// Value returns the element's current value.
func (d *Document) Value(_ context.Context, h dom.Handle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.lookup(h)
	if err != nil {
		return "", err
	}
	return valueOf(n), nil
}

// Attached reports whether the element is still part of the document.
func (d *Document) Attached(_ context.Context, h dom.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.handles[h]
	return ok && d.attached(n)
}

// Write assigns value to the element and notifies observers.
func (d *Document) Write(_ context.Context, h dom.Handle, value string) dom.WriteResult {
	res := d.write(h, value)
	if res.OK {
		d.obs.Notify()
	}
	return res
}

func (d *Document) write(h dom.Handle, value string) dom.WriteResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.lookup(h)
	if err != nil {
		return dom.WriteResult{Error: err.Error()}
	}
	if !d.attached(n) {
		return dom.WriteResult{Error: "element is detached"}
	}
	if hasAttr(n, "disabled") || hasAttr(n, "readonly") {
		return dom.WriteResult{Error: "element is not editable"}
	}

	from := valueOf(n)
	to, err := setValue(n, value)
	if err != nil {
		return dom.WriteResult{From: from, Error: err.Error()}
	}
	return dom.WriteResult{OK: true, From: from, To: to}
}

// SetValue changes an element's value the way a page script would.
func (d *Document) SetValue(h dom.Handle, value string) error {
	d.mu.Lock()
	n, err := d.lookup(h)
	if err == nil {
		_, err = setValue(n, value)
	}
	d.mu.Unlock()

	if err != nil {
		return err
	}
	d.obs.Notify()
	return nil
}

// Detach removes the element from the document. Its handle stays known but
// reports as detached.
func (d *Document) Detach(h dom.Handle) error {
	d.mu.Lock()
	n, err := d.lookup(h)
	if err == nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	d.mu.Unlock()

	if err != nil {
		return err
	}
	d.obs.Notify()
	return nil
}

// Mutate runs fn against the underlying document and notifies observers.
func (d *Document) Mutate(fn func(doc *goquery.Document)) {
	d.mu.Lock()
	fn(d.doc)
	d.mu.Unlock()

	d.obs.Notify()
}

// HandleOf returns the handle for the first element matching selector,
// registering it when needed.
func (d *Document) HandleOf(selector string) (dom.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return "", &Error{Message: fmt.Sprintf("no element matches %q", selector)}
	}
	return d.handleFor(sel.Nodes[0]), nil
}

// Observe calls fn after every mutation until cancel is called.
// cancel must not be called from within fn.
func (d *Document) Observe(fn func()) (func(), error) {
	cancel, err := d.obs.Subscribe(fn)
	if err != nil {
		return nil, &Error{Message: "failed to observe document", Cause: err}
	}
	return cancel, nil
}

// Close stops the observer dispatcher. The document stays readable.
func (d *Document) Close() {
	d.obs.Close()
}

func (d *Document) lookup(h dom.Handle) (*html.Node, error) {
	n, ok := d.handles[h]
	if !ok {
		return nil, &Error{Handle: string(h), Message: "unknown element handle"}
	}
	return n, nil
}

func (d *Document) handleFor(n *html.Node) dom.Handle {
	if h, ok := d.nodes[n]; ok {
		return h
	}
	d.next++
	h := dom.Handle(fmt.Sprintf("el-%d", d.next))
	d.handles[h] = n
	d.nodes[n] = h
	return h
}

func (d *Document) attached(n *html.Node) bool {
	root := d.doc.Nodes[0]
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
