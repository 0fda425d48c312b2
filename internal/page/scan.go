package page

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/cv-autofill/internal/dom"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const controlSelector = "input, select, textarea"

// maxNearbyText caps the nearby text carried by a candidate, in runes.
const maxNearbyText = 120

// nearbyLevels is how many ancestors are searched for nearby text.
const nearbyLevels = 3

var skippedInputTypes = map[string]bool{
	"hidden":   true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
	"file":     true,
	"checkbox": true,
	"radio":    true,
	"range":    true,
	"color":    true,
}

// Scan returns the visible, enabled form controls inside scope, which is a
// CSS selector. An empty scope scans the whole document. Handles are stable
// across scans for the same element.
func (d *Document) Scan(ctx context.Context, scope string) ([]dom.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	root := d.doc.Selection
	if scope != "" {
		root = d.doc.Find(scope)
		if root.Length() == 0 {
			return nil, &Error{Message: fmt.Sprintf("scope %q matches nothing", scope)}
		}
	}

	var out []dom.Candidate
	root.Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		if !fillable(n) || !visible(n) {
			return
		}
		out = append(out, d.candidate(s))
	})

	d.logger.Debug("Scanned document", zap.String("scope", scope), zap.Int("candidates", len(out)))
	return out, nil
}

func (d *Document) candidate(s *goquery.Selection) dom.Candidate {
	n := s.Nodes[0]
	c := dom.Candidate{
		Handle:       d.handleFor(n),
		Tag:          n.Data,
		Name:         s.AttrOr("name", ""),
		ID:           s.AttrOr("id", ""),
		Placeholder:  collapse(s.AttrOr("placeholder", "")),
		AriaLabel:    collapse(s.AttrOr("aria-label", "")),
		Autocomplete: strings.ToLower(strings.TrimSpace(s.AttrOr("autocomplete", ""))),
		Value:        valueOf(n),
		FormDepth:    formDepth(n),
	}
	if n.Data == "input" {
		c.InputType = inputType(n)
	}
	c.Label = d.labelText(s)
	if c.AriaLabel == "" {
		c.AriaLabel = d.labelledBy(s.AttrOr("aria-labelledby", ""))
	}
	c.NearbyText = nearbyText(n)
	return c
}

// labelText returns the text of a label[for=id] or of the wrapping label.
func (d *Document) labelText(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		var text string
		d.doc.Find("label").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if l.AttrOr("for", "") == id {
				text = textOf(l.Nodes[0])
				return false
			}
			return true
		})
		if text != "" {
			return text
		}
	}
	if wrap := s.Closest("label"); wrap.Length() > 0 {
		return textOf(wrap.Nodes[0])
	}
	return ""
}

func (d *Document) labelledBy(ids string) string {
	if ids == "" {
		return ""
	}
	var parts []string
	for _, id := range strings.Fields(ids) {
		d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if s.AttrOr("id", "") != id {
				return true
			}
			if t := textOf(s.Nodes[0]); t != "" {
				parts = append(parts, t)
			}
			return false
		})
	}
	return strings.Join(parts, " ")
}

// nearbyText returns the closest non-empty text preceding the control,
// searching previous siblings of the control and then of its ancestors.
func nearbyText(n *html.Node) string {
	cur := n
	for level := 0; level <= nearbyLevels && cur != nil; level++ {
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			var t string
			switch sib.Type {
			case html.TextNode:
				t = collapse(sib.Data)
			case html.ElementNode:
				t = textOf(sib)
			}
			if t != "" {
				return truncate(t, maxNearbyText)
			}
		}
		cur = cur.Parent
		if cur != nil && cur.Type == html.ElementNode && (cur.Data == "form" || cur.Data == "body") {
			break
		}
	}
	return ""
}

// formDepth counts element ancestors up to the enclosing form, or up to the
// body when the control is outside any form.
func formDepth(n *html.Node) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if p.Data == "form" || p.Data == "body" {
			return depth
		}
		depth++
	}
	return depth
}

func fillable(n *html.Node) bool {
	if hasAttr(n, "disabled") || hasAttr(n, "readonly") {
		return false
	}
	if n.Data == "input" {
		return !skippedInputTypes[inputType(n)]
	}
	return true
}

// visible reports whether neither the element nor an ancestor is hidden by
// the hidden attribute or an inline style.
func visible(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if hasAttr(p, "hidden") || p.Data == "template" {
			return false
		}
		style, _ := attr(p, "style")
		style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func inputType(n *html.Node) string {
	t, _ := attr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "text"
	}
	return t
}

func valueOf(n *html.Node) string {
	switch n.Data {
	case "textarea":
		return rawText(n)
	case "select":
		opts := options(n)
		for _, o := range opts {
			if hasAttr(o, "selected") {
				return optionValue(o)
			}
		}
		if len(opts) > 0 {
			return optionValue(opts[0])
		}
		return ""
	default:
		v, _ := attr(n, "value")
		return v
	}
}

func setValue(n *html.Node, value string) (string, error) {
	switch n.Data {
	case "textarea":
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			n.RemoveChild(c)
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		return value, nil
	case "select":
		var match *html.Node
		want := strings.TrimSpace(value)
		for _, o := range options(n) {
			if optionValue(o) == want || strings.EqualFold(textOf(o), want) {
				match = o
				break
			}
		}
		if match == nil {
			return "", fmt.Errorf("no option matches %q", value)
		}
		for _, o := range options(n) {
			removeAttr(o, "selected")
		}
		setAttr(match, "selected", "")
		return optionValue(match), nil
	default:
		setAttr(n, "value", value)
		return value, nil
	}
}

func options(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func optionValue(o *html.Node) string {
	if v, ok := attr(o, "value"); ok {
		return v
	}
	return textOf(o)
}

// textOf returns the collapsed text of n, leaving out form controls and scripts.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		switch p.Type {
		case html.TextNode:
			b.WriteString(p.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			switch p.Data {
			case "input", "select", "textarea", "script", "style", "button":
				return
			}
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapse(b.String())
}

func rawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}
