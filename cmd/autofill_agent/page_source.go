package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/cv-autofill/internal/browser"
	"github.com/jonathan/cv-autofill/internal/config"
	"github.com/jonathan/cv-autofill/internal/dom"
	"github.com/jonathan/cv-autofill/internal/fill"
	"github.com/jonathan/cv-autofill/internal/page"
	"github.com/jonathan/cv-autofill/internal/scoring"
	"github.com/jonathan/cv-autofill/internal/sensitivity"
	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// pageFlags selects the document a subcommand works on.
type pageFlags struct {
	html  string
	url   string
	scope string
	types []string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.html, "html", "", "Path to a saved HTML form")
	cmd.Flags().StringVar(&f.url, "url", "", "URL of a live form, opened in a headless browser")
	cmd.Flags().StringVar(&f.scope, "scope", "", "CSS selector limiting which part of the page is considered")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "Field types to consider (default: config enabled_types, else all)")
}

func (f *pageFlags) validate() error {
	if (f.html == "") == (f.url == "") {
		return fmt.Errorf("exactly one of --html or --url is required")
	}
	return nil
}

// enabledTypes resolves --types, falling back to the config.
func (f *pageFlags) enabledTypes(cfg *config.Config) ([]types.FieldType, error) {
	if len(f.types) == 0 {
		return cfg.EnabledTypes, nil
	}
	out := make([]types.FieldType, 0, len(f.types))
	for _, s := range f.types {
		t, err := types.ParseFieldType(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// residentPage is an open document together with its cleanup.
type residentPage struct {
	dom.Page
	doc   *page.Document // nil for live pages
	close func()
}

func (p *residentPage) Close() {
	p.close()
}

// openPage parses the HTML file or opens the URL in a browser tab.
func openPage(ctx context.Context, f *pageFlags, bc config.BrowserConfig, logger *zap.Logger) (*residentPage, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	if f.html != "" {
		doc, err := page.ParseFile(f.html, page.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &residentPage{Page: doc, doc: doc, close: doc.Close}, nil
	}

	opts := browser.DefaultOptions()
	opts.Timeout = bc.Timeout(browser.DefaultTimeout)
	opts.Settle = bc.Settle(browser.DefaultSettle)
	if bc.Headless != nil {
		opts.Headless = *bc.Headless
	}
	opts.Logger = logger

	s, err := browser.Open(ctx, f.url, opts)
	if err != nil {
		return nil, err
	}
	return &residentPage{Page: s, close: s.Close}, nil
}

// newEngine wires the heuristic scorer and the configured sensitivity filter.
func newEngine(ctx context.Context, p dom.Page, cfg *config.Config, logger *zap.Logger) *fill.Engine {
	filter := sensitivity.New(logger, cfg.Sensitivity.ExtraPatterns...)
	return fill.New(ctx, p, scoring.NewHeuristic(), filter, logger)
}
