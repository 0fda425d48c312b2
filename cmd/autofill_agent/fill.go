package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/cv-autofill/internal/fill"
	"github.com/jonathan/cv-autofill/internal/observability"
	"github.com/jonathan/cv-autofill/internal/profile"
	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a form from a candidate profile",
	Long: "Fill the matched inputs of a form from a candidate profile and print the fill report as JSON. " +
		"For --html the filled document is written next to the input unless --out is given.",
	RunE: runFill,
}

// fillOptions holds the fill command flags.
type fillOptions struct {
	page        pageFlags
	profilePath string
	outPath     string
	reportPath  string
	dryRun      bool
	nameLock    string
}

var fillOpts fillOptions

func init() {
	fillOpts.page.register(fillCmd)
	fillCmd.Flags().StringVarP(&fillOpts.profilePath, "profile", "p", "", "Path to candidate profile (JSON or YAML)")
	fillCmd.Flags().StringVarP(&fillOpts.outPath, "out", "o", "", "Path for the filled HTML (with --html)")
	fillCmd.Flags().StringVar(&fillOpts.reportPath, "report", "", "Path for the JSON report (default: stdout)")
	fillCmd.Flags().BoolVar(&fillOpts.dryRun, "dry-run", false, "Report what would be filled without writing")
	fillCmd.Flags().StringVar(&fillOpts.nameLock, "name-lock", "", "Name lock mode: NEVER, IF_EMPTY or PROTECT")
	_ = fillCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, _ []string) error {
	_, err := fillOpts.run(cmd.Context(), &cli, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

// settings returns the config settings with the command's flags applied.
func (o *fillOptions) settings(a *app) (types.Settings, error) {
	s := a.cfg.Settings()
	s.Debug = s.Debug || a.debug
	if o.dryRun {
		s.FillPolicy.DryRun = true
	}
	if o.nameLock != "" {
		s.NameLock.Enabled = true
		s.NameLock.Mode = types.NameLockMode(strings.ToUpper(o.nameLock))
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// outputPath returns where the filled HTML goes: --out, else "<name>.filled<ext>".
func (o *fillOptions) outputPath() string {
	if o.outPath != "" {
		return o.outPath
	}
	ext := filepath.Ext(o.page.html)
	return strings.TrimSuffix(o.page.html, ext) + ".filled" + ext
}

func (o *fillOptions) run(ctx context.Context, a *app, stdout, stderr io.Writer) (*types.FillReport, error) {
	settings, err := o.settings(a)
	if err != nil {
		return nil, err
	}
	enabled, err := o.page.enabledTypes(a.cfg)
	if err != nil {
		return nil, err
	}

	prof, warnings, err := profile.LoadFile(o.profilePath)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		a.logger.Warn("Profile warning", zap.String("warning", w))
	}

	p, err := openPage(ctx, &o.page, a.cfg.Browser, a.logger)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	engine := newEngine(ctx, p, a.cfg, a.logger)
	defer engine.Close()

	report := engine.Fill(ctx, prof, settings, fill.Options{EnabledTypes: enabled, Scope: o.page.scope})

	if err := o.writeReport(report, stdout); err != nil {
		return report, err
	}
	if settings.Debug {
		printer := observability.NewPrinter(stderr)
		printer.PrintFillReport(report)
		printer.PrintLocks(engine.Locks())
	}

	if p.doc != nil && !settings.FillPolicy.DryRun {
		html, err := p.doc.HTML()
		if err != nil {
			return report, fmt.Errorf("failed to serialize filled document: %w", err)
		}
		out := o.outputPath()
		if err := os.WriteFile(out, []byte(html), 0644); err != nil {
			return report, fmt.Errorf("failed to write output file: %w", err)
		}
		_, _ = fmt.Fprintf(stderr, "Filled document: %s\n", out)
	}
	return report, nil
}

func (o *fillOptions) writeReport(r *types.FillReport, stdout io.Writer) error {
	jsonBytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if o.reportPath == "" {
		_, err = fmt.Fprintln(stdout, string(jsonBytes))
		return err
	}
	if err := os.WriteFile(o.reportPath, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
