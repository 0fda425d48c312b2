package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonathan/cv-autofill/internal/assign"
	"github.com/jonathan/cv-autofill/internal/observability"
	"github.com/jonathan/cv-autofill/internal/scoring"
	"github.com/jonathan/cv-autofill/internal/sensitivity"
	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the form inputs that would be filled",
	Long:  "Scan a form and print every fillable input whose best field type clears the score threshold.",
	RunE:  runScan,
}

// scanOptions holds the scan command flags.
type scanOptions struct {
	page   pageFlags
	asJSON bool
}

var scanOpts scanOptions

func init() {
	scanOpts.page.register(scanCmd)
	scanCmd.Flags().BoolVar(&scanOpts.asJSON, "json", false, "Print matches as JSON")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	_, err := scanOpts.run(cmd.Context(), &cli, cmd.OutOrStdout())
	return err
}

func (o *scanOptions) run(ctx context.Context, a *app, stdout io.Writer) ([]assign.MatchResult, error) {
	enabled, err := o.page.enabledTypes(a.cfg)
	if err != nil {
		return nil, err
	}

	p, err := openPage(ctx, &o.page, a.cfg.Browser, a.logger)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	candidates, err := p.Scan(ctx, o.page.scope)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	kept, dropped := sensitivity.New(a.logger, a.cfg.Sensitivity.ExtraPatterns...).Apply(candidates)
	a.logger.Debug("Scanned candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("sensitive", dropped),
	)

	if enabled == nil {
		enabled = types.AllFieldTypes()
	}
	matches := assign.NewResolver(scoring.NewHeuristic(), a.logger).Matches(kept, enabled)

	if o.asJSON {
		jsonBytes, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return matches, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(stdout, string(jsonBytes))
		return matches, err
	}
	observability.NewPrinter(stdout).PrintMatches(matches)
	return matches, nil
}
