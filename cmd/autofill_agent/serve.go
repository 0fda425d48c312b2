package main

import (
	"context"

	"github.com/jonathan/cv-autofill/internal/config"
	"github.com/jonathan/cv-autofill/internal/message"
	"github.com/jonathan/cv-autofill/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultPort is used when neither --port nor the config sets one.
const defaultPort = 8787

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep a page resident and answer autofill messages over HTTP",
	Long: "Open a page once and expose POST /message for FILL_FORM, PING and TOGGLE_DEBUG. " +
		"With --config the file is watched and its settings are applied between invocations.",
	RunE: runServe,
}

// serveOptions holds the serve command flags.
type serveOptions struct {
	page pageFlags
	port int
}

var serveOpts serveOptions

func init() {
	serveOpts.page.register(serveCmd)
	serveCmd.Flags().IntVar(&serveOpts.port, "port", 0, "Port to listen on (default: config server.port, else 8787)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return serveOpts.run(cmd.Context(), &cli)
}

func (o *serveOptions) listenPort(cfg *config.Config) int {
	switch {
	case o.port != 0:
		return o.port
	case cfg.Server.Port != 0:
		return cfg.Server.Port
	default:
		return defaultPort
	}
}

func (o *serveOptions) run(ctx context.Context, a *app) error {
	enabled, err := o.page.enabledTypes(a.cfg)
	if err != nil {
		return err
	}

	p, err := openPage(ctx, &o.page, a.cfg.Browser, a.logger)
	if err != nil {
		return err
	}
	defer p.Close()

	engine := newEngine(ctx, p, a.cfg, a.logger)
	defer engine.Close()

	settings := a.cfg.Settings()
	settings.Debug = settings.Debug || a.debug
	handler := message.NewHandler(engine, settings, a.level, a.logger)
	handler.SetEnabledTypes(enabled)

	srv := server.New(server.Config{
		Port:       o.listenPort(a.cfg),
		CORSOrigin: a.cfg.Server.CORSOrigin,
	}, handler, a.logger)

	var reloader *config.Reloader
	if a.configPath != "" {
		reloader, err = config.NewReloader(a.configPath, func(c *config.Config) {
			s := c.Settings()
			s.Debug = s.Debug || a.debug
			handler.SetSettings(s)
			if len(o.page.types) == 0 {
				handler.SetEnabledTypes(c.EnabledTypes)
			}
		}, a.logger)
		if err != nil {
			return err
		}
		a.logger.Info("Watching config", zap.String("path", a.configPath))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if reloader != nil {
		g.Go(func() error {
			return reloader.Run(gctx)
		})
	}

	return g.Wait()
}
