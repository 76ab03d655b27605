package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aydenstechdungeon/qpick/config"
	"github.com/aydenstechdungeon/qpick/server"
)

func newServeCmd(opts *rootOptions, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront web server",
		Long: `Start the storefront: catalog and checkout pages, the JSON API and the
websocket channel that drives the checkout sidebar.

Sessions are kept in memory unless a Redis URL is configured, in which case
every process sharing that Redis sees the same carts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, version)
		},
	}
	cmd.Flags().StringP("addr", "a", "", "Listen address (overrides config)")
	cmd.Flags().Bool("dev", false, "Development mode: text logs, locale reloading")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, version string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		cfg.DevMode = true
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	printer := NewColorPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("close session store", "error", err)
		}
	}()

	bundle, err := newBundle(cfg)
	if err != nil {
		return err
	}
	if cfg.DevMode && cfg.LocaleDir != "" {
		if err := bundle.Watch(ctx, cfg.LocaleDir, logger); err != nil {
			logger.Warn("locale reloading disabled", "error", err)
		}
	}

	srv := server.New(cfg, b.shop, bundle, logger)
	printer.PrintBanner(version)
	printer.Info("listening on %s", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Listen)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	printer.Success("stopped")
	return nil
}
