package cli

import (
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aydenstechdungeon/qpick/config"
	"github.com/aydenstechdungeon/qpick/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Check out from the terminal",
		Long: `Open a shopper session in the terminal. With a Redis URL configured the
session is shared with browsers using the same session ID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	cmd.Flags().String("session", "terminal", "Session ID to open")
	cmd.Flags().String("locale", "", "Locale (defaults to the configured one)")
	return cmd
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	sessionID, _ := cmd.Flags().GetString("session")
	locale, _ := cmd.Flags().GetString("locale")
	if locale == "" {
		locale = cfg.Locale
	}

	// The terminal belongs to the UI, so only warnings are logged.
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	bundle, err := newBundle(cfg)
	if err != nil {
		return err
	}

	sess, err := b.shop.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	defer sess.Close()

	m := tui.New(sess, b.shop.Catalog(), bundle.For(locale), locale,
		tui.WithCloseDelay(cfg.CloseDelay),
		tui.WithCatalogPath(cfg.CatalogPath),
	)
	return tui.Run(ctx, m)
}
