package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aydenstechdungeon/qpick/config"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/shop"
	"github.com/aydenstechdungeon/qpick/store"
	qredis "github.com/aydenstechdungeon/qpick/store/redis"
)

const (
	redisKeyPrefix = "qpick:"
	pruneInterval  = time.Minute
)

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	if cfg.DevMode {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func newBundle(cfg config.Config) (*i18n.Bundle, error) {
	bundle, err := i18n.New(cfg.Locale)
	if err != nil {
		return nil, err
	}
	if cfg.LocaleDir != "" {
		if err := bundle.LoadDir(cfg.LocaleDir); err != nil {
			return nil, fmt.Errorf("load locales: %w", err)
		}
	}
	return bundle, nil
}

// backend is the session store and whatever it runs on.
type backend struct {
	shop    *shop.Store
	closers []func() error
}

// openBackend uses Redis when cfg.RedisURL is set and process memory
// otherwise.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}
	var (
		storage store.Storage
		pubsub  store.PubSub
	)
	if cfg.RedisURL != "" {
		client, err := qredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		storage = qredis.NewStore(client, redisKeyPrefix)
		pubsub = qredis.NewPubSub(client)
		logger.Info("session store", "backend", "redis")
	} else {
		mem := store.NewMemoryStorage(pruneInterval)
		b.closers = append(b.closers, mem.Close)
		storage = mem
		pubsub = store.NewMemoryPubSub()
		logger.Info("session store", "backend", "memory")
	}

	b.shop = shop.New(storage, pubsub,
		shop.WithTTL(cfg.StateTTL),
		shop.WithLogger(logger),
	)
	return b, nil
}

func (b *backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
