package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydenstechdungeon/qpick/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

const deliveryOrder = `order:
  type: Delivery
  products:
    - {id: apple-airpods, title: Apple AirPods, price: 1000, quantity: 1}
errors:
  phone: ""
address_valid: true
`

func TestTotalYAML(t *testing.T) {
	out, _, err := run(t, "total", writeFile(t, "order.yaml", deliveryOrder))
	require.NoError(t, err)
	assert.Contains(t, out, "apple-airpods × 1")
	assert.Contains(t, out, "1,299 ₽")
	assert.Contains(t, out, "2,299 ₽")
	assert.Contains(t, out, "✓ Checkout")
}

func TestTotalJSON(t *testing.T) {
	file := writeFile(t, "order.json", `{
  "order": {"type": "Pickup", "pickup": ["qpick-store-center"],
            "products": [{"id": "a", "title": "A", "price": 500, "quantity": 3}]}
}`)
	out, _, err := run(t, "total", "--json", file)
	require.NoError(t, err)

	var report totalReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 1500, report.Subtotal)
	assert.EqualValues(t, 0, report.Surcharge)
	assert.EqualValues(t, 1500, report.Total)
	assert.True(t, report.Purchasable)
}

func TestTotalCheck(t *testing.T) {
	file := writeFile(t, "order.yaml", `order:
  type: Delivery
errors:
  name: required
address_valid: true
`)
	out, errOut, err := run(t, "total", "--check", file)
	assert.ErrorIs(t, err, ErrNotPurchasable)
	assert.Contains(t, out, "1,299 ₽", "an empty delivery order still pays the surcharge")
	assert.Contains(t, errOut, "order is not purchasable")

	_, _, err = run(t, "total", file)
	assert.NoError(t, err, "without --check the gate only reports")
}

func TestTotalRussian(t *testing.T) {
	out, _, err := run(t, "total", "--locale", "ru", writeFile(t, "order.yaml", deliveryOrder))
	require.NoError(t, err)
	assert.Contains(t, out, "Доставка")
	assert.Contains(t, out, "Итого")
}

func TestTotalBadFile(t *testing.T) {
	_, _, err := run(t, "total", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read order")

	_, _, err = run(t, "total", writeFile(t, "bad.json", "{"))
	assert.ErrorContains(t, err, "parse")

	_, _, err = run(t, "total")
	assert.Error(t, err, "order file is required")
}

func TestServeRejectsBadConfig(t *testing.T) {
	path := writeFile(t, "qpick.yaml", "addr: \"\"\nsession_secret: \"\"\n")
	_, _, err := run(t, "serve", "--config", path)
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := openBackend(ctx, config.Default(), logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, b.Close()) }()

		sess, err := b.shop.Open(ctx, "mem")
		require.NoError(t, err)
		defer sess.Close()
		require.NoError(t, sess.AddProduct("apple-airpods"))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.RedisURL = "redis://" + mr.Addr()

		b, err := openBackend(ctx, cfg, logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, b.Close()) }()

		sess, err := b.shop.Open(ctx, "shared")
		require.NoError(t, err)
		require.NoError(t, sess.AddProduct("apple-airpods"))
		sess.Close()
		assert.True(t, mr.Exists(redisKeyPrefix+"session:shared"))
	})

	t.Run("redis down", func(t *testing.T) {
		cfg := config.Default()
		cfg.RedisURL = "redis://127.0.0.1:1"
		_, err := openBackend(ctx, cfg, logger)
		assert.ErrorContains(t, err, "connect redis")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	newLogger(cfg, &buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	cfg.DevMode = true
	newLogger(cfg, &buf).Debug("dev")
	assert.Contains(t, buf.String(), "msg=dev")
}

func TestNewBundleLocaleDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("total: Grand total\n"), 0o644))

	cfg := config.Default()
	cfg.LocaleDir = dir
	bundle, err := newBundle(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Grand total", bundle.T("total"))
	assert.Equal(t, "Close", bundle.T("close"))
}
