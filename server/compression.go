package server

import (
	"bytes"
	"compress/gzip"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gofiber/fiber/v2"
)

// CompressionConfig configures response compression.
type CompressionConfig struct {
	// BrotliLevel is 0-11.
	BrotliLevel int
	// GzipLevel is 1-9.
	GzipLevel int
	// MinSize is the smallest body worth compressing.
	MinSize int
	// Types are the compressible content type prefixes.
	Types []string
	// Skip excludes requests, such as websocket upgrades.
	Skip func(c *fiber.Ctx) bool
}

// DefaultCompressionConfig returns default compression configuration.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		BrotliLevel: 4,
		GzipLevel:   6,
		MinSize:     1024,
		Types: []string{
			"text/html",
			"text/css",
			"text/javascript",
			"application/javascript",
			"application/json",
			"image/svg+xml",
		},
	}
}

// Compression compresses responses with Brotli when the client accepts it
// and gzip otherwise.
func Compression(cfg CompressionConfig) fiber.Handler {
	cfg.BrotliLevel = min(max(cfg.BrotliLevel, 0), 11)
	cfg.GzipLevel = min(max(cfg.GzipLevel, 1), 9)

	brotliPool := &sync.Pool{New: func() any {
		return brotli.NewWriterLevel(nil, cfg.BrotliLevel)
	}}
	gzipPool := &sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(nil, cfg.GzipLevel)
		return w
	}}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}
		accept := strings.ToLower(c.Get(fiber.HeaderAcceptEncoding))
		useBrotli := strings.Contains(accept, "br")
		if !useBrotli && !strings.Contains(accept, "gzip") {
			return c.Next()
		}

		if err := c.Next(); err != nil {
			return err
		}

		resp := c.Response()
		body := resp.Body()
		if len(body) < cfg.MinSize || len(resp.Header.Peek(fiber.HeaderContentEncoding)) > 0 {
			return nil
		}
		if !compressible(string(resp.Header.ContentType()), cfg.Types) {
			return nil
		}

		var (
			out      []byte
			encoding string
		)
		if useBrotli {
			out, encoding = compressBrotli(body, brotliPool), "br"
		} else {
			out, encoding = compressGzip(body, gzipPool), "gzip"
		}
		if len(out) == 0 || len(out) >= len(body) {
			return nil
		}

		c.Set(fiber.HeaderContentEncoding, encoding)
		c.Vary(fiber.HeaderAcceptEncoding)
		resp.SetBodyRaw(out)
		return nil
	}
}

func compressible(contentType string, types []string) bool {
	for _, t := range types {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

func compressBrotli(data []byte, pool *sync.Pool) []byte {
	w := pool.Get().(*brotli.Writer)
	defer pool.Put(w)

	var buf bytes.Buffer
	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil
	}
	if err := w.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}

func compressGzip(data []byte, pool *sync.Pool) []byte {
	w := pool.Get().(*gzip.Writer)
	defer pool.Put(w)

	var buf bytes.Buffer
	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil
	}
	if err := w.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}
