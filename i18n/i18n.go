// Package i18n maps message keys to display strings.
//
// Catalogs are YAML documents; nested maps flatten to dotted keys, so
//
//	checkoutEnd:
//	  ok: Back to catalog
//
// is looked up as "checkoutEnd.ok". Lookups fall back to the default locale
// and finally to the key itself.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a key is missing from the active locale.
const DefaultLocale = "en"

// ErrUnknownLocale is returned when selecting a locale with no catalog.
var ErrUnknownLocale = errors.New("i18n: unknown locale")

//go:embed locales/*.yaml
var builtin embed.FS

// Translator looks up display strings.
type Translator interface {
	T(key string) string
}

// Func adapts a function to Translator.
type Func func(key string) string

// T implements Translator.
func (f Func) T(key string) string { return f(key) }

// Keys is a Translator that returns every key unchanged.
var Keys Translator = Func(func(key string) string { return key })

// Bundle holds catalogs for several locales.
type Bundle struct {
	mu       sync.RWMutex
	locale   string
	catalogs map[string]map[string]string
}

// New returns a bundle loaded with the built-in catalogs, set to locale.
func New(locale string) (*Bundle, error) {
	b := &Bundle{catalogs: make(map[string]map[string]string)}
	if err := b.loadFS(builtin, "locales"); err != nil {
		return nil, err
	}
	if locale == "" {
		locale = DefaultLocale
	}
	if err := b.SetLocale(locale); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadDir merges every *.yaml file in dir over the current catalogs. The file
// name without extension is the locale.
func (b *Bundle) LoadDir(dir string) error {
	return b.loadFS(os.DirFS(dir), ".")
}

func (b *Bundle) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read locales: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		locale := strings.TrimSuffix(e.Name(), ".yaml")
		if err := b.Load(locale, data); err != nil {
			return err
		}
	}
	return nil
}

// Load parses a YAML catalog and merges it into locale.
func (b *Bundle) Load(locale string, data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s catalog: %w", locale, err)
	}
	flat := make(map[string]string)
	flatten("", raw, flat)

	b.mu.Lock()
	defer b.mu.Unlock()
	cat, ok := b.catalogs[locale]
	if !ok {
		cat = make(map[string]string, len(flat))
		b.catalogs[locale] = cat
	}
	for k, v := range flat {
		cat[k] = v
	}
	return nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// SetLocale selects the active locale.
func (b *Bundle) SetLocale(locale string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.catalogs[locale]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	b.locale = locale
	return nil
}

// Locale returns the active locale.
func (b *Bundle) Locale() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.locale
}

// Locales lists the loaded locales.
func (b *Bundle) Locales() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.catalogs))
	for l := range b.catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// T implements Translator for the active locale.
func (b *Bundle) T(key string) string {
	return b.lookup(b.Locale(), key)
}

// For returns a Translator pinned to locale, independent of SetLocale.
func (b *Bundle) For(locale string) Translator {
	return Func(func(key string) string { return b.lookup(locale, key) })
}

func (b *Bundle) lookup(locale, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.catalogs[locale][key]; ok {
		return s
	}
	if s, ok := b.catalogs[DefaultLocale][key]; ok {
		return s
	}
	return key
}
