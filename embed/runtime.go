// Package embed provides the embedded client runtime and stylesheet.
package embed

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
)

//go:embed runtime.js qpick.css close.svg
var assetFS embed.FS

// Asset names.
const (
	RuntimeJS  = "runtime.js"
	Stylesheet = "qpick.css"
	CloseIcon  = "close.svg"
)

// Asset returns the content of an embedded asset.
func Asset(name string) ([]byte, error) {
	return assetFS.ReadFile(name)
}

// Hash returns a truncated SHA256 hash of an asset, for cache busting.
func Hash(name string) (string, error) {
	content, err := Asset(name)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(content)
	return fmt.Sprintf("%x", h[:8]), nil
}

// FS returns the embedded filesystem.
func FS() fs.FS {
	return assetFS
}
