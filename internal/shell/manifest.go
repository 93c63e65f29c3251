package shell

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCacheName is the cache version the shell installs into.
const DefaultCacheName = "gle-shell-v1"

// DefaultAssets lists the pages and static files that make up the shell.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/product.html",
	"/order.html",
	"/reviews.html",
	"/faq.html",
	"/contact.html",
	"/styles/style.css",
	"/scripts/script.js",
	"/images/logo.svg",
}

// Manifest names the cache version and the assets to precache.
type Manifest struct {
	CacheName string   `yaml:"cache_name"`
	Assets    []string `yaml:"assets"`
}

// DefaultManifest returns the built-in manifest.
func DefaultManifest() Manifest {
	assets := make([]string, len(DefaultAssets))
	copy(assets, DefaultAssets)
	return Manifest{CacheName: DefaultCacheName, Assets: assets}
}

// LoadManifest reads a YAML manifest from path. Fields left out fall back to
// the built-in manifest; an empty path returns it unchanged.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var fromFile Manifest
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if fromFile.CacheName != "" {
		m.CacheName = fromFile.CacheName
	}
	if len(fromFile.Assets) > 0 {
		m.Assets = fromFile.Assets
	}
	return m, m.validate()
}

func (m Manifest) validate() error {
	for _, a := range m.Assets {
		if !strings.HasPrefix(a, "/") {
			return fmt.Errorf("manifest asset %q must be an absolute path", a)
		}
	}
	return nil
}
