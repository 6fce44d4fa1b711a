package core

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joeydtaylor/contentops/pkg/manifest"
	toml "github.com/pelletier/go-toml/v2"
)

// ManifestPath is $APP_MANIFEST or manifest.toml.
func ManifestPath() string {
	if p := strings.TrimSpace(os.Getenv("APP_MANIFEST")); p != "" {
		return p
	}
	return "manifest.toml"
}

func LoadConfig(path string) (manifest.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return manifest.Config{}, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes and validates a manifest. Unknown keys are errors.
func ParseConfig(b []byte) (manifest.Config, error) {
	var cfg manifest.Config
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return manifest.Config{}, fmt.Errorf("manifest: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return manifest.Config{}, err
	}
	return cfg, nil
}
