package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Page mounts a registered page at Path. Actions post to Path/actions/{binding}.
type Page struct {
	Name   string `toml:"name"`
	Path   string `toml:"path"`
	Title  string `toml:"title"`
	Nav    bool   `toml:"nav"`
	Guard  Guard  `toml:"guard"`
	Policy Policy `toml:"policy"`
}

func (p *Page) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("name is required")
	}
	cp, err := cleanPath(p.Path)
	if err != nil {
		return err
	}
	if strings.Contains(cp, "{") || strings.HasSuffix(cp, "/actions") {
		return fmt.Errorf("path %q must be static and not end in /actions", cp)
	}
	p.Path = cp
	return p.Policy.validate()
}
