package manifest

import (
	"errors"
	"fmt"
	"strings"
)

func wrap(scope string, err error) error { return fmt.Errorf("%s: %w", scope, err) }

func (c *Config) validatePages() error {
	if len(c.Pages) == 0 {
		return errors.New("manifest: at least one [[page]] is required")
	}
	names := map[string]bool{}
	paths := map[string]bool{}
	for i := range c.Pages {
		p := &c.Pages[i]
		if err := p.normalize(); err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
		if names[p.Name] {
			return fmt.Errorf("page %d: duplicate name %q", i, p.Name)
		}
		if paths[p.Path] {
			return fmt.Errorf("page %d (%s): duplicate path %q", i, p.Name, p.Path)
		}
		names[p.Name], paths[p.Path] = true, true
	}
	return nil
}

// validateRoutes also rejects API routes that shadow a page.
func (c *Config) validateRoutes() error {
	pages := map[string]bool{}
	for _, p := range c.Pages {
		pages[p.Path] = true
	}
	seen := map[string]bool{}
	for i := range c.Routes {
		rt := &c.Routes[i]
		if err := rt.normalize(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if err := rt.validate(); err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, rt.Method, rt.Path, err)
		}
		key := rt.Method + " " + rt.Path
		if seen[key] {
			return fmt.Errorf("route %d: duplicate %s", i, key)
		}
		seen[key] = true
		if rt.Method == "GET" && pages[rt.Path] {
			return fmt.Errorf("route %d: %s is a page path", i, rt.Path)
		}
		if strings.HasPrefix(rt.Path, "/blob/") || rt.Path == "/metrics" || rt.Path == "/ping" {
			return fmt.Errorf("route %d: %s is reserved", i, rt.Path)
		}
	}
	return nil
}
