package manifest

import "fmt"

// Config is the top-level manifest.
type Config struct {
	App      App      `toml:"app"`
	Pages    []Page   `toml:"page"`
	Routes   []Route  `toml:"route"`
	Store    Store    `toml:"store"`
	Workflow Workflow `toml:"workflow"`
	Blob     Blob     `toml:"blob"`
	Events   Events   `toml:"events"`
}

// Validate normalizes the manifest in place and reports the first problem.
func (c *Config) Validate() error {
	if err := c.App.normalize(); err != nil {
		return wrap("app", err)
	}
	c.Store.normalize()
	if err := c.Workflow.normalize(); err != nil {
		return err
	}
	if err := c.Blob.normalize(); err != nil {
		return err
	}
	if err := c.validatePages(); err != nil {
		return err
	}
	if err := c.validateRoutes(); err != nil {
		return err
	}
	return c.validateTimeouts()
}

// validateTimeouts rejects policies the server would cut off first.
func (c *Config) validateTimeouts() error {
	limit := c.App.WriteTimeoutMS
	for _, p := range c.Pages {
		if p.Policy.TimeoutMS > limit {
			return wrap("page "+p.Name, fmt.Errorf("policy.timeout_ms %d exceeds app.write_timeout_ms %d", p.Policy.TimeoutMS, limit))
		}
	}
	for _, r := range c.Routes {
		if r.Policy.TimeoutMS > limit {
			return wrap("route "+r.Path, fmt.Errorf("policy.timeout_ms %d exceeds app.write_timeout_ms %d", r.Policy.TimeoutMS, limit))
		}
	}
	return nil
}

// Page returns the page mounted under name.
func (c *Config) Page(name string) (Page, bool) {
	for _, p := range c.Pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}
