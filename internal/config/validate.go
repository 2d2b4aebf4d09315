package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Catalog.APIKey == "" {
		errs = append(errs, "catalog.api_key: required")
	}
	if c.Catalog.CacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("catalog.cache_ttl: must not be negative, got %s", c.Catalog.CacheTTL))
	}

	seen := make(map[string]bool)
	for i, lib := range c.Libraries {
		if lib.Name == "" {
			errs = append(errs, fmt.Sprintf("libraries[%d].name: required", i))
		} else if seen[lib.Name] {
			errs = append(errs, fmt.Sprintf("libraries[%d].name: duplicate %q", i, lib.Name))
		}
		seen[lib.Name] = true
		if lib.Type != "film" && lib.Type != "show" {
			errs = append(errs, fmt.Sprintf("libraries[%d].type: must be film or show, got %q", i, lib.Type))
		}
		if len(lib.Paths) == 0 {
			errs = append(errs, fmt.Sprintf("libraries[%d].paths: at least one path required", i))
		}
	}

	return errs
}
