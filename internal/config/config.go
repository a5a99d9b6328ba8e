package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// DefaultPath is where the primary configuration is expected.
const DefaultPath = "/etc/ws.conf"

// Load loads the primary configuration from the specified file. A missing or
// malformed primary configuration is fatal: no operation may proceed without
// knowing areas, limits and the record ownership identity.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists. Only useful on test and staging hosts;
	// production config should not depend on process environment.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, wserrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, wserrors.ConfigInvalid(configPath, err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, wserrors.ConfigInvalid(configPath, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadUserExceptions loads the secondary per-user override configuration.
// Absence is tolerated and yields an empty set; a present but malformed file
// is a configuration error, silently honoring half a policy file would be
// worse than refusing.
func LoadUserExceptions(path string) (*UserExceptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserExceptions{}, nil
		}
		return nil, wserrors.ConfigInvalid(path, err)
	}

	var exc UserExceptions
	if err := yaml.Unmarshal(data, &exc); err != nil {
		return nil, wserrors.ConfigInvalid(path, err)
	}
	return &exc, nil
}

// validate checks structural requirements before any operation runs.
func (c *Config) validate() error {
	if len(c.Workspaces) == 0 {
		return wserrors.ConfigRequired("workspaces")
	}
	if c.Default == "" {
		return wserrors.ConfigRequired("default")
	}
	if _, ok := c.Workspaces[c.Default]; !ok {
		return wserrors.ValidationFailed("default",
			fmt.Sprintf("default area %q is not a configured workspace area", c.Default))
	}
	if c.Duration <= 0 {
		return wserrors.ConfigRequired("duration")
	}
	for name, area := range c.Workspaces {
		if area == nil || len(area.Spaces) == 0 {
			return wserrors.ValidationFailed("workspaces."+name+".spaces", "at least one storage root is required")
		}
		if area.Database == "" {
			return wserrors.ValidationFailed("workspaces."+name+".database", "record directory is required")
		}
		if area.Deleted == "" {
			return wserrors.ValidationFailed("workspaces."+name+".deleted", "deleted subdirectory name is required")
		}
	}
	return nil
}

// Area returns the named area or a NotFound-style validation error.
func (c *Config) Area(name string) (*Area, error) {
	area, ok := c.Workspaces[name]
	if !ok {
		return nil, wserrors.ValidationFailed("filesystem",
			fmt.Sprintf("workspace area %q is not configured", name))
	}
	return area, nil
}
