package utils

import (
	"maps"
	"strconv"
	"sync"
)

// Config is a thread-safe view of string configuration values sourced from
// the environment, with typed accessors and defaults.
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfig creates a Config from the provided key-value pairs.
func NewConfig(values map[string]string) *Config {
	config := &Config{values: make(map[string]string)}
	maps.Copy(config.values, values)
	return config
}

// NewConfigFromEnv creates a Config by loading the given .env files plus the
// process environment.
func NewConfigFromEnv(files ...string) *Config {
	return NewConfig(LoadEnv(files...))
}

// Get retrieves a configuration value, or empty string if unset.
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetWithDefault retrieves a configuration value with a fallback default.
func (c *Config) GetWithDefault(key, defaultValue string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if value, exists := c.values[key]; exists && value != "" {
		return value
	}
	return defaultValue
}

// GetInt retrieves a configuration value as an integer, or 0 when the key is
// missing or unparsable.
func (c *Config) GetInt(key string) int {
	parsed, err := strconv.Atoi(c.Get(key))
	if err != nil {
		return 0
	}
	return parsed
}

// GetIntWithDefault retrieves an integer configuration value with a fallback
// default.
func (c *Config) GetIntWithDefault(key string, defaultValue int) int {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetBool retrieves a configuration value as a boolean. Common truthy
// spellings ("1", "yes", "on") are accepted alongside strconv forms.
func (c *Config) GetBool(key string) bool {
	value := c.Get(key)
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}

	switch value {
	case "yes", "on", "enabled":
		return true
	default:
		return false
	}
}

// GetBoolWithDefault retrieves a boolean configuration value with a fallback
// default for missing keys.
func (c *Config) GetBoolWithDefault(key string, defaultValue bool) bool {
	c.mu.RLock()
	_, exists := c.values[key]
	c.mu.RUnlock()

	if !exists {
		return defaultValue
	}
	return c.GetBool(key)
}

// Set modifies a configuration value.
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Has checks whether a configuration key exists.
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.values[key]
	return exists
}
