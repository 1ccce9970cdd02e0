// Package config provides the configuration of an interpreter.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ichiban/resolve/engine"
)

// Config is the configuration of an interpreter.
type Config struct {
	// Unknown is what a call to an undefined predicate does: error, fail, or warning.
	Unknown string `yaml:"unknown"`

	// Trace turns on tracing of every predicate.
	Trace bool `yaml:"trace"`

	// Spy lists predicate indicators such as foo/2 to trace.
	Spy []string `yaml:"spy"`

	// IndexCacheSize bounds the number of clause indexes each static predicate keeps.
	IndexCacheSize int `yaml:"index_cache_size"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`

	// Consult lists the files consulted on start.
	Consult []string `yaml:"consult"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Unknown:        engine.UnknownError.String(),
		IndexCacheSize: engine.DefaultIndexCacheSize,
		LogLevel:       logrus.InfoLevel.String(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := engine.ParseUnknownAction(c.Unknown); err != nil {
		return errors.Wrap(err, "invalid unknown")
	}
	if c.IndexCacheSize <= 0 {
		return errors.Errorf("index_cache_size must be positive: %d", c.IndexCacheSize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	for _, s := range c.Spy {
		if _, err := ParseIndicator(s); err != nil {
			return errors.Wrapf(err, "invalid spy %s", s)
		}
	}
	return nil
}

// UnknownAction returns Unknown as an engine.UnknownAction. It falls back to
// engine.UnknownError for an invalid value.
func (c *Config) UnknownAction() engine.UnknownAction {
	u, err := engine.ParseUnknownAction(c.Unknown)
	if err != nil {
		return engine.UnknownError
	}
	return u
}

// Level returns LogLevel as a logrus level. It falls back to info for an invalid value.
func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

// SpyKeys returns the predicates of Spy. Invalid entries are skipped.
func (c *Config) SpyKeys() []engine.PredicateKey {
	keys := make([]engine.PredicateKey, 0, len(c.Spy))
	for _, s := range c.Spy {
		k, err := ParseIndicator(s)
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// LoadFromFile reads a configuration from a YAML file. Missing fields keep their
// default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveToFile writes the configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Merge overrides the fields of c with the non-zero fields of other.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Unknown != "" {
		c.Unknown = other.Unknown
	}
	if other.Trace {
		c.Trace = true
	}
	if len(other.Spy) > 0 {
		c.Spy = append(c.Spy, other.Spy...)
	}
	if other.IndexCacheSize != 0 {
		c.IndexCacheSize = other.IndexCacheSize
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if len(other.Consult) > 0 {
		c.Consult = append(c.Consult, other.Consult...)
	}
}

// ParseIndicator parses a predicate indicator such as foo/2.
func ParseIndicator(s string) (engine.PredicateKey, error) {
	i := strings.LastIndexByte(s, '/')
	if i <= 0 {
		return engine.PredicateKey{}, errors.Errorf("not a predicate indicator: %s", s)
	}
	arity, err := strconv.Atoi(s[i+1:])
	if err != nil || arity < 0 {
		return engine.PredicateKey{}, errors.Errorf("invalid arity: %s", s)
	}
	return engine.PredicateKey{Name: engine.Atom(s[:i]), Arity: arity}, nil
}
