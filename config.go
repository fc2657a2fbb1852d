package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError is a fatal pre-generation error: a missing or malformed
// configuration value. Nothing is generated when one occurs.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, v ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, v...)}
}

// Config is the file-level configuration. Exporter field values arrive as
// strings regardless of their semantic type; each sink constructor parses
// and validates its own fields at startup so that a bad value can never
// surface mid-stream.
type Config struct {
	NumberOfEntries    uint64            `yaml:"number_of_entries"`
	UseNowAsTimestamp  bool              `yaml:"use_now_as_timestamp"`
	StartTimestamp     string            `yaml:"start_timestamp"`
	GenerationDuration string            `yaml:"generation_duration"`
	DistributionBy     string            `yaml:"distribution_by"`
	Seed               string            `yaml:"seed,omitempty"`
	Extra              int               `yaml:"extra,omitempty"`
	Services           int               `yaml:"services,omitempty"`
	Fields             map[string]string `yaml:"fields,omitempty"`
	Exporters          []ExporterConfig  `yaml:"exporter"`
}

// ExporterConfig is one entry of the exporter list, still stringly typed.
type ExporterConfig struct {
	Name    string            `yaml:"name"`
	Enabled bool              `yaml:"enabled"`
	Verbose bool              `yaml:"verbose,omitempty"`
	Fields  map[string]string `yaml:"fields,omitempty"`
}

func ReadConfig(cfg *Config, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return configErrorf("unable to parse config file %s: %v", filename, err)
	}
	return nil
}

// Validate checks everything that does not depend on the clock.
func (c *Config) Validate() error {
	if c.NumberOfEntries == 0 {
		return configErrorf("number_of_entries must be greater than 0")
	}
	if _, err := parseStrategy(c.DistributionBy); err != nil {
		return err
	}
	d, err := parseWindow(c.GenerationDuration)
	if err != nil {
		return err
	}
	if d <= 0 {
		return configErrorf("generation_duration must be positive, got %s", c.GenerationDuration)
	}
	if !c.UseNowAsTimestamp {
		if c.StartTimestamp == "" {
			return configErrorf("start_timestamp is required when use_now_as_timestamp is false")
		}
		if _, err := parseStart(c.StartTimestamp); err != nil {
			return err
		}
	}
	if len(c.Exporters) == 0 {
		return configErrorf("at least one exporter must be configured")
	}
	enabled := 0
	for _, e := range c.Exporters {
		if e.Name == "" {
			return configErrorf("exporter entry is missing a name")
		}
		if e.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return configErrorf("no exporter is enabled")
	}
	return nil
}

// BuildPlan resolves the window against the clock and produces the immutable
// generation plan.
func (c *Config) BuildPlan(now time.Time) (GenerationPlan, error) {
	if err := c.Validate(); err != nil {
		return GenerationPlan{}, err
	}
	start := now
	if !c.UseNowAsTimestamp {
		var err error
		start, err = parseStart(c.StartTimestamp)
		if err != nil {
			return GenerationPlan{}, err
		}
	}
	window, err := parseWindow(c.GenerationDuration)
	if err != nil {
		return GenerationPlan{}, err
	}
	strategy, err := parseStrategy(c.DistributionBy)
	if err != nil {
		return GenerationPlan{}, err
	}
	return GenerationPlan{
		TotalEntries:   c.NumberOfEntries,
		WindowStart:    start,
		WindowDuration: window,
		Strategy:       strategy,
		Seed:           c.Seed,
	}, nil
}

func parseStart(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, configErrorf("unable to parse start_timestamp %q: %v", s, err)
	}
	return t, nil
}

// parseWindow parses duration strings such as "30s", "10m", "2h", "1d".
// Day units are not understood by time.ParseDuration, so they are expanded
// before delegating.
func parseWindow(s string) (time.Duration, error) {
	if s == "" {
		return 0, configErrorf("generation_duration is required")
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseInt(strings.TrimSuffix(s, "d"), 10, 64)
		if err != nil {
			return 0, configErrorf("unable to parse generation_duration %q: %v", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, configErrorf("unable to parse generation_duration %q: %v", s, err)
	}
	return d, nil
}

// getField pulls a string field from a sink's field map, returning the
// default when absent.
func getField(fields map[string]string, key, def string) string {
	if v, ok := fields[key]; ok {
		return v
	}
	return def
}

func getIntField(name string, fields map[string]string, key string, def int) (int, error) {
	v, ok := fields[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, configErrorf("exporter %s: field %s must be a positive integer, got %q", name, key, v)
	}
	return n, nil
}

func getDurationField(name string, fields map[string]string, key string, def time.Duration) (time.Duration, error) {
	v, ok := fields[key]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, configErrorf("exporter %s: field %s must be a positive duration, got %q", name, key, v)
	}
	return d, nil
}
