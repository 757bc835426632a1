package contract

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/runlens/schema"
)

// Default values for configuration.
const (
	DefaultCacheTTL      = 30 * time.Second
	DefaultQueryTimeout  = 30 * time.Second
	DefaultMinExecutions = 5
	DefaultResultLimit   = 50
	MaxResultLimit       = 1000
	DefaultPrecision     = 2
	DefaultListenAddr    = ":8080"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	CatalogBackend   schema.DatabaseBackend
	CatalogDBConnect string // Please use env var as this is plaintext
	QueryTimeout     time.Duration

	CacheTTL          time.Duration
	CacheSingleFlight bool

	// TTLOverrides maps a metric to its own cache TTL.
	TTLOverrides map[schema.MetricName]time.Duration

	MinExecutions int
	Listen        string

	LogLevel  string
	LogFormat string

	ResultLimit  int
	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)
	BusinessUnit string
	UseColors    bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	CatalogBackend    string `mapstructure:"catalog-backend"`
	CatalogDBConnect  string `mapstructure:"catalog-db-connect"`
	QueryTimeout      string `mapstructure:"query-timeout"`
	CacheTTL          string `mapstructure:"cache-ttl"`
	CacheSingleFlight string `mapstructure:"cache-single-flight"`
	MinExecutions     int    `mapstructure:"min-executions"`
	LogLevel          string `mapstructure:"log-level"`
	LogFormat         string `mapstructure:"log-format"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Limit             int    `mapstructure:"limit"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	BusinessUnit      string `mapstructure:"business-unit"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`

	// --- Per-metric TTLs from flag, e.g. "metrics:10s,trends:1m" ---
	TTLOverrideStr string `mapstructure:"ttl-override"`

	// --- Per-metric TTLs from config file ---
	TTL map[string]string `mapstructure:"ttl"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.TTLOverrides != nil {
		clone.TTLOverrides = make(map[schema.MetricName]time.Duration, len(c.TTLOverrides))
		maps.Copy(clone.TTLOverrides, c.TTLOverrides)
	}
	return &clone
}

// TTLFor returns the cache TTL of a metric.
func (c *Config) TTLFor(metric schema.MetricName) time.Duration {
	if ttl, ok := c.TTLOverrides[metric]; ok {
		return ttl
	}
	return c.CacheTTL
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateCatalogConfig(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := processTTLOverrides(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of catalog connection strings.
// A blank string is accepted for every backend and means "not configured".
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	if connStr == "" {
		return nil
	}
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.SQLServerBackend:
		lower := strings.ToLower(connStr)
		if !strings.HasPrefix(lower, "sqlserver://") && !strings.Contains(lower, "server=") {
			return fmt.Errorf("SQL Server connection string must be a sqlserver:// URL or contain 'server=' parameter")
		}
	case schema.MySQLBackend:
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for the host:port address")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
		if !strings.Contains(connStr, "parseTime=true") {
			return fmt.Errorf("MySQL connection string must set 'parseTime=true' so timestamps scan as time values")
		}
	case schema.PostgreSQLBackend:
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend validates a backend name.
func ParseBackend(raw string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if backend == "" {
		return schema.SQLiteBackend, nil
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid catalog backend '%s'. must be sqlserver, postgresql, mysql, sqlite, none", raw)
	}
	return backend, nil
}

// validateCatalogConfig validates the catalog backend configuration.
func validateCatalogConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.CatalogBackend)
	if err != nil {
		return err
	}
	cfg.CatalogBackend = backend
	cfg.CatalogDBConnect = input.CatalogDBConnect
	return ValidateDatabaseConnectionString(cfg.CatalogBackend, cfg.CatalogDBConnect)
}

// validateSimpleInputs processes and validates all non-catalog fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.BusinessUnit = strings.TrimSpace(input.BusinessUnit)

	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListenAddr
	}

	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be console, json", input.LogFormat)
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	singleFlight, err := ParseBoolString(input.CacheSingleFlight)
	if err != nil {
		return fmt.Errorf("invalid --cache-single-flight value: %w", err)
	}
	cfg.CacheSingleFlight = singleFlight

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.MinExecutions < 1 {
		return fmt.Errorf("min-executions must be at least 1 (received %d)", input.MinExecutions)
	}
	cfg.MinExecutions = input.MinExecutions

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	return nil
}

// processDurations parses the timeout and TTL durations.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	timeout, err := parsePositiveDuration(input.QueryTimeout, DefaultQueryTimeout)
	if err != nil {
		return fmt.Errorf("invalid query-timeout: %w", err)
	}
	cfg.QueryTimeout = timeout

	ttl, err := parsePositiveDuration(input.CacheTTL, DefaultCacheTTL)
	if err != nil {
		return fmt.Errorf("invalid cache-ttl: %w", err)
	}
	cfg.CacheTTL = ttl
	return nil
}

// processTTLOverrides merges the config file TTL map with the --ttl-override flag.
// The flag takes precedence over the config file.
func processTTLOverrides(cfg *Config, input *ConfigRawInput) error {
	overrides := make(map[schema.MetricName]time.Duration)

	for raw, value := range input.TTL {
		metric, ok := schema.ParseMetricName(raw)
		if !ok {
			return fmt.Errorf("invalid ttl metric '%s'", raw)
		}
		ttl, err := parsePositiveDuration(value, 0)
		if err != nil {
			return fmt.Errorf("invalid ttl for metric %s: %w", metric, err)
		}
		overrides[metric] = ttl
	}

	if input.TTLOverrideStr != "" {
		parsed, err := parseTTLOverrideString(input.TTLOverrideStr)
		if err != nil {
			return fmt.Errorf("invalid --ttl-override format: %w", err)
		}
		maps.Copy(overrides, parsed)
	}

	cfg.TTLOverrides = overrides
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// parseTTLOverrideString parses a string like "metrics:10s,trends:1m"
// into a map of MetricName to time.Duration.
func parseTTLOverrideString(s string) (map[schema.MetricName]time.Duration, error) {
	overrides := make(map[schema.MetricName]time.Duration)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid ttl format '%s', expected 'metric:duration'", part)
		}

		metric, ok := schema.ParseMetricName(keyValue[0])
		if !ok {
			return nil, fmt.Errorf("invalid metric '%s'", strings.TrimSpace(keyValue[0]))
		}

		ttl, err := parsePositiveDuration(keyValue[1], 0)
		if err != nil {
			return nil, fmt.Errorf("invalid ttl value '%s' for metric %s: %w", strings.TrimSpace(keyValue[1]), metric, err)
		}
		overrides[metric] = ttl
	}

	return overrides, nil
}

// parsePositiveDuration parses a Go duration or a bare number of seconds.
// A blank value yields fallback.
func parsePositiveDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if fallback <= 0 {
			return 0, fmt.Errorf("duration is required")
		}
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, err
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive (received %s)", raw)
	}
	return d, nil
}
