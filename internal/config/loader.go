package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applies the
// `default` tags and validates the result. Every bad variable is reported,
// not just the first.
func Load() (*Config, error) {
	cfg := &Config{}

	var problems []error
	loadStruct(reflect.ValueOf(cfg).Elem(), &problems)
	if len(problems) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(problems...))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadStruct fills the tagged fields of v, descending into nested groups.
func loadStruct(v reflect.Value, problems *[]error) {
	t := v.Type()
	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			loadStruct(fv, problems)
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}

		raw, found := lookupEnv(name, sf.Tag.Get("envAlt"))
		if !found {
			if sf.Tag.Get("required") == "true" {
				*problems = append(*problems, fmt.Errorf("%s is required", name))
				continue
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := assign(fv, raw); err != nil {
			*problems = append(*problems, fmt.Errorf("%s=%q: %w", name, raw, err))
		}
	}
}

// lookupEnv returns the first non-empty variable among names.
func lookupEnv(names ...string) (string, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v := os.Getenv(n); v != "" {
			return v, true
		}
	}
	return "", false
}

// assign parses raw into fv according to its type.
func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("not a duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("not a boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list of %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks settings that parse but make no sense together. All
// problems are reported in one error.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	check(c.Server.RequestTimeout > 0, "SERVER_REQUEST_TIMEOUT must be positive")

	check(strings.TrimSpace(c.Session.CookieName) != "", "SESSION_COOKIE_NAME must not be empty")
	check(c.Session.IdleTimeout > 0, "SESSION_IDLE_TIMEOUT must be positive")
	check(c.Session.SweepInterval > 0, "SESSION_SWEEP_INTERVAL must be positive")
	check(c.Session.MaxSessions >= 0, "SESSION_MAX must be non-negative")

	check(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	check(c.Upload.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	check(c.Upload.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")

	check(!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0,
		"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is set but API_KEYS is empty")

	check(!c.Audit.Enabled() || c.Audit.MaxConns > 0, "DB_MAX_CONNS must be positive")
	check(c.Audit.Retention >= 0, "AUDIT_RETENTION must be non-negative")
	check(c.Audit.MemoryEntries > 0, "AUDIT_MEMORY_ENTRIES must be positive")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// String renders the config for startup logs with secrets masked.
func (c *Config) String() string {
	dbURL := `""`
	if c.Audit.Enabled() {
		dbURL = "[MASKED]"
	}
	return fmt.Sprintf("Config{Server: {Addr: %q}, Session: {IdleTimeout: %s, MaxSessions: %d}, "+
		"Upload: {MaxFileSize: %d, MaxConcurrent: %d}, Rate: {Enabled: %t, RequestsPerMinute: %d}, "+
		"Security: {RequireAPIKey: %t, APIKeys: %d configured}, Sample: {Path: %q}, "+
		"Audit: {DatabaseURL: %s, Retention: %s}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), c.Session.IdleTimeout, c.Session.MaxSessions,
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Sample.Path,
		dbURL, c.Audit.Retention, c.Logging.Level, c.Logging.Format)
}
