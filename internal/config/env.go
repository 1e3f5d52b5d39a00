package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome           = "BREWBAR_HOME"
	EnvProviderURL    = "BREWBAR_PROVIDER_URL"
	EnvCafeAddress    = "BREWBAR_CAFE_ADDRESS"
	EnvFactoryAddress = "BREWBAR_FACTORY_ADDRESS"
	EnvOutputFormat   = "BREWBAR_OUTPUT_FORMAT"
	EnvVerbose        = "BREWBAR_VERBOSE"
	EnvLogLevel       = "BREWBAR_LOG_LEVEL"
	EnvStrictProbe    = "BREWBAR_STRICT_PROBE"
	EnvNoColor        = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvProviderURL); v != "" {
		cfg.Provider.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvCafeAddress); v != "" {
		cfg.Store.CafeAddress = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvFactoryAddress); v != "" {
		cfg.Store.FactoryAddress = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvStrictProbe); v != "" {
		cfg.Registry.StrictProbe = parseBool(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims whitespace and strips control characters and quotes that
// sneak in when an endpoint is copy-pasted.
func SanitizeURL(url string) string {
	url = strings.TrimSpace(url)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' || r == '\'' || r == ' ' {
			return -1
		}
		return r
	}, url)
}
