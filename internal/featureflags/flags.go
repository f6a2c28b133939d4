package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	SkipPlaceDetails = "SKIP_PLACE_DETAILS"
	RunRetention     = "NOTIFICATION_RETENTION"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return EnabledOr(name, false)
}

// EnabledOr is Enabled with a default for when the flag is unset or unparsable
func EnabledOr(name string, fallback bool) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
