// Package util provides environment variable parsing helpers shared across
// components.
package util

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ParseBoolEnv parses a boolean environment variable with a default value.
// Accepts: true/1/yes/on and false/0/no/off (case-insensitive). Invalid
// values return default.
func ParseBoolEnv(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		slog.Warn("ParseBoolEnv: invalid boolean value, using default", "key", key, "value", val, "default", defaultValue)
		return defaultValue
	}
}

// SplitList splits a comma-separated value into trimmed non-empty entries.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseChatIDs parses a comma-separated list of numeric chat ids, logging
// and skipping invalid entries rather than failing startup.
func ParseChatIDs(raw string) []int64 {
	var ids []int64
	for _, part := range SplitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			slog.Warn("ParseChatIDs: ignoring invalid chat id entry", "entry", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
