// Package env reads typed configuration values from the process environment.
// Blank or unparsable values fall back to the supplied default.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func parse[T any](key string, def T, fn func(string) (T, error)) T {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	out, err := fn(v)
	if err != nil {
		return def
	}
	return out
}

func String(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

// StringsCSV splits a comma separated value, dropping empty items.
func StringsCSV(key string, def []string) []string {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func Int(key string, def int) int { return parse(key, def, strconv.Atoi) }

func Int64(key string, def int64) int64 {
	return parse(key, def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func Float(key string, def float64) float64 {
	return parse(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func Bool(key string, def bool) bool { return parse(key, def, strconv.ParseBool) }

func Duration(key string, def time.Duration) time.Duration {
	return parse(key, def, time.ParseDuration)
}
