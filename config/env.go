package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the value of an environment variable or a default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// GetEnvIntOrDefault parses an integer variable, falling back on absence or parse errors.
func GetEnvIntOrDefault(key string, defaultVal int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, val, defaultVal)
		return defaultVal
	}
	return n
}

// GetEnvFloatOrDefault parses a float variable, falling back on absence or parse errors.
func GetEnvFloatOrDefault(key string, defaultVal float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %g", key, val, defaultVal)
		return defaultVal
	}
	return f
}

// GetEnvBool reports whether a variable is set to a true value.
func GetEnvBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
