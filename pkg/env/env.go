package env

import "os"

// Get returns the variable's value, or fallback when it is unset or blank.
// Used for the few knobs read before config parsing runs.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
