package ai

import "os"

// getEnv reads the primary variable first and falls back to the
// provider's conventional name when the model does not override it.
func getEnv(primary, fallback string) string {
	if primary != "" {
		if v := os.Getenv(primary); v != "" {
			return v
		}
	}
	if fallback != "" {
		return os.Getenv(fallback)
	}
	return ""
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func defaultInt(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
