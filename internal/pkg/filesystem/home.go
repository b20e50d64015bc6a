package filesystem

import (
	"os"
	"path/filepath"
)

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// AppDir returns the scribe data directory (~/.scribe), creating it when
// missing.
func AppDir() string {
	dir := filepath.Join(UserHomeDir(), ".scribe")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}
