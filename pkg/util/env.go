package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvWithLocalBinFallback returns the value of envName. Variables that
// are missing from the environment are first filled from
// $HOME/.local/bin/.env when that file exists; set variables are never
// overwritten.
func LoadEnvWithLocalBinFallback(envName string) (string, error) {
	var envPath string
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		envPath = filepath.Join(home, ".local", "bin", ".env")
		if info, statErr := os.Stat(envPath); statErr == nil && !info.IsDir() {
			_ = godotenv.Load(envPath)
		}
	}

	if v := os.Getenv(envName); v != "" {
		return v, nil
	}
	if envPath == "" {
		return "", fmt.Errorf("environment variable %q not set and home directory unresolved", envName)
	}
	return "", fmt.Errorf("environment variable %q not set; attempted to load fallback file %s", envName, envPath)
}

// LoadDotEnv loads the given files without overriding set variables. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// EnvBool reports whether name holds a truthy value (1, true, yes, on).
func EnvBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on", "y":
		return true
	default:
		return false
	}
}

// EnvString returns the trimmed value of name, or def when it is blank.
func EnvString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// EnvInt64 parses name as an integer, returning def when unset or invalid.
func EnvInt64(name string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
