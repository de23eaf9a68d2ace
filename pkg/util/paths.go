package util

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories.
const AppName = "discordmenu"

// ConfigDir returns the per-user config directory, $DISCORDMENU_CONFIG_DIR
// when set.
func ConfigDir() string {
	if d := EnvString("DISCORDMENU_CONFIG_DIR", ""); d != "" {
		return d
	}
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, AppName)
	}
	return filepath.Join(".", "."+AppName)
}

// DataDir returns the directory holding the sqlite store and logs.
func DataDir() string {
	if d := EnvString("DISCORDMENU_DATA_DIR", ""); d != "" {
		return d
	}
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, AppName)
	}
	return filepath.Join(".", "."+AppName)
}

// ConfigFilePath is the default config file.
func ConfigFilePath() string { return filepath.Join(ConfigDir(), "config.yaml") }

// StoreFilePath is the default sqlite database.
func StoreFilePath() string { return filepath.Join(DataDir(), "menus.db") }

// LogFilePath is the default rotating log file.
func LogFilePath() string { return filepath.Join(DataDir(), "logs", AppName+".log") }
