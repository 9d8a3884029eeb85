package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "gnflore"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/gnflore by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/gnflore by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// ScratchDir returns the directory where intermediate batches are kept.
// Returns ~/.cache/gnflore/scratch by default.
func ScratchDir(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "scratch")
}

// DataDir returns the directory path for reference datasets.
// Returns ~/.local/share/gnflore by default.
func DataDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/gnflore/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(DataDir(homeDir), "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/gnflore/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// RegistryFilePath returns default location of the status registry.
func RegistryFilePath(homeDir string) string {
	return filepath.Join(DataDir(homeDir), "BDCstatut.csv")
}

// RegistryPath returns configured registry location or the default one.
func (c *Config) RegistryPath() string {
	if c.Registry.Path != "" {
		return c.Registry.Path
	}
	return RegistryFilePath(c.HomeDir)
}
