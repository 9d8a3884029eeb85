package iofs

import (
	_ "embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnsys"
)

//go:embed config.yaml
var ConfigYAML string

func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.ScratchDir(homeDir),
		config.DataDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.WriteFile(configPath, []byte(ConfigYAML), 0644); err != nil {
		return CopyFileError(configPath, err)
	}

	return nil
}

// CleanScratch removes batches left by runs that were killed before
// they could clean up. It must not be called while searches run.
func CleanScratch(homeDir string) error {
	dir := config.ScratchDir(homeDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) || len(entries) == 0 {
		return nil
	}
	if err != nil {
		return CleanDirError(dir, err)
	}

	slog.Info("Removing leftover scratch data", "dir", dir)
	if err = gnsys.CleanDir(dir); err != nil {
		return CleanDirError(dir, err)
	}
	return nil
}
