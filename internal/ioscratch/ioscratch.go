// Package ioscratch implements scratch.Store on top of a directory of
// files, Badger, SQLite or process memory.
package ioscratch

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/gnames/gnsys"
)

// New opens a scratch store selected by cfg.Scratch.Backend. Persistent
// backends get a fresh directory under the scratch dir of the cache. The
// directory is removed by Close.
func New(cfg *config.Config) (scratch.Store, error) {
	backend := cfg.Scratch.Backend
	if backend == "memory" {
		return NewMemory(), nil
	}

	base := config.ScratchDir(cfg.HomeDir)
	dir, err := runDir(base, backend)
	if err != nil {
		return nil, err
	}

	var res scratch.Store
	switch backend {
	case "badger":
		res, err = NewBadger(dir)
	case "sqlite":
		res, err = NewSQLite(dir)
	case "file", "":
		res, err = NewFile(dir)
	default:
		err = fmt.Errorf("unknown scratch backend %q", backend)
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, OpenError(backend, dir, err)
	}
	slog.Info("Scratch store is ready", "backend", backend, "dir", dir)
	return res, nil
}

// runDir creates a unique directory, so several processes can share the
// same cache without key collisions.
func runDir(base, backend string) (string, error) {
	if err := gnsys.MakeDir(base); err != nil {
		return "", OpenError(backend, base, err)
	}
	dir, err := os.MkdirTemp(base, backend+"-")
	if err != nil {
		return "", OpenError(backend, base, err)
	}
	return dir, nil
}

// validKey rejects keys that could escape the store's directory.
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty scratch key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid scratch key %q", key)
		}
	}
	if strings.ContainsAny(key, `\`+"\x00") {
		return fmt.Errorf("invalid scratch key %q", key)
	}
	return nil
}
