package ioscratch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/gnames/gnsys"
)

const fileExt = ".bin"

// File keeps every value in its own file. Key segments separated by '/'
// become subdirectories.
type File struct {
	dir string
}

// NewFile uses dir as the root of the store. The directory is created if
// it does not exist.
func NewFile(dir string) (*File, error) {
	dir = filepath.Clean(dir)
	if err := gnsys.MakeDir(dir); err != nil {
		return nil, err
	}
	return &File{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, filepath.FromSlash(key)) + fileExt
}

func (f *File) Put(_ context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	path := f.path(key)
	if err := gnsys.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	// write to a temporary file first, readers never see partial batches
	tmp := path + ".tmp"
	err := os.WriteFile(tmp, data, 0o600)
	if errors.Is(err, fs.ErrNotExist) {
		// the directory was pruned by Delete of the last key in it
		if err = gnsys.MakeDir(filepath.Dir(path)); err == nil {
			err = os.WriteFile(tmp, data, 0o600)
		}
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	res, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, scratch.ErrNotFound
	}
	return res, err
}

func (f *File) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	path := f.path(key)
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	f.prune(filepath.Dir(path))
	return nil
}

// prune removes dir and its parents up to the store root while they are
// empty.
func (f *File) prune(dir string) {
	for dir != f.dir && strings.HasPrefix(dir, f.dir+string(filepath.Separator)) {
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (f *File) Keys(_ context.Context, prefix string) ([]string, error) {
	var res []string
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, fileExt) {
			return nil
		}
		rel, err := filepath.Rel(f.dir, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), fileExt)
		if strings.HasPrefix(key, prefix) {
			res = append(res, key)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	slices.Sort(res)
	return res, err
}

// Close removes the whole directory of the store.
func (f *File) Close() error {
	return os.RemoveAll(f.dir)
}
