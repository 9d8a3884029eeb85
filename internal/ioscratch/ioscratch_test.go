package ioscratch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gnames/gnflore/internal/ioscratch"
	"github.com/gnames/gnflore/pkg/aggregate"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/ent/wkt"
	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func() (scratch.Store, error) {
	return map[string]func() (scratch.Store, error){
		"memory": func() (scratch.Store, error) {
			return ioscratch.NewMemory(), nil
		},
		"file": func() (scratch.Store, error) {
			return ioscratch.NewFile(filepath.Join(t.TempDir(), "file"))
		},
		"badger": func() (scratch.Store, error) {
			return ioscratch.NewBadger(filepath.Join(t.TempDir(), "badger"))
		},
		"sqlite": func() (scratch.Store, error) {
			return ioscratch.NewSQLite(filepath.Join(t.TempDir(), "sqlite"))
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := open()
			require.NoError(t, err)
			defer s.Close()

			k1 := scratch.BatchKey("run-a", 1)
			k0 := scratch.BatchKey("run-a", 0)
			kb := scratch.BatchKey("run-b", 0)

			require.NoError(t, s.Put(ctx, k1, []byte("one")))
			require.NoError(t, s.Put(ctx, k0, []byte("zero")))
			require.NoError(t, s.Put(ctx, kb, []byte("other")))

			data, err := s.Get(ctx, k0)
			require.NoError(t, err)
			assert.Equal(t, "zero", string(data))

			require.NoError(t, s.Put(ctx, k0, []byte("replaced")))
			data, err = s.Get(ctx, k0)
			require.NoError(t, err)
			assert.Equal(t, "replaced", string(data))

			keys, err := s.Keys(ctx, scratch.RunPrefix("run-a"))
			require.NoError(t, err)
			assert.Equal(t, []string{k0, k1}, keys)

			require.NoError(t, s.Delete(ctx, k0))
			require.NoError(t, s.Delete(ctx, k0), "deleting twice is fine")
			_, err = s.Get(ctx, k0)
			assert.ErrorIs(t, err, scratch.ErrNotFound)

			keys, err = s.Keys(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{k1, kb}, keys)
		})
	}
}

func TestStoreConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := open()
			require.NoError(t, err)
			defer s.Close()

			var wg sync.WaitGroup
			for r := range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					run := fmt.Sprintf("run-%d", r)
					for i := range 5 {
						assert.NoError(t, s.Put(ctx, scratch.BatchKey(run, i), []byte(run)))
					}
				}()
			}
			wg.Wait()

			for r := range 4 {
				run := fmt.Sprintf("run-%d", r)
				keys, err := s.Keys(ctx, scratch.RunPrefix(run))
				require.NoError(t, err)
				assert.Len(t, keys, 5)
			}
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	s, err := ioscratch.NewFile(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	for _, k := range []string{"", "../escape", "a//b", "/abs", "a/./b"} {
		assert.Error(t, s.Put(ctx, k, []byte("x")), k)
	}
}

func TestCloseRemovesData(t *testing.T) {
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "file")
	fs, err := ioscratch.NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Put(ctx, "run/batch-000000", []byte("x")))
	require.NoError(t, fs.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	dir = filepath.Join(t.TempDir(), "badger")
	bs, err := ioscratch.NewBadger(dir)
	require.NoError(t, err)
	require.NoError(t, bs.Put(ctx, "run/batch-000000", []byte("x")))
	require.NoError(t, bs.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, bs.Close(), "second close is a no-op")
}

type pagedSearcher struct {
	total int
}

func (p pagedSearcher) Search(
	_ context.Context,
	_ occ.SearchQuery,
	limit, offset int,
) (occ.Page, error) {
	res := occ.Page{Count: p.total, Offset: offset, Limit: limit}
	for i := offset; i < min(offset+limit, p.total); i++ {
		res.Results = append(res.Results, occ.Record{Key: int64(i + 1)})
	}
	return res, nil
}

func TestFileDeletePrunesRunDirs(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "file")
	fs, err := ioscratch.NewFile(dir)
	require.NoError(t, err)
	defer fs.Close()

	require.NoError(t, fs.Put(ctx, "run1/batch-000000", []byte("a")))
	require.NoError(t, fs.Put(ctx, "run1/batch-000001", []byte("b")))
	require.NoError(t, fs.Delete(ctx, "run1/batch-000000"))
	_, err = os.Stat(filepath.Join(dir, "run1"))
	assert.NoError(t, err, "directory with keys stays")

	require.NoError(t, fs.Delete(ctx, "run1/batch-000001"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// a pruned run directory is created again
	require.NoError(t, fs.Put(ctx, "run1/batch-000002", []byte("c")))
	res, err := fs.Get(ctx, "run1/batch-000002")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), res)
}

func TestFileEmptyAfterRuns(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "file")
	fs, err := ioscratch.NewFile(dir)
	require.NoError(t, err)
	defer fs.Close()

	cfg := aggregate.DefaultConfig()
	cfg.PageSize = 10
	cfg.BatchSize = 2
	cfg.Retry.Delay = 0
	eng := aggregate.New(cfg, pagedSearcher{total: 55}, fs)

	q := occ.SearchQuery{Geometry: wkt.CircularPolygon(45, 5, 1, 8)}
	for range 3 {
		recs, err := eng.Aggregate(ctx, q)
		require.NoError(t, err)
		assert.Len(t, recs, 55)
	}

	keys, err := fs.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no run directories are left")
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
	}{
		{"file"}, {"badger"}, {"sqlite"}, {"memory"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			home := t.TempDir()
			cfg := config.New()
			cfg.Update([]config.Option{
				config.OptHomeDir(home),
				config.OptScratchBackend(tt.backend),
			})

			s, err := ioscratch.New(cfg)
			require.NoError(t, err)
			require.NoError(t, s.Put(context.Background(), "r/batch-000000", []byte("x")))
			require.NoError(t, s.Close())

			if tt.backend == "memory" {
				return
			}
			entries, err := os.ReadDir(config.ScratchDir(home))
			require.NoError(t, err)
			assert.Empty(t, entries, "run directory is removed on close")
		})
	}
}
