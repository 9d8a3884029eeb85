package aggregate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/internal/ioscratch"
	"github.com/gnames/gnflore/pkg/aggregate"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/errcode"
	"github.com/gnames/gnflore/pkg/retry"
	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = "POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))"

var errDown = errors.New("503 Service Unavailable")

// fakeSearcher serves count records in pages and records every call.
type fakeSearcher struct {
	mu    sync.Mutex
	count int
	// reported overrides count returned by the probe when not zero
	reported int
	// emptyFrom makes pages starting at this offset empty, if positive
	emptyFrom int
	// fails maps an offset to the number of failures before success,
	// negative values fail forever
	fails   map[int]int
	calls   []call
	onCall  func(offset int)
	queries []occ.SearchQuery
}

type call struct {
	limit, offset int
}

func (f *fakeSearcher) Search(
	_ context.Context,
	q occ.SearchQuery,
	limit, offset int,
) (occ.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{limit, offset})
	f.queries = append(f.queries, q)
	onCall := f.onCall
	var fail bool
	if n, ok := f.fails[offset]; ok && limit > 1 {
		if n != 0 {
			fail = true
			if n > 0 {
				f.fails[offset] = n - 1
			}
		}
	}
	f.mu.Unlock()

	if onCall != nil {
		onCall(offset)
	}
	if fail {
		return occ.Page{}, errDown
	}

	count := f.count
	if f.reported > 0 {
		count = f.reported
	}
	page := occ.Page{Offset: offset, Limit: limit, Count: count}
	if f.emptyFrom > 0 && offset >= f.emptyFrom {
		page.EndOfRecords = false
		return page, nil
	}
	for i := offset; i < offset+limit && i < f.count; i++ {
		page.Results = append(page.Results, occ.Record{
			Key:     int64(i),
			Species: fmt.Sprintf("Species %d", i%7),
		})
	}
	// the flag lies on purpose
	page.EndOfRecords = true
	return page, nil
}

func (f *fakeSearcher) pageCalls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []call
	for _, c := range f.calls {
		if c.limit > 1 {
			res = append(res, c)
		}
	}
	return res
}

func (f *fakeSearcher) callsAt(offset int) int {
	var res int
	for _, c := range f.pageCalls() {
		if c.offset == offset {
			res++
		}
	}
	return res
}

func testConfig() aggregate.Config {
	return aggregate.Config{
		PageSize:   10,
		BatchSize:  3,
		KingdomKey: occ.PlantaeKey,
		Retry:      retry.Policy{MaxAttempts: 3},
	}
}

// spyStore counts batches written to a memory store.
type spyStore struct {
	*ioscratch.Memory
	mu   sync.Mutex
	puts []string
}

func (s *spyStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.puts = append(s.puts, key)
	s.mu.Unlock()
	return s.Memory.Put(ctx, key, data)
}

func newSpy() *spyStore {
	return &spyStore{Memory: ioscratch.NewMemory()}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		batches int
	}{
		{"no records", 0, 0},
		{"one record", 1, 1},
		{"one full page", 10, 1},
		{"exact batch", 30, 1},
		{"batch plus one page", 31, 2},
		{"many batches", 95, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSearcher{count: tt.count}
			store := newSpy()
			eng := aggregate.New(testConfig(), src, store)

			res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Len(t, res, tt.count)
			for i := range res {
				assert.Equal(t, int64(i), res[i].Key, "upstream order is kept")
			}
			assert.Len(t, store.puts, tt.batches)
			assert.Equal(t, 0, store.Len(), "batches are deleted")

			// first call is the probe
			require.NotEmpty(t, src.calls)
			assert.Equal(t, call{1, 0}, src.calls[0])
		})
	}
}

func TestAggregateOffsets(t *testing.T) {
	src := &fakeSearcher{count: 75}
	eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())

	_, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.NoError(t, err)

	calls := src.pageCalls()
	require.Len(t, calls, 8)
	for i, c := range calls {
		assert.Equal(t, 10, c.limit)
		assert.Equal(t, i*10, c.offset)
	}
}

func TestAggregateBoundedBatches(t *testing.T) {
	src := &fakeSearcher{count: 200}
	store := newSpy()
	eng := aggregate.New(testConfig(), src, store)

	res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.NoError(t, err)
	assert.Len(t, res, 200)
	// 20 pages, 3 pages per batch
	assert.Len(t, store.puts, 7)
	runID := strings.SplitN(store.puts[0], "/", 2)[0]
	for i, k := range store.puts {
		assert.True(t, scratch.IsRunKey(k, runID))
		assert.Equal(t, scratch.BatchKey(runID, i), k, "batches are saved in order")
	}
}

func TestAggregateEmptyPageStops(t *testing.T) {
	src := &fakeSearcher{count: 100, reported: 1000, emptyFrom: 40}
	store := newSpy()
	eng := aggregate.New(testConfig(), src, store)

	res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.NoError(t, err)
	assert.Len(t, res, 40)
	assert.Len(t, src.pageCalls(), 5, "four full pages and one empty page")
	assert.Equal(t, 0, store.Len())
}

func TestAggregateOverreportedCount(t *testing.T) {
	// upstream reports more than it has, pages past the end are empty
	src := &fakeSearcher{count: 25, reported: 300}
	eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())

	res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.NoError(t, err)
	assert.Len(t, res, 25)
	assert.Len(t, src.pageCalls(), 4)
}

func TestAggregateRetry(t *testing.T) {
	src := &fakeSearcher{count: 5, fails: map[int]int{0: 2}}
	eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())

	res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.NoError(t, err)
	assert.Len(t, res, 5)
	assert.Equal(t, 3, src.callsAt(0))
}

func TestAggregateExhaustion(t *testing.T) {
	src := &fakeSearcher{count: 95, fails: map[int]int{70: -1}}
	store := newSpy()
	eng := aggregate.New(testConfig(), src, store)

	res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, errcode.UpstreamUnavailableError, errcode.CodeOf(err))
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.ErrorIs(t, gnErr.Err, errDown)
	assert.LessOrEqual(t, src.callsAt(70), 3)
	assert.Equal(t, 3, src.callsAt(70))
	assert.Len(t, store.puts, 2, "two batches were saved before the failure")
	assert.Equal(t, 0, store.Len(), "saved batches are removed")
	for _, c := range src.pageCalls() {
		assert.LessOrEqual(t, c.offset, 70, "no pages after the failed one")
	}
}

// probeFailer fails every probe request.
type probeFailer struct {
	calls int
}

func (p *probeFailer) Search(
	context.Context, occ.SearchQuery, int, int,
) (occ.Page, error) {
	p.calls++
	return occ.Page{}, errDown
}

func TestAggregateProbeFailure(t *testing.T) {
	src := &probeFailer{}
	eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())

	_, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.Error(t, err)
	assert.Equal(t, errcode.UpstreamUnavailableError, errcode.CodeOf(err))
	assert.Equal(t, 3, src.calls)
}

func TestAggregateInvalidQuery(t *testing.T) {
	tests := []struct {
		name     string
		geometry string
	}{
		{"empty", ""},
		{"open ring", "POLYGON((0 0, 1 0, 1 1, 0 1))"},
		{"garbage", "circle around here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSearcher{count: 10}
			eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())
			_, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: tt.geometry})
			require.Error(t, err)
			assert.Equal(t, errcode.InvalidQueryError, errcode.CodeOf(err))
			assert.Empty(t, src.calls, "invalid queries are not sent")
		})
	}
}

func TestAggregateKingdomDefault(t *testing.T) {
	src := &fakeSearcher{count: 1}
	eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())

	_, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
	require.NoError(t, err)
	assert.Equal(t, occ.PlantaeKey, src.queries[0].KingdomKey)

	src = &fakeSearcher{count: 1}
	eng = aggregate.New(testConfig(), src, ioscratch.NewMemory())
	_, err = eng.Aggregate(context.Background(),
		occ.SearchQuery{Geometry: square, TaxonKeys: []int{2684241}})
	require.NoError(t, err)
	assert.Equal(t, 0, src.queries[0].KingdomKey)
}

func TestAggregateCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSearcher{count: 100}
	src.onCall = func(offset int) {
		if offset == 40 {
			cancel()
		}
	}
	store := newSpy()
	eng := aggregate.New(testConfig(), src, store)

	res, err := eng.Aggregate(ctx, occ.SearchQuery{Geometry: square})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	// page at offset 40 completes, nothing is requested after it
	assert.Len(t, src.pageCalls(), 5)
	assert.NotEmpty(t, store.puts)
	assert.Equal(t, 0, store.Len())
}

func TestAggregateProgress(t *testing.T) {
	src := &fakeSearcher{count: 45}
	eng := aggregate.New(testConfig(), src, ioscratch.NewMemory())

	var done []int
	var total int
	_, err := eng.Run(context.Background(), occ.SearchQuery{Geometry: square},
		func(d, tot int) {
			done = append(done, d)
			total = tot
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, done)
	assert.Equal(t, 5, total)
}

func TestAggregateConcurrentRuns(t *testing.T) {
	store := newSpy()
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := &fakeSearcher{count: 50 + i*10}
			eng := aggregate.New(testConfig(), src, store)
			res, err := eng.Aggregate(context.Background(), occ.SearchQuery{Geometry: square})
			assert.NoError(t, err)
			assert.Len(t, res, 50+i*10)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, store.Len())
}

func TestDefaultConfig(t *testing.T) {
	cfg := aggregate.DefaultConfig()
	assert.Equal(t, 300, cfg.PageSize)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	eng := aggregate.New(aggregate.Config{}, &fakeSearcher{}, ioscratch.NewMemory())
	assert.Equal(t, 300, eng.Config().PageSize)
	assert.Equal(t, 20, eng.Config().BatchSize)
}
