package dataset_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/storm-track-playback/internal/adapter/dataset"
	"github.com/couchcryptid/storm-track-playback/internal/domain"
	"github.com/couchcryptid/storm-track-playback/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `AL062004,FRANCES,     36,
20040825, 0000,  , TD, 11.0N,  35.5W,  25, 1009,
20040825, 1200,  , TS, 11.3N,  37.0W,  45, 1000,
20040826, 0000,  , HU, 11.8N,  39.1W,  75,  987,
AL092004,IVAN,     40,
20040902, 1800,  , TD,  9.7N,  27.6W,  25, 1009,
20040903, 0600,  , TS,  9.3N,  30.3W,  40, 1005,
AL012005,ARLENE,     20,
20050608, 1800,  , TD, 17.0N,  84.0W,  25, 1005,
20050609, 1200,  , TS, 19.0N,  83.5W,  40, 1000,
`

type countingFetcher struct {
	mu    sync.Mutex
	data  []byte
	err   error
	calls int
}

func (f *countingFetcher) Fetch(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *countingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSource(f dataset.Fetcher) (*dataset.Source, *observability.Metrics) {
	return newSourceSize(f, 4)
}

func newSourceSize(f dataset.Fetcher, cacheSize int) (*dataset.Source, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return dataset.NewSource(f, cacheSize, discardLogger(), m), m
}

func cacheCounts(m *observability.Metrics) (hits, misses float64) {
	return testutil.ToFloat64(m.ParseCache.WithLabelValues("hit")),
		testutil.ToFloat64(m.ParseCache.WithLabelValues("miss"))
}

func TestSource_LoadFiltersByYear(t *testing.T) {
	src, _ := newSource(&countingFetcher{data: []byte(sampleCSV)})

	got, err := src.Load(context.Background(), "2004")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "FRANCES_AL062004", got[0].ID)
	assert.Equal(t, "IVAN_AL092004", got[1].ID)

	all, err := src.Load(context.Background(), domain.AllYears)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSource_FetchesOnce(t *testing.T) {
	f := &countingFetcher{data: []byte(sampleCSV)}
	src, m := newSource(f)

	for _, y := range []domain.YearFilter{"2004", "2005", "2004", domain.AllYears} {
		_, err := src.Load(context.Background(), y)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.callCount())
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ParseCache.WithLabelValues("hit")), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(m.ParseCache.WithLabelValues("miss")), 1e-9)
}

func TestSource_CachedResultIsSameSlice(t *testing.T) {
	src, _ := newSource(&countingFetcher{data: []byte(sampleCSV)})

	first, err := src.Load(context.Background(), "2005")
	require.NoError(t, err)
	second, err := src.Load(context.Background(), "2005")
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Same(t, &first[0], &second[0])
}

func TestSource_CacheEvictsLeastRecentlyUsed(t *testing.T) {
	src, m := newSourceSize(&countingFetcher{data: []byte(sampleCSV)}, 2)
	ctx := context.Background()

	for _, y := range []domain.YearFilter{"2004", "2005", "2004", domain.AllYears} {
		_, err := src.Load(ctx, y)
		require.NoError(t, err)
	}
	// 2005 was least recently used when all was added.
	hits, misses := cacheCounts(m)
	assert.InDelta(t, 1.0, hits, 1e-9)
	assert.InDelta(t, 3.0, misses, 1e-9)

	_, err := src.Load(ctx, "2004")
	require.NoError(t, err)
	_, err = src.Load(ctx, "2005")
	require.NoError(t, err)

	hits, misses = cacheCounts(m)
	assert.InDelta(t, 2.0, hits, 1e-9, "2004 stayed cached")
	assert.InDelta(t, 4.0, misses, 1e-9, "2005 was evicted")
}

func TestSource_NonPositiveCacheSizeStillCaches(t *testing.T) {
	src, m := newSourceSize(&countingFetcher{data: []byte(sampleCSV)}, 0)

	for range 2 {
		_, err := src.Load(context.Background(), "2004")
		require.NoError(t, err)
	}

	hits, misses := cacheCounts(m)
	assert.InDelta(t, 1.0, hits, 1e-9)
	assert.InDelta(t, 1.0, misses, 1e-9)
}

func TestSource_NoDataForYear(t *testing.T) {
	src, _ := newSource(&countingFetcher{data: []byte(sampleCSV)})

	_, err := src.Load(context.Background(), "1999")

	require.ErrorIs(t, err, domain.ErrNoData)
	assert.NotErrorIs(t, err, domain.ErrDatasetUnavailable)
	var perr *domain.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.YearFilter("1999"), perr.Filter)
}

func TestSource_FetchFailureIsUnavailableAndRetried(t *testing.T) {
	f := &countingFetcher{err: errors.New("connection refused")}
	src, _ := newSource(f)

	_, err := src.Load(context.Background(), "2004")
	require.ErrorIs(t, err, domain.ErrDatasetUnavailable)
	assert.NotErrorIs(t, err, domain.ErrNoData)

	f.mu.Lock()
	f.err = nil
	f.data = []byte(sampleCSV)
	f.mu.Unlock()

	got, err := src.Load(context.Background(), "2004")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, f.callCount())
}

func TestSource_ParseRowMetrics(t *testing.T) {
	src, m := newSource(&countingFetcher{data: []byte(sampleCSV + "garbage line\n")})

	_, err := src.Load(context.Background(), domain.AllYears)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, testutil.ToFloat64(m.ParseRows.WithLabelValues("header")), 1e-9)
	assert.InDelta(t, 7.0, testutil.ToFloat64(m.ParseRows.WithLabelValues("data")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ParseRows.WithLabelValues("malformed")), 1e-9)
}

func TestSource_Years(t *testing.T) {
	src, _ := newSource(&countingFetcher{data: []byte(sampleCSV)})

	years, err := src.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2004", "2005"}, years)
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hurricane.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	data, err := dataset.FileFetcher{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))

	_, err = dataset.FileFetcher{Path: filepath.Join(t.TempDir(), "missing.csv")}.Fetch(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/hurricane.csv", r.URL.Path)
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	f := dataset.NewHTTPFetcher(srv.URL+"/hurricane.csv", 5*time.Second, discardLogger())
	data, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))
}

func TestHTTPFetcher_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	f := dataset.NewHTTPFetcher(srv.URL, 5*time.Second, discardLogger())
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	f := dataset.NewHTTPFetcher(srv.URL, 50*time.Millisecond, discardLogger())
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
}

func TestSource_OverHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	src, _ := newSource(dataset.NewHTTPFetcher(srv.URL, 5*time.Second, discardLogger()))
	_, err := src.Load(context.Background(), "2004")
	require.NoError(t, err)
	_, err = src.Load(context.Background(), "2005")
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
}
