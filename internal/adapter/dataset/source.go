package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-track-playback/internal/domain"
	"github.com/couchcryptid/storm-track-playback/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Source fetches the dataset once and serves parsed storm lists per year.
// Parse results are kept in an LRU keyed by year filter.
type Source struct {
	fetcher Fetcher
	cache   *lru.Cache[domain.YearFilter, []domain.StormRecord]
	logger  *slog.Logger
	metrics *observability.Metrics

	mu  sync.Mutex
	raw []byte
}

// NewSource creates a Source over fetcher caching up to cacheSize parses.
// A cacheSize below one keeps a single parse.
func NewSource(fetcher Fetcher, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Source {
	// New only fails for a non-positive size.
	cache, _ := lru.New[domain.YearFilter, []domain.StormRecord](max(cacheSize, 1))
	return &Source{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Load returns the playable storms for filter in dataset order. A fetch
// failure wraps domain.ErrDatasetUnavailable; a year with no storms returns
// the parser's *domain.ParseError.
func (s *Source) Load(ctx context.Context, filter domain.YearFilter) ([]domain.StormRecord, error) {
	if storms, ok := s.cache.Get(filter); ok {
		s.metrics.ParseCache.WithLabelValues("hit").Inc()
		return storms, nil
	}
	s.metrics.ParseCache.WithLabelValues("miss").Inc()

	start := time.Now()
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)
	}

	storms, stats, err := domain.ParseTracks(bytes.NewReader(raw), filter)
	s.observeParse(stats)
	if err != nil {
		return nil, err
	}

	s.cache.Add(filter, storms)
	s.metrics.DatasetLoadDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("storms loaded",
		"year", filter,
		"storms", len(storms),
		"points", stats.Points,
		"malformed", stats.Malformed,
		"skipped", stats.SkippedCoords,
	)
	return storms, nil
}

// Years lists every season in the dataset.
func (s *Source) Years(ctx context.Context) ([]string, error) {
	storms, err := s.Load(ctx, domain.AllYears)
	if err != nil {
		return nil, err
	}
	return domain.Years(storms), nil
}

// fetch returns the raw dataset, downloading it on first use. A failed
// fetch is not remembered, so a later request can retry.
func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw != nil {
		return s.raw, nil
	}
	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.raw = raw
	return raw, nil
}

func (s *Source) observeParse(stats domain.ParseStats) {
	s.metrics.ParseRows.WithLabelValues("header").Add(float64(stats.Headers))
	s.metrics.ParseRows.WithLabelValues("data").Add(float64(stats.Points))
	s.metrics.ParseRows.WithLabelValues("malformed").Add(float64(stats.Malformed))
	s.metrics.ParseRows.WithLabelValues("skipped").Add(float64(stats.SkippedCoords + stats.Orphaned))
}
