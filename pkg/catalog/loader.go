package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"cartflow/pkg/logger"
	"cartflow/pkg/otel"
)

// Status is the load state of the catalog.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = StatusLoading
	case "ready":
		*s = StatusReady
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown catalog status %q", b)
	}
	return nil
}

// Snapshot is the outcome of the latest fetch. Index is set only when Status
// is StatusReady; Err only when it is StatusFailed.
type Snapshot struct {
	Status    Status
	Index     *Index
	Err       error
	FetchedAt time.Time
}

// Loader fetches the catalog and rebuilds the index on every fetch.
type Loader struct {
	fetcher Fetcher
	log     *logger.Logger
	now     func() time.Time

	group singleflight.Group

	mu   sync.RWMutex
	snap Snapshot
}

// NewLoader creates a loader in the loading state.
func NewLoader(fetcher Fetcher, log *logger.Logger) *Loader {
	return &Loader{fetcher: fetcher, log: log, now: time.Now}
}

// Snapshot returns the latest state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Refresh fetches the catalog and replaces the snapshot. Concurrent callers
// share one fetch.
func (l *Loader) Refresh(ctx context.Context) Snapshot {
	v, _, _ := l.group.Do("catalog", func() (any, error) {
		return l.fetch(ctx), nil
	})
	return v.(Snapshot)
}

func (l *Loader) fetch(ctx context.Context) Snapshot {
	ctx, span := otel.AddSpan(ctx, "catalog.fetch")
	defer span.End()

	items, err := l.fetcher.Fetch(ctx)
	var snap Snapshot
	if err != nil {
		span.RecordError(err)
		l.log.Error(ctx, "fetch catalog", "error", err)
		snap = Snapshot{Status: StatusFailed, Err: err, FetchedAt: l.now()}
	} else {
		idx := Build(items)
		span.SetAttributes(attribute.Int("catalog.items", idx.Len()))
		l.log.Info(ctx, "catalog loaded", "items", idx.Len(), "outlets", idx.Outlets())
		snap = Snapshot{Status: StatusReady, Index: idx, FetchedAt: l.now()}
	}

	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()
	return snap
}

// Run refreshes immediately and then every interval until ctx is done.
// A non-positive interval refreshes once.
func (l *Loader) Run(ctx context.Context, interval time.Duration) {
	l.Refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Refresh(ctx)
		}
	}
}
