// Package snapshot keeps the current catalog and dependency graph. A snapshot
// is never modified; a reload builds a new one and swaps it in atomically so
// traversals already running keep the graph they started with.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/graph"
)

// Snapshot is one immutable build of the catalog and its graph.
type Snapshot struct {
	Catalog     *catalog.Catalog
	Graph       *graph.Graph
	Eligibility *graph.Eligibility
	Version     uint64
	LoadedAt    time.Time
}

// Build indexes a catalog into a snapshot.
func Build(cat *catalog.Catalog, options graph.EligibilityOptions, opts ...graph.Option) (*Snapshot, error) {
	g, err := graph.New(cat, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	return &Snapshot{
		Catalog:     cat,
		Graph:       g,
		Eligibility: graph.NewEligibility(g, options),
		LoadedAt:    time.Now(),
	}, nil
}

// Holder owns the current snapshot and rebuilds it from a catalog source.
type Holder struct {
	source       catalog.Source
	options      graph.EligibilityOptions
	graphOptions []graph.Option
	logger       *slog.Logger

	current atomic.Pointer[Snapshot]

	reloadMu  sync.Mutex
	version   uint64
	listeners []func(*Snapshot)
}

func NewHolder(source catalog.Source, options graph.EligibilityOptions, logger *slog.Logger, graphOptions ...graph.Option) *Holder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Holder{
		source:       source,
		options:      options,
		graphOptions: graphOptions,
		logger:       logger,
	}
}

// Current returns the latest snapshot, or nil before the first Reload.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Get looks a course up in the current snapshot, so callers holding the
// Holder always see the latest catalog.
func (h *Holder) Get(code string) (*catalog.Course, bool) {
	current := h.Current()
	if current == nil {
		return nil, false
	}
	return current.Catalog.Get(code)
}

// OnReload registers fn to run after every successful reload.
func (h *Holder) OnReload(fn func(*Snapshot)) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload reads the source and swaps in a new snapshot. On failure the
// current snapshot stays in place.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	cat, err := catalog.Load(ctx, h.source, h.logger)
	if err != nil {
		return nil, err
	}
	next, err := Build(cat, h.options, h.graphOptions...)
	if err != nil {
		return nil, err
	}
	h.version++
	next.Version = h.version

	if cycles := next.Graph.DetectCycles(); len(cycles) > 0 {
		h.logger.Warn("Course catalog has requisite cycles", slog.Int("cycles", len(cycles)))
	}
	h.current.Store(next)
	h.logger.Info("Swapped catalog snapshot",
		slog.Uint64("version", next.Version),
		slog.Int("courses", cat.Len()))

	for _, fn := range h.listeners {
		fn(next)
	}
	return next, nil
}
