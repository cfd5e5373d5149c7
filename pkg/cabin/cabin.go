package cabin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cognicore/cabin/pkg/cabin/config"
	"github.com/cognicore/cabin/pkg/cabin/filter"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/observe"
	"github.com/cognicore/cabin/pkg/cabin/record"
	"github.com/cognicore/cabin/pkg/cabin/store"
	"github.com/cognicore/cabin/pkg/cabin/store/memstore"
	"github.com/cognicore/cabin/pkg/cabin/store/sqlite"
)

// Engine interprets utterances against a setting catalog and journals every
// decision
type Engine struct {
	filter  *filter.Filter
	store   store.Store
	records *record.Builder
	now     func() time.Time
	logger  *slog.Logger
	metrics *observe.Metrics
}

// Options configures an Engine
type Options struct {
	Filter *filter.Filter
	Store  store.Store // defaults to an in-memory store
	Now    func() time.Time
	Logger *slog.Logger

	// Metrics defaults to instruments on the global meter provider.
	Metrics *observe.Metrics
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Filter == nil {
		return nil, fmt.Errorf("engine needs a filter: %w", internalerr.ErrInvalidConfig)
	}

	e := &Engine{
		filter:  opts.Filter,
		store:   opts.Store,
		records: record.New(),
		now:     opts.Now,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if e.store == nil {
		e.store = memstore.New()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.metrics == nil {
		m, err := observe.NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		e.metrics = m
	}
	return e, nil
}

// Open builds an Engine from cfg. The catalog and tables come from the files
// cfg names, or from the store when cfg names no settings file.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	var comp *config.Components
	if cfg.Catalog.Settings != "" {
		comp, err = cfg.Loader().Load()
	} else {
		comp, err = LoadComponents(ctx, st)
	}
	if err != nil {
		st.Close()
		return nil, err
	}

	f, err := filter.New(cfg.FilterOptions(comp, logger))
	if err != nil {
		st.Close()
		return nil, err
	}

	return New(Options{Filter: f, Store: st, Logger: logger})
}

// OpenStore opens the store cfg describes.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memstore.New(), nil
	case "sqlite":
		st, err := sqlite.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.Path, errors.Join(internalerr.ErrStoreUnavailable, err))
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q: %w", cfg.Driver, internalerr.ErrInvalidConfig)
	}
}

// LoadComponents reads the catalog and normalization tables from st. A
// missing table is empty; a missing catalog is an error.
func LoadComponents(ctx context.Context, st store.Store) (*config.Components, error) {
	cat, err := st.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog from store: %w", err)
	}
	comp := &config.Components{Catalog: cat}

	tables := []struct {
		name string
		dst  **normalize.Normalizer
	}{
		{store.TableAmountPercentage, &comp.Amounts},
		{store.TableAmountType, &comp.Types},
		{store.TableAmountUnit, &comp.Units},
		{store.TableIndex, &comp.Indexes},
	}
	for _, t := range tables {
		entries, err := st.LoadTable(ctx, t.name)
		if err != nil && !errors.Is(err, internalerr.ErrNotFound) {
			return nil, fmt.Errorf("load %s table from store: %w", t.name, err)
		}
		*t.dst = normalize.New(entries)
	}
	return comp, nil
}

// Close cleanly shuts down the Engine
func (e *Engine) Close() error {
	return e.store.Close()
}

// Filter returns the engine's filter.
func (e *Engine) Filter() *filter.Filter {
	return e.filter
}

// Process applies u to state and journals the outcome. The state is
// updated even when journaling fails.
func (e *Engine) Process(ctx context.Context, state *filter.State, u filter.Utterance) (store.Record, error) {
	if state == nil {
		return store.Record{}, fmt.Errorf("process without state: %w", internalerr.ErrInvalidInput)
	}

	start := time.Now()
	e.filter.Filter(state, u)
	elapsed := time.Since(start)

	r := e.records.Build(state, e.now())
	e.recordMetrics(ctx, r, elapsed)
	if err := e.store.AppendRecord(ctx, r); err != nil {
		e.metrics.RecordJournalError(ctx)
		return r, fmt.Errorf("journal record %s: %w", r.ID, err)
	}

	e.logger.Info("processed utterance",
		"record_id", r.ID,
		"intent", r.Intent,
		"stage", r.Stage,
		"changes", len(r.Changes),
		"pending", len(record.Pending(r)),
		"statuses", len(r.Statuses))
	return r, nil
}

func (e *Engine) recordMetrics(ctx context.Context, r store.Record, elapsed time.Duration) {
	e.metrics.RecordUtterance(ctx, r.Intent, r.Stage, elapsed)
	for _, c := range r.Changes {
		e.metrics.RecordChange(ctx, c.OperationStatus.String())
	}
	for _, st := range r.Statuses {
		e.metrics.RecordStatus(ctx, st.OperationStatus.String())
	}
}

// History returns up to n journaled records, newest first. n <= 0 returns all.
func (e *Engine) History(ctx context.Context, n int) ([]store.Record, error) {
	return e.store.RecentRecords(ctx, n)
}
