// Package session owns the canonical working set. Every mutation runs the
// pipeline to completion, swaps the collection and its views in one step,
// and then mirrors the change into the store on a best-effort basis.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/service"
)

// Result is the state after a mutation. Warning is a
// *common.ConnectivityError when the store could not be updated; the
// in-memory state is kept regardless.
type Result struct {
	Warning error
	Views   pipeline.Views
}

// ImportResult adds the ingest counts to Result. A replace import that
// discards a non-empty working set first snapshots the store; Snapshot names
// that copy, and SnapshotErr reports why none could be taken.
type ImportResult struct {
	SnapshotErr error
	Batch       *pipeline.ValidatedBatch
	Snapshot    service.SnapshotInfo
	Result
}

// Session is safe for concurrent use.
type Session struct {
	store   service.SalesStore
	logger  *slog.Logger
	records model.Collection
	views   pipeline.Views
	mu      sync.RWMutex

	noSnapshot bool
}

// New creates an empty session. store may be nil for a purely in-memory session.
func New(store service.SalesStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:  store,
		logger: logger,
		views:  pipeline.Summarize(nil),
	}
}

// SetAutoSnapshot turns the snapshot taken before replace imports on or off.
// It is on by default.
func (s *Session) SetAutoSnapshot(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noSnapshot = !enabled
}

// Load replaces the working set with what the store holds.
func (s *Session) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	records, err := s.store.LoadSales(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(records)
	s.logger.Info("Loaded working set", "records", len(records))
	return nil
}

// Import ingests a raw batch and merges it into the working set. A schema
// error aborts the import and leaves the session untouched.
func (s *Session) Import(ctx context.Context, raw pipeline.RawBatch, mode pipeline.MergeMode, opts pipeline.IngestOptions) (*ImportResult, error) {
	batch, err := pipeline.Ingest(raw, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := &ImportResult{Batch: batch}
	if mode == pipeline.MergeReplace && len(s.records) > 0 {
		res.Snapshot, res.SnapshotErr = s.snapshotBeforeReplace(ctx)
	}

	merged := pipeline.Merge(s.records, batch, mode)
	s.swap(merged)

	s.logger.Info("Imported batch",
		"mode", mode,
		"received", batch.Received,
		"accepted", batch.Accepted,
		"rejected", batch.Rejected,
		"working_set", len(merged))

	warning := s.mirror(ctx, "import", func(store service.SalesStore) error {
		if mode == pipeline.MergeReplace {
			return store.ReplaceSales(ctx, merged)
		}
		return store.AppendSales(ctx, batch.Records)
	})

	res.Result = Result{Views: s.views, Warning: warning}
	return res, nil
}

// snapshotBeforeReplace must be called with mu held. Stores without
// snapshot support are skipped.
func (s *Session) snapshotBeforeReplace(ctx context.Context) (service.SnapshotInfo, error) {
	snapshotter, ok := s.store.(service.Snapshotter)
	if !ok || s.noSnapshot {
		return service.SnapshotInfo{}, nil
	}

	info, err := snapshotter.AutoSnapshot(ctx, "replace import")
	if err != nil {
		s.logger.Warn("Could not snapshot the store before a replace import", "error", err)
		return service.SnapshotInfo{}, fmt.Errorf("failed to snapshot before replace: %w", err)
	}
	if info.ID != "" {
		s.logger.Info("Saved snapshot before replace import", "id", info.ID, "sales", info.Sales)
	}
	return info, nil
}

// Edit overwrites the editable fields of one record.
func (s *Session) Edit(ctx context.Context, id string, values model.SaleValues) (model.SaleRecord, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := pipeline.ApplyEdit(s.records, id, values)
	if err != nil {
		return model.SaleRecord{}, Result{}, err
	}
	s.swap(updated)
	edited := updated[updated.IndexOf(id)]

	warning := s.mirror(ctx, "edit", func(store service.SalesStore) error {
		return store.UpdateSale(ctx, edited)
	})
	return edited, Result{Views: s.views, Warning: warning}, nil
}

// Delete removes one record.
func (s *Session) Delete(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := pipeline.ApplyDelete(s.records, id)
	if err != nil {
		return Result{}, err
	}
	s.swap(updated)

	warning := s.mirror(ctx, "delete", func(store service.SalesStore) error {
		return store.DeleteSale(ctx, id)
	})
	return Result{Views: s.views, Warning: warning}, nil
}

// Insert validates a loosely-typed row and appends it.
func (s *Session) Insert(ctx context.Context, row pipeline.Row) (model.SaleRecord, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, inserted, err := pipeline.ApplyInsert(s.records, row)
	if err != nil {
		return model.SaleRecord{}, Result{}, err
	}
	s.swap(updated)

	warning := s.mirror(ctx, "insert", func(store service.SalesStore) error {
		return store.AppendSales(ctx, model.Collection{inserted})
	})
	return inserted, Result{Views: s.views, Warning: warning}, nil
}

// Views returns the derived views of the whole working set.
func (s *Session) Views() pipeline.Views {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views
}

// Records returns a copy of the working set.
func (s *Session) Records() model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Clone()
}

// Record looks up one record by ID.
func (s *Session) Record(id string) (model.SaleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.records.IndexOf(id)
	if i < 0 {
		return model.SaleRecord{}, false
	}
	return s.records[i], true
}

// Filtered recomputes the views over the records matching f.
func (s *Session) Filtered(f pipeline.Filter) pipeline.Views {
	if f.IsZero() {
		return s.Views()
	}
	s.mu.RLock()
	subset := f.Apply(s.records)
	s.mu.RUnlock()
	return pipeline.Summarize(subset)
}

// swap must be called with mu held for writing.
func (s *Session) swap(records model.Collection) {
	s.records = records
	s.views = pipeline.Summarize(records)
}

// mirror pushes a change into the store. Whatever goes wrong comes back as a
// connectivity warning.
func (s *Session) mirror(ctx context.Context, op string, fn func(service.SalesStore) error) error {
	if s.store == nil {
		return nil
	}

	err := fn(s.store)
	if err == nil {
		return nil
	}
	if !common.IsWarning(err) {
		err = &common.ConnectivityError{Op: op, Err: err}
	}
	s.logger.Warn("Store update failed; keeping in-memory state", "op", op, "error", err)
	return err
}
