// Package service defines the interfaces the session and the outer surfaces
// depend on.
package service

import (
	"context"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
)

// SalesStore is the persistence collaborator: a plain record sink.
// Failures after retries surface as *common.ConnectivityError.
type SalesStore interface {
	LoadSales(ctx context.Context) (model.Collection, error)
	ReplaceSales(ctx context.Context, records model.Collection) error
	AppendSales(ctx context.Context, records model.Collection) error
	UpdateSale(ctx context.Context, record model.SaleRecord) error
	DeleteSale(ctx context.Context, id string) error
	CountSales(ctx context.Context) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// SnapshotInfo identifies a saved copy of the store.
type SnapshotInfo struct {
	ID    string
	Sales int
}

// Snapshotter is implemented by stores that can save a restorable copy of
// themselves before a destructive change. A zero SnapshotInfo with a nil
// error means there was nothing to copy.
type Snapshotter interface {
	AutoSnapshot(ctx context.Context, reason string) (SnapshotInfo, error)
}

// ReportWriter publishes the derived views somewhere outside the process.
type ReportWriter interface {
	Write(ctx context.Context, views pipeline.Views, records model.Collection) error
}
