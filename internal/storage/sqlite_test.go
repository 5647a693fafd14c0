package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testSale(n int, date time.Time) model.SaleRecord {
	r := model.SaleRecord{
		ID:           fmt.Sprintf("sale-%02d", n),
		CustomerID:   n,
		CustomerName: fmt.Sprintf("Cliente %d", n),
		City:         "Recife",
		Item:         "Mouse",
		Date:         date,
		Quantity:     n,
		UnitPrice:    decimal.RequireFromString("19.90"),
	}
	r.Recompute()
	return r
}

func testSales(count int) model.Collection {
	out := make(model.Collection, 0, count)
	for i := 1; i <= count; i++ {
		date := time.Time{}
		if i%2 == 1 {
			date = time.Date(2024, time.Month(i%12+1), i, 0, 0, 0, 0, time.UTC)
		}
		out = append(out, testSale(i, date))
	}
	return out
}

// assertSameSales compares by value since decimals may come back with a
// different exponent.
func assertSameSales(t *testing.T, want, got model.Collection) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID, "index %d", i)
		assert.Equal(t, w.CustomerID, g.CustomerID)
		assert.Equal(t, w.CustomerName, g.CustomerName)
		assert.Equal(t, w.City, g.City)
		assert.Equal(t, w.Item, g.Item)
		assert.Equal(t, w.Quantity, g.Quantity)
		assert.True(t, w.UnitPrice.Equal(g.UnitPrice), "unit price %s != %s", g.UnitPrice, w.UnitPrice)
		assert.True(t, w.TotalPrice.Equal(g.TotalPrice), "total %s != %s", g.TotalPrice, w.TotalPrice)
		assert.True(t, w.Date.Equal(g.Date), "date %v != %v", g.Date, w.Date)
	}
}

func TestNewSQLiteStorage_RejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	n, err := store.CountSales(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	v, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, v)

	var indexCount int
	err = store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name IN ('idx_sales_seq', 'idx_sales_city', 'idx_sales_date')
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 3, indexCount)
}

func TestSQLiteStorage_ReplaceAndLoad(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first := testSales(5)
	require.NoError(t, store.ReplaceSales(ctx, first))

	got, err := store.LoadSales(ctx)
	require.NoError(t, err)
	assertSameSales(t, first, got)
	assert.False(t, got[1].HasDate(), "unknown dates stay unknown")

	second := testSales(2)
	require.NoError(t, store.ReplaceSales(ctx, second))
	got, err = store.LoadSales(ctx)
	require.NoError(t, err)
	assertSameSales(t, second, got)
}

func TestSQLiteStorage_ReplaceWithEmptyClears(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSales(ctx, testSales(3)))
	require.NoError(t, store.ReplaceSales(ctx, nil))

	got, err := store.LoadSales(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSQLiteStorage_AppendKeepsOrder(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	all := testSales(8)
	require.NoError(t, store.AppendSales(ctx, all[:5]))
	require.NoError(t, store.AppendSales(ctx, all[5:]))
	require.NoError(t, store.AppendSales(ctx, nil))

	got, err := store.LoadSales(ctx)
	require.NoError(t, err)
	assertSameSales(t, all, got)

	n, err := store.CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestSQLiteStorage_AppendDuplicateIDIsNotRetried(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sales := testSales(2)
	require.NoError(t, store.AppendSales(ctx, sales))

	err := store.AppendSales(ctx, sales[:1])
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrConnectivity)

	n, err := store.CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "failed append leaves the table untouched")
}

func TestSQLiteStorage_RejectsInvalidBatch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sales := testSales(2)
	sales[1].ID = sales[0].ID
	assert.ErrorIs(t, store.ReplaceSales(ctx, sales), ErrDuplicateID)

	bad := testSales(1)
	bad[0].ID = ""
	assert.ErrorIs(t, store.AppendSales(ctx, bad), ErrInvalidRecord)
}

func TestSQLiteStorage_UpdateSale(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sales := testSales(3)
	require.NoError(t, store.ReplaceSales(ctx, sales))

	edited := sales[1]
	edited.City = "Manaus"
	edited.Quantity = 7
	edited.Date = time.Date(2024, 8, 9, 0, 0, 0, 0, time.UTC)
	edited.Recompute()
	require.NoError(t, store.UpdateSale(ctx, edited))

	got, err := store.LoadSales(ctx)
	require.NoError(t, err)
	want := sales.Clone()
	want[1] = edited
	assertSameSales(t, want, got)
}

func TestSQLiteStorage_UpdateMissingIsNotFound(t *testing.T) {
	store := createTestStorage(t)

	err := store.UpdateSale(context.Background(), testSale(1, time.Time{}))

	var nf *common.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "sale-01", nf.ID)
	assert.NotErrorIs(t, err, common.ErrConnectivity)
}

func TestSQLiteStorage_DeleteSale(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sales := testSales(4)
	require.NoError(t, store.ReplaceSales(ctx, sales))
	require.NoError(t, store.DeleteSale(ctx, sales[1].ID))

	got, err := store.LoadSales(ctx)
	require.NoError(t, err)
	assertSameSales(t, model.Collection{sales[0], sales[2], sales[3]}, got)

	assert.ErrorIs(t, store.DeleteSale(ctx, sales[1].ID), common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteSale(ctx, ""), ErrEmptyString)
}

func TestSQLiteStorage_LoadRecomputesStoredTotal(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sale := testSale(2, time.Time{})
	require.NoError(t, store.ReplaceSales(ctx, model.Collection{sale}))

	_, err := store.db.ExecContext(ctx, `UPDATE sales SET total_price = '99999' WHERE id = ?`, sale.ID)
	require.NoError(t, err)

	got, err := store.LoadSales(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, decimal.RequireFromString("39.8").Equal(got[0].TotalPrice), "got %s", got[0].TotalPrice)
}
