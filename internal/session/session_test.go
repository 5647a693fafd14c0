package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/service"
	"github.com/Veraticus/eshop-analytics/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineStore fails every write the way an unreachable store would.
type offlineStore struct {
	*testutil.TestDB
	writes int
}

func (o *offlineStore) fail(op string) error {
	o.writes++
	return &common.ConnectivityError{Op: op, Err: errors.New("database is locked")}
}

func (o *offlineStore) ReplaceSales(context.Context, model.Collection) error {
	return o.fail("replace sales")
}

func (o *offlineStore) AppendSales(context.Context, model.Collection) error {
	return o.fail("append sales")
}

func (o *offlineStore) UpdateSale(context.Context, model.SaleRecord) error {
	return o.fail("update sale")
}

func (o *offlineStore) DeleteSale(context.Context, string) error {
	return o.fail("delete sale")
}

func (o *offlineStore) LoadSales(ctx context.Context) (model.Collection, error) {
	return o.Storage.LoadSales(ctx)
}

func (o *offlineStore) CountSales(ctx context.Context) (int, error) {
	return o.Storage.CountSales(ctx)
}

func (o *offlineStore) Migrate(ctx context.Context) error { return o.Storage.Migrate(ctx) }

func (o *offlineStore) Close() error { return nil }

func rawSample() pipeline.RawBatch {
	columns := []string{"customerId", "customerName", "city", "item", "date", "quantity", "unitPrice", "totalPrice"}
	var rows []pipeline.Row
	for _, r := range testutil.SampleSales() {
		rows = append(rows, pipeline.Row{
			"customerId":   r.CustomerID,
			"customerName": r.CustomerName,
			"city":         r.City,
			"item":         r.Item,
			"date":         r.Date,
			"quantity":     r.Quantity,
			"unitPrice":    r.UnitPrice.String(),
			"totalPrice":   "0",
		})
	}
	return pipeline.RawBatch{Columns: columns, Rows: rows}
}

func TestSession_ImportMirrorsToStore(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	s := New(db.Storage, nil)
	ctx := context.Background()

	res, err := s.Import(ctx, rawSample(), pipeline.MergeAppend, pipeline.IngestOptions{})
	require.NoError(t, err)
	require.NoError(t, res.Warning)

	assert.Equal(t, 6, res.Batch.Accepted)
	assert.Equal(t, "4940", res.Views.Metrics.TotalRevenue.String())
	assert.Equal(t, "Ana", res.Views.Metrics.TopCustomerName)

	stored := db.MustLoad()
	assert.Len(t, stored, 6)
	assert.Equal(t, s.Records()[0].ID, stored[0].ID)

	res, err = s.Import(ctx, rawSample(), pipeline.MergeAppend, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Views.Metrics.TotalRecords)
	assert.Len(t, db.MustLoad(), 12)

	res, err = s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Views.Metrics.TotalRecords)
	assert.Len(t, db.MustLoad(), 6)
}

func TestSession_SchemaErrorLeavesStateUntouched(t *testing.T) {
	s := New(nil, nil)
	ctx := context.Background()
	_, err := s.Import(ctx, rawSample(), pipeline.MergeAppend, pipeline.IngestOptions{})
	require.NoError(t, err)

	bad := pipeline.RawBatch{Columns: []string{"customerId"}, Rows: []pipeline.Row{{"customerId": 1}}}
	_, err = s.Import(ctx, bad, pipeline.MergeReplace, pipeline.IngestOptions{})

	assert.ErrorIs(t, err, common.ErrSchema)
	assert.Len(t, s.Records(), 6)
}

func TestSession_LoadRestoresStoredState(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.SampleSales())
	s := New(db.Storage, nil)

	require.NoError(t, s.Load(context.Background()))

	v := s.Views()
	assert.Equal(t, 4, v.Metrics.TotalCustomers)
	assert.Equal(t, "São Paulo", v.Metrics.TopCity)
	rec, ok := s.Record("r4")
	require.True(t, ok)
	assert.Equal(t, "Carla", rec.CustomerName)
}

func TestSession_EditDeleteInsert(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.SampleSales())
	s := New(db.Storage, nil)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	values := testutil.SampleSales()[4].Values()
	values.Quantity = 10
	edited, res, err := s.Edit(ctx, "r5", values)
	require.NoError(t, err)
	require.NoError(t, res.Warning)
	assert.Equal(t, "1200", edited.TotalPrice.String())
	assert.Equal(t, "Davi", res.Views.Customers[1].Name, "Davi moves up after the edit")

	res, err = s.Delete(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Views.Metrics.TotalRecords)

	inserted, res, err := s.Insert(ctx, pipeline.Row{
		"customerId": "9", "customerName": "Eva", "city": "Goiânia", "item": "Webcam",
		"quantity": "1", "unitPrice": "250",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Views.Metrics.TotalRecords)

	stored := db.MustLoad()
	require.Len(t, stored, 6)
	assert.Equal(t, "r2", stored[0].ID)
	assert.Equal(t, inserted.ID, stored[5].ID)
	assert.True(t, stored[3].TotalPrice.Equal(decimal.NewFromInt(1200)))

	_, err = s.Delete(ctx, "r1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSession_StoreFailureIsAWarning(t *testing.T) {
	store := &offlineStore{TestDB: testutil.SetupTestDB(t, nil)}
	s := New(store, nil)
	ctx := context.Background()

	res, err := s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.True(t, common.IsWarning(res.Warning))
	assert.Len(t, s.Records(), 6, "in-memory state is kept")

	delRes, err := s.Delete(ctx, s.Records()[0].ID)
	require.NoError(t, err)
	var connErr *common.ConnectivityError
	require.ErrorAs(t, delRes.Warning, &connErr)
	assert.Equal(t, "delete sale", connErr.Op)
	assert.Equal(t, 2, store.writes)
	assert.Len(t, s.Records(), 5)
}

func TestSession_Filtered(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.SampleSales())
	s := New(db.Storage, nil)
	require.NoError(t, s.Load(context.Background()))

	v := s.Filtered(pipeline.Filter{Cities: []string{"Recife"}})
	assert.Equal(t, 2, v.Metrics.TotalCustomers)
	assert.Equal(t, "1100", v.Metrics.TotalRevenue.String())

	assert.Equal(t, s.Views(), s.Filtered(pipeline.Filter{}))
}

func TestSession_RecordsIsACopy(t *testing.T) {
	s := New(nil, nil)
	_, err := s.Import(context.Background(), rawSample(), pipeline.MergeAppend, pipeline.IngestOptions{})
	require.NoError(t, err)

	records := s.Records()
	records[0].City = "Changed"
	assert.NotEqual(t, "Changed", s.Records()[0].City)
}

// snapshottingStore counts the snapshots the session asks for.
type snapshottingStore struct {
	service.SalesStore
	err   error
	calls int
}

func (s *snapshottingStore) AutoSnapshot(_ context.Context, reason string) (service.SnapshotInfo, error) {
	s.calls++
	if s.err != nil {
		return service.SnapshotInfo{}, s.err
	}
	return service.SnapshotInfo{ID: "auto-" + strings.ReplaceAll(reason, " ", "-"), Sales: 6}, nil
}

func TestSession_ReplaceImportSnapshotsFirst(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	store := &snapshottingStore{SalesStore: db.Storage}
	s := New(store, nil)
	ctx := context.Background()

	res, err := s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.Zero(t, store.calls, "an empty working set has nothing to lose")
	assert.Empty(t, res.Snapshot.ID)

	_, err = s.Import(ctx, rawSample(), pipeline.MergeAppend, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.Zero(t, store.calls, "append keeps every record")

	res, err = s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "auto-replace-import", res.Snapshot.ID)
	assert.NoError(t, res.SnapshotErr)

	s.SetAutoSnapshot(false)
	_, err = s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestSession_FailedSnapshotDoesNotBlockReplace(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.SampleSales())
	store := &snapshottingStore{SalesStore: db.Storage, err: errors.New("disk full")}
	s := New(store, nil)
	require.NoError(t, s.Load(ctx))

	res, err := s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	assert.ErrorContains(t, res.SnapshotErr, "disk full")
	assert.Empty(t, res.Snapshot.ID)
	assert.Len(t, s.Records(), 6)
	assert.Len(t, db.MustLoad(), 6)
}

func TestSession_ReplaceImportSnapshotsFileStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupFileDB(t, testutil.SampleSales())
	s := New(db.Storage, nil)
	require.NoError(t, s.Load(ctx))

	res, err := s.Import(ctx, rawSample(), pipeline.MergeReplace, pipeline.IngestOptions{})
	require.NoError(t, err)
	require.NoError(t, res.SnapshotErr)
	assert.Contains(t, res.Snapshot.ID, "auto-replace-import-")
	assert.Equal(t, 6, res.Snapshot.Sales)

	m, err := db.Storage.Snapshots()
	require.NoError(t, err)
	snaps, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].IsAuto)
}
