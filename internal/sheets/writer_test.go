package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestBuildTabs(t *testing.T) {
	records := testutil.SampleSales()
	tabs := BuildTabs(pipeline.Summarize(records), records)

	titles := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		titles = append(titles, tab.Title)
	}
	assert.Equal(t, []string{TabDashboard, TabCustomers, TabRegions, TabItems, TabMonthly, TabSales}, titles)

	dashboard := tabs[0]
	assert.Equal(t, []any{"Total revenue", 4940.0}, dashboard.Rows[0])
	assert.Equal(t, []any{"Top customer", "Ana"}, dashboard.Rows[4])

	customers := tabs[1]
	require.Len(t, customers.Rows, 4)
	assert.Equal(t, []any{1, "Ana", "São Paulo", 3600.0, 2, "2024-03-05"}, customers.Rows[0])
	assert.Equal(t, "", customers.Rows[1][5], "customer without dated purchases")

	monthly := tabs[4]
	assert.Equal(t, [][]any{{"2024-01", 3700.0}, {"2024-03", 340.0}}, monthly.Rows)

	sales := tabs[5]
	assert.Len(t, sales.Values(), 7)
	assert.Equal(t, "ID", sales.Values()[0][0])
}

// fakeSheetsAPI records what the writer sends to the Sheets REST API.
type fakeSheetsAPI struct {
	updates  map[string][][]any
	clears   []string
	batches  []*sheets.BatchUpdateSpreadsheetRequest
	existing []string
	created  *sheets.Spreadsheet
	mu       sync.Mutex
	nextID   int64
}

func newFakeSheetsAPI(existing ...string) *fakeSheetsAPI {
	return &fakeSheetsAPI{updates: map[string][][]any{}, existing: existing, nextID: 100}
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/v4/spreadsheets"):
		var req sheets.Spreadsheet
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, sh := range req.Sheets {
			f.nextID++
			sh.Properties.SheetId = f.nextID
		}
		req.SpreadsheetId = "created-1"
		f.created = &req
		_ = json.NewEncoder(w).Encode(req)
	case r.Method == http.MethodGet:
		resp := sheets.Spreadsheet{SpreadsheetId: "existing-1"}
		for i, title := range f.existing {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{SheetId: int64(i), Title: title}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.batches = append(f.batches, &req)
		resp := sheets.BatchUpdateSpreadsheetResponse{}
		for _, rq := range req.Requests {
			reply := &sheets.Response{}
			if rq.AddSheet != nil {
				f.nextID++
				reply.AddSheet = &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{SheetId: f.nextID, Title: rq.AddSheet.Properties.Title}}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasSuffix(path, ":clear"):
		f.clears = append(f.clears, path)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates[vr.Range] = append(f.updates[vr.Range], vr.Values...)
		_, _ = w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, cfg Config) *Writer {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"),
		option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return NewWriterWithService(cfg, srv, nil)
}

func TestWriter_WriteCreatesSpreadsheet(t *testing.T) {
	api := newFakeSheetsAPI()
	cfg := DefaultConfig()
	cfg.RetryAttempts = 1
	w := newTestWriter(t, api, cfg)

	records := testutil.SampleSales()
	require.NoError(t, w.Write(context.Background(), pipeline.Summarize(records), records))

	require.NotNil(t, api.created)
	assert.Equal(t, DefaultSpreadsheetName, api.created.Properties.Title)
	assert.Len(t, api.created.Sheets, 6)
	assert.Len(t, api.clears, 6)

	customers := api.updates["'Customers'!A1"]
	require.Len(t, customers, 5)
	assert.Equal(t, "Customer ID", customers[0][0])
	assert.Equal(t, "Ana", customers[1][1])

	require.Len(t, api.batches, 1, "formatting batch")
	assert.NotEmpty(t, api.batches[0].Requests)
}

func TestWriter_WriteAddsMissingTabs(t *testing.T) {
	api := newFakeSheetsAPI(TabDashboard, TabCustomers)
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "existing-1"
	cfg.EnableFormatting = false
	cfg.BatchSize = 2
	w := newTestWriter(t, api, cfg)

	records := testutil.SampleSales()
	require.NoError(t, w.Write(context.Background(), pipeline.Summarize(records), records))

	require.Len(t, api.batches, 1)
	var added []string
	for _, rq := range api.batches[0].Requests {
		added = append(added, rq.AddSheet.Properties.Title)
	}
	assert.Equal(t, []string{TabRegions, TabItems, TabMonthly, TabSales}, added)

	assert.Len(t, api.updates["'Sales'!A1"], 2)
	assert.Len(t, api.updates["'Sales'!A3"], 2)
	assert.Len(t, api.updates["'Sales'!A7"], 1)
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	records := testutil.SampleSales()
	views := pipeline.Summarize(records)

	require.NoError(t, m.Write(context.Background(), views, records))
	m.SetWriteError(assert.AnError)
	assert.ErrorIs(t, m.Write(context.Background(), views, records), assert.AnError)

	calls := m.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, m.WriteCallCount)
	assert.Equal(t, "Ana", m.LastViews.Metrics.TopCustomerName)

	m.Reset()
	assert.Zero(t, m.WriteCallCount)
}
