package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/Veraticus/eshop-analytics/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	server  *httptest.Server
	session *session.Session
	db      *testutil.TestDB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIOn(t, testutil.SetupTestDB(t, testutil.SampleSales()))
}

func newTestAPIOn(t *testing.T, db *testutil.TestDB) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(db.Storage, logger)
	require.NoError(t, sess.Load(context.Background()))

	api := NewWebAPI(logger, Config{
		Addr:         ":0",
		ImportMode:   pipeline.MergeAppend,
		Dependencies: Dependencies{Session: sess, Geo: geo.Default()},
	})
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)

	return &testAPI{server: ts, session: sess, db: db}
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestWebAPI_Customers(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/v1/customers", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	customers := decode[[]Customer](t, resp)
	require.Len(t, customers, 4)
	assert.Equal(t, "Ana", customers[0].CustomerName)
	assert.Equal(t, "3600", customers[0].TotalSpent.String())
	require.NotNil(t, customers[0].LastPurchaseDate)
	assert.Equal(t, "2024-03-05", *customers[0].LastPurchaseDate)
	assert.Equal(t, "Carla", customers[1].CustomerName)
	assert.Nil(t, customers[1].LastPurchaseDate)
}

func TestWebAPI_RegionsCarryCoordinates(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/v1/regions", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	regions := decode[[]Region](t, resp)
	require.Len(t, regions, 3)
	assert.Equal(t, "São Paulo", regions[0].City)
	assert.Equal(t, "3600", regions[0].TotalSales.String())
	assert.True(t, regions[0].Known)
	assert.Less(t, regions[0].Lat, 0.0)
	assert.Equal(t, "Recife", regions[1].City)
	assert.Equal(t, 2, regions[1].UniqueCustomers)
}

func TestWebAPI_MetricsAndFilters(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/v1/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	metrics := decode[Metrics](t, resp)
	assert.Equal(t, "4940", metrics.TotalRevenue.String())
	assert.Equal(t, 4, metrics.TotalCustomers)
	assert.Equal(t, "Ana", metrics.TopCustomerName)
	assert.Equal(t, "São Paulo", metrics.TopCity)
	require.Len(t, metrics.MonthlyTrend, 2)
	assert.Equal(t, "2024-01", metrics.MonthlyTrend[0].Period)

	resp = api.do(t, http.MethodGet, "/api/v1/metrics?city=Recife", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	metrics = decode[Metrics](t, resp)
	assert.Equal(t, "1100", metrics.TotalRevenue.String())
	assert.Equal(t, 1, metrics.CitiesServed)

	resp = api.do(t, http.MethodGet, "/api/v1/records?start=2024-03-01&end=2024-03-31", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]Record](t, resp)
	require.Len(t, records, 2)
	assert.Equal(t, "r3", records[0].ID)
	assert.Equal(t, "r5", records[1].ID)

	resp = api.do(t, http.MethodGet, "/api/v1/items?item=Mouse,Notebook", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]Item](t, resp)
	require.Len(t, items, 2)
	assert.Equal(t, "Notebook", items[0].Item)

	resp = api.do(t, http.MethodGet, "/api/v1/customers?start=March", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebAPI_Trend(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/v1/trend", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	monthly := decode[[]TrendPoint](t, resp)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-03", monthly[1].Period)
	assert.Equal(t, "340", monthly[1].TotalSales.String())

	resp = api.do(t, http.MethodGet, "/api/v1/trend?days=2", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	daily := decode[[]TrendPoint](t, resp)
	require.Len(t, daily, 2)
	assert.Equal(t, "2024-03-05", daily[0].Period)
	assert.Equal(t, "2024-03-28", daily[1].Period)

	resp = api.do(t, http.MethodGet, "/api/v1/trend?days=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebAPI_RecordLifecycle(t *testing.T) {
	api := newTestAPI(t)

	body := `{"ID Cliente": 9, "Cliente": "Eva", "Cidade": "Curitiba", "Produto": "Mouse", "Quantidade": 2, "Preço Unitário": "R$ 49,90", "Data": "2024-04-02"}`
	resp := api.do(t, http.MethodPost, "/api/v1/records", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[RecordResponse](t, resp)
	assert.Empty(t, created.Warning)
	assert.Equal(t, "99.8", created.Record.TotalPrice.String())
	id := created.Record.ID
	require.NotEmpty(t, id)

	resp = api.do(t, http.MethodPut, "/api/v1/records/"+id, strings.NewReader(`{"quantity": 3}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[RecordResponse](t, resp)
	assert.Equal(t, 3, updated.Record.Quantity)
	assert.Equal(t, "149.7", updated.Record.TotalPrice.String())
	assert.Equal(t, "Eva", updated.Record.CustomerName)

	resp = api.do(t, http.MethodGet, "/api/v1/records/"+id, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decode[Record](t, resp).Quantity)

	stored := api.db.MustLoad()
	require.Len(t, stored, 7)
	assert.Equal(t, 3, stored[6].Quantity)

	resp = api.do(t, http.MethodDelete, "/api/v1/records/"+id, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, decode[DeleteResponse](t, resp).Deleted)
	assert.Len(t, api.db.MustLoad(), 6)

	resp = api.do(t, http.MethodDelete, "/api/v1/records/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebAPI_RecordErrors(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/v1/records", strings.NewReader(`{"customerId": 1}`), "application/json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Contains(t, errResp.Missing, "unitPrice")

	resp = api.do(t, http.MethodPut, "/api/v1/records/r1", strings.NewReader(`{"quantity": 0}`), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "quantity", decode[ErrorResponse](t, resp).Field)

	resp = api.do(t, http.MethodPut, "/api/v1/records/r1", strings.NewReader(`[1, 2]`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPatch, "/api/v1/records/nope", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/v1/records/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func upload(t *testing.T, filename, content string, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestWebAPI_Import(t *testing.T) {
	api := newTestAPI(t)

	csv := testutil.SampleCSV + "5;Fábio;Salvador;Mouse;;muitos;50,00;0\n"
	body, contentType := upload(t, "vendas.csv", csv, nil)
	resp := api.do(t, http.MethodPost, "/api/v1/imports", body, contentType)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[ImportResponse](t, resp)
	assert.Equal(t, "append", res.Mode)
	assert.Equal(t, 7, res.Received)
	assert.Equal(t, 6, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 12, res.WorkingSet)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, "quantity", res.Rejections[0].Field)
	assert.Len(t, api.db.MustLoad(), 12)

	body, contentType = upload(t, "vendas.csv", testutil.SampleCSV, map[string]string{"mode": "replace"})
	resp = api.do(t, http.MethodPost, "/api/v1/imports", body, contentType)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, decode[ImportResponse](t, resp).WorkingSet)
	assert.Len(t, api.session.Records(), 6)
}

func TestWebAPI_ReplaceImportTakesSnapshot(t *testing.T) {
	api := newTestAPIOn(t, testutil.SetupFileDB(t, testutil.SampleSales()))

	body, contentType := upload(t, "vendas.csv", testutil.SampleCSV, map[string]string{"mode": "replace"})
	resp := api.do(t, http.MethodPost, "/api/v1/imports", body, contentType)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[ImportResponse](t, resp)
	assert.Contains(t, res.Snapshot, "auto-replace-import-")
	assert.Empty(t, res.Warning)

	m, err := api.db.Storage.Snapshots()
	require.NoError(t, err)
	snaps, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 6, snaps[0].Sales)
}

func TestWebAPI_ImportErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
	}{
		{name: "missing columns", filename: "vendas.csv", content: "Cliente;Cidade\nAna;Recife\n"},
		{name: "unsupported format", filename: "vendas.pdf", content: "%PDF"},
		{name: "bad mode", filename: "vendas.csv", content: testutil.SampleCSV, fields: map[string]string{"mode": "upsert"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := upload(t, tt.filename, tt.content, tt.fields)
			resp := api.do(t, http.MethodPost, "/api/v1/imports", body, contentType)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.Len(t, api.session.Records(), 6, "failed imports leave the working set alone")
}

func TestWebAPI_Health(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", health["status"])
	assert.InDelta(t, 6, health["records"], 0)
}

func TestWebAPI_StartStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := NewWebAPI(logger, Config{
		Addr:         "127.0.0.1:0",
		Dependencies: Dependencies{Session: session.New(nil, logger)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.Start(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
