package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/intake"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/server/middleware"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

var errBadRequest = errors.New("bad request")

// Handler serves the dashboard API over one session.
type Handler struct {
	session   *session.Session
	geo       *geo.Table
	mode      pipeline.MergeMode
	chunkSize int
}

// NewHandler creates a Handler. A nil table falls back to the built-in cities.
func NewHandler(sess *session.Session, table *geo.Table, mode pipeline.MergeMode, chunkSize int) *Handler {
	if table == nil {
		table = geo.Default()
	}
	if mode == "" {
		mode = pipeline.MergeAppend
	}
	return &Handler{session: sess, geo: table, mode: mode, chunkSize: chunkSize}
}

// Health reports liveness and the working-set size.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": len(h.session.Records()),
	})
}

// ListRecords returns the records matching the filter query.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecords(filter.Apply(h.session.Records())))
}

// GetRecord returns one record by ID.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.session.Record(id)
	if !ok {
		writeError(w, r, &common.NotFoundError{ID: id})
		return
	}
	writeJSON(w, r, http.StatusOK, toRecord(rec))
}

// CreateRecord inserts a record from a JSON object keyed by column name.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	row, err := decodeRow(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, res, err := h.session.Insert(r.Context(), row)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, RecordResponse{Record: toRecord(rec), Warning: warningText(res.Warning)})
}

// UpdateRecord overlays the fields in the JSON body onto one record.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, ok := h.session.Record(id)
	if !ok {
		writeError(w, r, &common.NotFoundError{ID: id})
		return
	}

	row, err := decodeRow(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	values, err := pipeline.PatchValues(current.Values(), row)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, res, err := h.session.Edit(r.Context(), id, values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, RecordResponse{Record: toRecord(rec), Warning: warningText(res.Warning)})
}

// DeleteRecord removes one record.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.session.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, DeleteResponse{Deleted: id, Warning: warningText(res.Warning)})
}

// Import accepts a multipart upload in the "file" field. The optional "mode"
// and "sheet" values pick the merge mode and the workbook sheet.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: file field: %w", errBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	mode := h.mode
	if v := r.FormValue("mode"); v != "" {
		if mode, err = pipeline.ParseMergeMode(v); err != nil {
			writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
	}

	raw, err := intake.Read(header.Filename, file, r.FormValue("sheet"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.session.Import(r.Context(), raw, mode, pipeline.IngestOptions{ChunkSize: h.chunkSize})
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.FromContext(r.Context()).Info("Import processed",
		"file", header.Filename,
		"accepted", res.Batch.Accepted,
		"rejected", res.Batch.Rejected)
	writeJSON(w, r, http.StatusOK, toImportResponse(res, mode, res.Views.Metrics.TotalRecords))
}

// Customers returns the customer summary, highest spenders first.
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	views, ok := h.views(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toCustomers(views.Customers))
}

// Regions returns the regional summary with map coordinates.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	views, ok := h.views(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toRegions(h.geo.Locate(views.Regions)))
}

// Items returns the product summary.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	views, ok := h.views(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toItems(views.Items))
}

// Metrics returns the dashboard figures.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	views, ok := h.views(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toMetrics(views.Metrics))
}

// Trend returns daily totals for the last ?days=N dated days, or monthly
// totals when days is absent.
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records := filter.Apply(h.session.Records())

	days := r.URL.Query().Get("days")
	if days == "" {
		writeJSON(w, r, http.StatusOK, toTrend(pipeline.MonthlyTrend(records), model.TrendPoint.MonthLabel))
		return
	}

	n, err := strconv.Atoi(days)
	if err != nil || n <= 0 {
		writeError(w, r, fmt.Errorf("%w: days must be a positive integer, got %q", errBadRequest, days))
		return
	}
	writeJSON(w, r, http.StatusOK, toTrend(pipeline.DailyTrend(records, n), model.TrendPoint.DayLabel))
}

func (h *Handler) views(w http.ResponseWriter, r *http.Request) (pipeline.Views, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return pipeline.Views{}, false
	}
	return h.session.Filtered(filter), true
}

// parseFilter reads start, end (YYYY-MM-DD) and repeated or comma-separated
// item and city parameters.
func parseFilter(r *http.Request) (pipeline.Filter, error) {
	q := r.URL.Query()
	var f pipeline.Filter

	for _, bound := range []struct {
		dst  *time.Time
		name string
	}{{&f.Start, "start"}, {&f.End, "end"}} {
		v := q.Get(bound.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", errBadRequest, bound.name, v)
		}
		*bound.dst = t
	}

	f.Items = splitValues(q["item"])
	f.Cities = splitValues(q["city"])
	return f, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func decodeRow(w http.ResponseWriter, r *http.Request) (pipeline.Row, error) {
	var row pipeline.Row
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&row); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %w", errBadRequest, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errBadRequest)
	}
	return row, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		middleware.FromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var schemaErr *common.SchemaError
	var rowErr *common.RowCoercionError
	switch {
	case errors.As(err, &schemaErr):
		status = http.StatusBadRequest
		resp.Missing = schemaErr.Missing
	case errors.As(err, &rowErr):
		status = http.StatusUnprocessableEntity
		resp.Field = rowErr.Field
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, intake.ErrUnsupportedFormat),
		errors.Is(err, intake.ErrNoHeader):
		status = http.StatusBadRequest
	}

	logger := middleware.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, r, status, resp)
}
