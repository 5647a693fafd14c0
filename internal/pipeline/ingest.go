// Package pipeline turns raw sale lines into validated records and derives the
// customer, region and dashboard views from them. Every function is a pure
// transform: callers own the collection and pass it in on each call.
package pipeline

import (
	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/google/uuid"
)

// DefaultChunkSize bounds how many rows are normalized per step.
const DefaultChunkSize = 500

// Row is one loosely-typed input line keyed by its source column name.
type Row map[string]any

// RawBatch is a parsed upload: its header plus the data rows.
type RawBatch struct {
	Columns []string
	Rows    []Row
}

// IngestOptions tunes Ingest.
type IngestOptions struct {
	// Progress, if set, is called after each chunk with rows processed so far.
	Progress  func(done, total int)
	NewID     func() string
	ChunkSize int
}

func (o IngestOptions) withDefaults() IngestOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// ValidatedBatch is the result of one ingest, prior to merging into the working set.
type ValidatedBatch struct {
	Records      model.Collection
	Rejections   []*common.RowCoercionError
	Received     int
	Accepted     int
	Rejected     int
	UnknownDates int
}

// Ingest validates and normalizes a raw batch. A batch whose column set lacks
// any required field fails with *common.SchemaError and accepts nothing. Rows
// with unusable values are dropped and reported in the batch; unparseable
// dates only mark the record as undated.
func Ingest(raw RawBatch, opts IngestOptions) (*ValidatedBatch, error) {
	opts = opts.withDefaults()

	cols, missing := resolveColumns(raw.Columns, RequiredFields)
	if len(missing) > 0 {
		return nil, &common.SchemaError{Missing: missing}
	}

	batch := &ValidatedBatch{
		Received: len(raw.Rows),
		Records:  make(model.Collection, 0, len(raw.Rows)),
	}

	total := len(raw.Rows)
	for start := 0; start < total; start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, total)
		for i := start; i < end; i++ {
			rec, err := normalizeRow(raw.Rows[i], cols, i+1)
			if err != nil {
				batch.Rejections = append(batch.Rejections, err)
				batch.Rejected++
				continue
			}
			rec.ID = opts.NewID()
			if !rec.HasDate() {
				batch.UnknownDates++
			}
			batch.Records = append(batch.Records, rec)
			batch.Accepted++
		}
		if opts.Progress != nil {
			opts.Progress(end, total)
		}
	}

	common.LogDebug("ingested batch", common.Fields{
		"received": batch.Received,
		"accepted": batch.Accepted,
		"rejected": batch.Rejected,
	})

	return batch, nil
}

// normalizeRow applies the per-row rules and recomputes the total.
func normalizeRow(row Row, cols columnMap, rowNum int) (model.SaleRecord, *common.RowCoercionError) {
	var rec model.SaleRecord

	reject := func(f Field, reason error) *common.RowCoercionError {
		return &common.RowCoercionError{
			Row:    rowNum,
			Field:  string(f),
			Value:  rawString(row[cols[f]]),
			Reason: reason.Error(),
		}
	}

	var err error
	if rec.CustomerID, err = coercePositiveInt(row[cols[FieldCustomerID]]); err != nil {
		return rec, reject(FieldCustomerID, err)
	}
	if rec.Quantity, err = coercePositiveInt(row[cols[FieldQuantity]]); err != nil {
		return rec, reject(FieldQuantity, err)
	}
	if rec.UnitPrice, err = coerceMoney(row[cols[FieldUnitPrice]]); err != nil {
		return rec, reject(FieldUnitPrice, err)
	}
	if rec.CustomerName, err = coerceText(row[cols[FieldCustomerName]]); err != nil {
		return rec, reject(FieldCustomerName, err)
	}
	if rec.City, err = coerceText(row[cols[FieldCity]]); err != nil {
		return rec, reject(FieldCity, err)
	}
	if rec.Item, err = coerceText(row[cols[FieldItem]]); err != nil {
		return rec, reject(FieldItem, err)
	}
	if col, ok := cols[FieldDate]; ok {
		rec.Date, _ = coerceDate(row[col])
	}

	rec.Recompute()
	return rec, nil
}
