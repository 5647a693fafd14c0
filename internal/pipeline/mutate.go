package pipeline

import (
	"errors"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/google/uuid"
)

// ApplyEdit replaces the editable fields of the record with the given ID and
// recomputes its total. The input collection is left untouched.
func ApplyEdit(records model.Collection, id string, values model.SaleValues) (model.Collection, error) {
	i := records.IndexOf(id)
	if i < 0 {
		return nil, &common.NotFoundError{ID: id}
	}

	rec, err := NewRecord(values)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	out := records.Clone()
	out[i] = rec
	return out, nil
}

// ApplyDelete removes the record with the given ID. Later records shift down one position.
func ApplyDelete(records model.Collection, id string) (model.Collection, error) {
	i := records.IndexOf(id)
	if i < 0 {
		return nil, &common.NotFoundError{ID: id}
	}

	out := make(model.Collection, 0, len(records)-1)
	out = append(out, records[:i]...)
	out = append(out, records[i+1:]...)
	return out, nil
}

// InsertFields are the columns an inserted row must carry. totalPrice is
// optional here since it is recomputed anyway.
var InsertFields = []Field{
	FieldCustomerID,
	FieldCustomerName,
	FieldCity,
	FieldItem,
	FieldQuantity,
	FieldUnitPrice,
}

// ApplyInsert validates a loosely-typed row with the ingest rules and appends
// it under a fresh ID. It returns the new collection and the stored record.
func ApplyInsert(records model.Collection, row Row) (model.Collection, model.SaleRecord, error) {
	columns := make([]string, 0, len(row))
	for k := range row {
		columns = append(columns, k)
	}

	cols, missing := resolveColumns(columns, InsertFields)
	if len(missing) > 0 {
		return nil, model.SaleRecord{}, &common.SchemaError{Missing: missing}
	}

	rec, rowErr := normalizeRow(row, cols, len(records)+1)
	if rowErr != nil {
		return nil, model.SaleRecord{}, rowErr
	}
	rec.ID = uuid.NewString()

	out := make(model.Collection, 0, len(records)+1)
	out = append(out, records...)
	out = append(out, rec)
	return out, rec, nil
}

// NewRecord validates typed values and builds a record with its total
// computed. The ID is left empty for the caller to assign.
func NewRecord(values model.SaleValues) (model.SaleRecord, error) {
	invalid := func(f Field, value any, reason error) error {
		return &common.RowCoercionError{Field: string(f), Value: rawString(value), Reason: reason.Error()}
	}

	switch {
	case values.CustomerID <= 0:
		return model.SaleRecord{}, invalid(FieldCustomerID, values.CustomerID, errNotPositive)
	case values.Quantity < 1:
		return model.SaleRecord{}, invalid(FieldQuantity, values.Quantity, errNotPositive)
	case values.UnitPrice.IsNegative():
		return model.SaleRecord{}, invalid(FieldUnitPrice, values.UnitPrice.String(), errNegative)
	case strings.TrimSpace(values.CustomerName) == "":
		return model.SaleRecord{}, invalid(FieldCustomerName, values.CustomerName, errEmpty)
	case strings.TrimSpace(values.City) == "":
		return model.SaleRecord{}, invalid(FieldCity, values.City, errEmpty)
	case strings.TrimSpace(values.Item) == "":
		return model.SaleRecord{}, invalid(FieldItem, values.Item, errEmpty)
	}

	rec := model.SaleRecord{
		CustomerID:   values.CustomerID,
		CustomerName: strings.TrimSpace(values.CustomerName),
		City:         strings.TrimSpace(values.City),
		Item:         strings.TrimSpace(values.Item),
		Date:         values.Date,
		Quantity:     values.Quantity,
		UnitPrice:    values.UnitPrice,
	}
	if rec.HasDate() {
		rec.Date = wallClock(rec.Date)
	}
	rec.Recompute()
	return rec, nil
}

var errBadDate = errors.New("not a recognizable date")

// PatchValues overlays the fields present in row onto base using the ingest
// coercion rules. Keys that name no field are ignored, as is totalPrice. A
// blank date clears it; any other unparseable date is rejected.
func PatchValues(base model.SaleValues, row Row) (model.SaleValues, error) {
	out := base
	for key, value := range row {
		field, ok := CanonicalField(key)
		if !ok {
			continue
		}

		var err error
		switch field {
		case FieldCustomerID:
			out.CustomerID, err = coercePositiveInt(value)
		case FieldQuantity:
			out.Quantity, err = coercePositiveInt(value)
		case FieldUnitPrice:
			out.UnitPrice, err = coerceMoney(value)
		case FieldCustomerName:
			out.CustomerName, err = coerceText(value)
		case FieldCity:
			out.City, err = coerceText(value)
		case FieldItem:
			out.Item, err = coerceText(value)
		case FieldDate:
			var known bool
			out.Date, known = coerceDate(value)
			if !known && rawString(value) != "" {
				err = errBadDate
			}
		}
		if err != nil {
			return base, &common.RowCoercionError{Field: string(field), Value: rawString(value), Reason: err.Error()}
		}
	}
	return out, nil
}
