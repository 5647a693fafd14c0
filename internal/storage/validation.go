package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidRecord = errors.New("invalid sale record")
	ErrDuplicateID   = errors.New("duplicate sale id")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecords checks the fields the schema relies on. Business
// validation already happened in the pipeline; this only guards the sink.
func validateRecords(records model.Collection) error {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
		if _, dup := seen[records[i].ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, records[i].ID)
		}
		seen[records[i].ID] = struct{}{}
	}
	return nil
}

func validateRecord(r *model.SaleRecord) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	case r.Quantity < 1:
		return fmt.Errorf("%w: quantity %d", ErrInvalidRecord, r.Quantity)
	case r.UnitPrice.IsNegative():
		return fmt.Errorf("%w: negative unit price", ErrInvalidRecord)
	}
	return nil
}
