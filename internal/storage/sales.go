package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/mattn/go-sqlite3"
)

const saleColumns = "id, customer_id, customer_name, city, item, date, quantity, unit_price, total_price"

// dateLayout is how sale dates are stored. NULL means unknown.
const dateLayout = time.RFC3339

// LoadSales returns every stored record in insertion order.
func (s *SQLiteStorage) LoadSales(ctx context.Context) (model.Collection, error) {
	var out model.Collection
	err := s.do(ctx, "load sales", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY seq`)
		if err != nil {
			return fmt.Errorf("failed to query sales: %w", err)
		}
		defer func() { _ = rows.Close() }()

		records := model.Collection{}
		for rows.Next() {
			r, scanErr := scanSale(rows)
			if scanErr != nil {
				return common.Permanent(scanErr)
			}
			records = append(records, r)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate sales: %w", err)
		}
		out = records
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceSales swaps the stored collection for records in one transaction.
func (s *SQLiteStorage) ReplaceSales(ctx context.Context, records model.Collection) error {
	if err := validateRecords(records); err != nil {
		return err
	}

	return s.do(ctx, "replace sales", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
				return fmt.Errorf("failed to clear sales: %w", err)
			}
			return insertSales(ctx, tx, records, 1)
		})
	})
}

// AppendSales adds records after the ones already stored.
func (s *SQLiteStorage) AppendSales(ctx context.Context, records model.Collection) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	return s.do(ctx, "append sales", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			var last int64
			if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM sales`).Scan(&last); err != nil {
				return fmt.Errorf("failed to read last sequence: %w", err)
			}
			return insertSales(ctx, tx, records, last+1)
		})
	})
}

// UpdateSale overwrites the stored record with the same ID, keeping its position.
func (s *SQLiteStorage) UpdateSale(ctx context.Context, r model.SaleRecord) error {
	if err := validateRecord(&r); err != nil {
		return err
	}

	return s.do(ctx, "update sale", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE sales SET
				customer_id = ?, customer_name = ?, city = ?, item = ?, date = ?,
				quantity = ?, unit_price = ?, total_price = ?
			WHERE id = ?`,
			r.CustomerID, r.CustomerName, r.City, r.Item, formatDate(r.Date),
			r.Quantity, r.UnitPrice.String(), r.TotalPrice.String(), r.ID)
		if err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}
		return requireAffected(res, r.ID)
	})
}

// DeleteSale removes the stored record with the given ID.
func (s *SQLiteStorage) DeleteSale(ctx context.Context, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.do(ctx, "delete sale", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return requireAffected(res, id)
	})
}

// CountSales returns the number of stored records.
func (s *SQLiteStorage) CountSales(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, "count sales", func(ctx context.Context) error {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n); err != nil {
			return fmt.Errorf("failed to count sales: %w", err)
		}
		return nil
	})
	return n, err
}

func insertSales(ctx context.Context, tx *sql.Tx, records model.Collection, seq int64) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sales (seq, `+saleColumns+`) VALUES (`+placeholders(10)+`)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			seq+int64(i), r.ID, r.CustomerID, r.CustomerName, r.City, r.Item, formatDate(r.Date),
			r.Quantity, r.UnitPrice.String(), r.TotalPrice.String())
		if err != nil {
			return fmt.Errorf("failed to insert sale %s: %w", r.ID, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSale(row scanner) (model.SaleRecord, error) {
	var (
		r    model.SaleRecord
		date sql.NullString
	)
	err := row.Scan(&r.ID, &r.CustomerID, &r.CustomerName, &r.City, &r.Item, &date,
		&r.Quantity, &r.UnitPrice, &r.TotalPrice)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("%w: %w", common.ErrDatabaseCorrupted, err)
	}

	if date.Valid && date.String != "" {
		t, err := time.Parse(dateLayout, date.String)
		if err != nil {
			return model.SaleRecord{}, fmt.Errorf("%w: sale %s has date %q", common.ErrDatabaseCorrupted, r.ID, date.String)
		}
		r.Date = t.UTC()
	}
	// The stored total is derived data; it never overrides quantity × unit price.
	r.Recompute()
	return r, nil
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return common.Permanent(&common.NotFoundError{ID: id})
	}
	return nil
}

func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
