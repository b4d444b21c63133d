package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"powerbill/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is a Bill Store backed by SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens dsn and applies migrations. dsn may be a file
// path or an in-memory URI such as "file:powerbill?mode=memory&cache=shared".
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if !IsMemoryDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: keeps in-memory databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// IsMemoryDSN reports whether dsn names an in-memory database.
func IsMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// NextID issues the next bill id from the bill_sequence table.
func (r *SQLiteRepository) NextID(ctx context.Context) (int64, error) {
	id, err := r.queries.NextBillID(ctx)
	if err != nil {
		return 0, fmt.Errorf("next bill id: %w", err)
	}
	return id, nil
}

// Append inserts the bill and its ledger in one transaction.
func (r *SQLiteRepository) Append(ctx context.Context, b core.Bill) error {
	err := r.inTx(ctx, func(q *Queries) error {
		last, err := q.LastBillID(ctx)
		if err != nil {
			return fmt.Errorf("last bill id: %w", err)
		}
		if b.ID <= last {
			return fmt.Errorf("id must exceed %d", last)
		}
		if err := q.CreateBill(ctx, toBillRow(b)); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		if err := insertEntries(ctx, q, b.ID, b.Ledger); err != nil {
			return err
		}
		return q.BumpBillSequence(ctx, b.ID+1)
	})
	if err != nil {
		return fmt.Errorf("append bill %d: %w", b.ID, err)
	}

	slog.DebugContext(ctx, "Bill saved to SQLite",
		"bill_id", b.ID,
		"vendor", b.Vendor,
		"amount", b.Amount.String(),
		"entries", len(b.Ledger))
	return nil
}

// FindByID loads a bill and its ledger.
func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (core.Bill, error) {
	row, err := r.queries.GetBill(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("%w: %d", core.ErrBillNotFound, id)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %d: %w", id, err)
	}

	txs, err := r.queries.ListTransactionsByBill(ctx, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("list transactions for bill %d: %w", id, err)
	}

	b, err := fromBillRow(row)
	if err != nil {
		return core.Bill{}, err
	}
	for _, t := range txs {
		e, err := fromTransactionRow(t)
		if err != nil {
			return core.Bill{}, err
		}
		b.Ledger = append(b.Ledger, e)
	}
	return b, nil
}

// Update persists amount and status and appends newEntries to the ledger.
func (r *SQLiteRepository) Update(ctx context.Context, b core.Bill, newEntries ...core.TransactionEntry) error {
	err := r.inTx(ctx, func(q *Queries) error {
		stored, err := q.CountTransactionsByBill(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		if want := int(stored) + len(newEntries); len(b.Ledger) != want {
			return fmt.Errorf("ledger has %d entries, want %d", len(b.Ledger), want)
		}

		n, err := q.UpdateBillSettlement(ctx, b.ID, b.Amount.String(), string(b.Status))
		if err != nil {
			return fmt.Errorf("update bill: %w", err)
		}
		if n == 0 {
			return core.ErrBillNotFound
		}
		return insertEntries(ctx, q, b.ID, newEntries)
	})
	if err != nil {
		return fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	return nil
}

// List returns every bill with its ledger in creation order.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.queries.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	txs, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	ledgers := make(map[int64][]core.TransactionEntry, len(rows))
	for _, t := range txs {
		e, err := fromTransactionRow(t)
		if err != nil {
			return nil, err
		}
		ledgers[t.BillID] = append(ledgers[t.BillID], e)
	}

	bills := make([]core.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := fromBillRow(row)
		if err != nil {
			return nil, err
		}
		b.Ledger = ledgers[b.ID]
		bills = append(bills, b)
	}
	return bills, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, q *Queries, billID int64, entries []core.TransactionEntry) error {
	for _, e := range entries {
		err := q.CreateTransaction(ctx, TransactionRow{
			BillID:    billID,
			Amount:    e.Amount.String(),
			Kind:      string(e.Kind),
			CreatedAt: e.Timestamp.Format(time.RFC3339Nano),
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	return nil
}

func toBillRow(b core.Bill) BillRow {
	return BillRow{
		ID:       b.ID,
		Vendor:   b.Vendor,
		Amount:   b.Amount.String(),
		DueDate:  b.DueDate.String(),
		Status:   string(b.Status),
		Category: string(b.Category),
	}
}

func fromBillRow(row BillRow) (core.Bill, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %d amount %q: %w", row.ID, row.Amount, err)
	}
	due, err := core.ParseDate(row.DueDate)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %d due date %q: %w", row.ID, row.DueDate, err)
	}
	return core.Bill{
		ID:       row.ID,
		Vendor:   row.Vendor,
		Amount:   amount,
		DueDate:  due,
		Status:   core.Status(row.Status),
		Category: core.Category(row.Category),
	}, nil
}

func fromTransactionRow(row TransactionRow) (core.TransactionEntry, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.TransactionEntry{}, fmt.Errorf("transaction %d amount %q: %w", row.ID, row.Amount, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.TransactionEntry{}, fmt.Errorf("transaction %d timestamp %q: %w", row.ID, row.CreatedAt, err)
	}
	return core.TransactionEntry{
		Amount:    amount,
		Kind:      core.EntryKind(row.Kind),
		Timestamp: ts,
	}, nil
}
