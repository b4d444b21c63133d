package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// BillRow mirrors a row of the bills table.
type BillRow struct {
	ID       int64
	Vendor   string
	Amount   string
	DueDate  string
	Status   string
	Category string
}

// TransactionRow mirrors a row of the bill_transactions table.
type TransactionRow struct {
	ID        int64
	BillID    int64
	Amount    string
	Kind      string
	CreatedAt string
}

const nextBillID = `UPDATE bill_sequence SET next_id = next_id + 1 WHERE id = 1 RETURNING next_id - 1`

func (q *Queries) NextBillID(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, nextBillID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const bumpBillSequence = `UPDATE bill_sequence SET next_id = MAX(next_id, ?) WHERE id = 1`

func (q *Queries) BumpBillSequence(ctx context.Context, next int64) error {
	_, err := q.db.ExecContext(ctx, bumpBillSequence, next)
	return err
}

const lastBillID = `SELECT COALESCE(MAX(id), 0) FROM bills`

func (q *Queries) LastBillID(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, lastBillID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createBill = `INSERT INTO bills (id, vendor, amount, due_date, status, category) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBill(ctx context.Context, arg BillRow) error {
	_, err := q.db.ExecContext(ctx, createBill,
		arg.ID,
		arg.Vendor,
		arg.Amount,
		arg.DueDate,
		arg.Status,
		arg.Category,
	)
	return err
}

const updateBillSettlement = `UPDATE bills SET amount = ?, status = ? WHERE id = ?`

func (q *Queries) UpdateBillSettlement(ctx context.Context, id int64, amount, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBillSettlement, amount, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createTransaction = `INSERT INTO bill_transactions (bill_id, amount, kind, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.BillID,
		arg.Amount,
		arg.Kind,
		arg.CreatedAt,
	)
	return err
}

const getBill = `SELECT id, vendor, amount, due_date, status, category FROM bills WHERE id = ?`

func (q *Queries) GetBill(ctx context.Context, id int64) (BillRow, error) {
	row := q.db.QueryRowContext(ctx, getBill, id)
	var i BillRow
	err := row.Scan(
		&i.ID,
		&i.Vendor,
		&i.Amount,
		&i.DueDate,
		&i.Status,
		&i.Category,
	)
	return i, err
}

const listBills = `SELECT id, vendor, amount, due_date, status, category FROM bills ORDER BY id`

func (q *Queries) ListBills(ctx context.Context) ([]BillRow, error) {
	rows, err := q.db.QueryContext(ctx, listBills)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillRow
	for rows.Next() {
		var i BillRow
		if err := rows.Scan(
			&i.ID,
			&i.Vendor,
			&i.Amount,
			&i.DueDate,
			&i.Status,
			&i.Category,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransactionsByBill = `SELECT id, bill_id, amount, kind, created_at FROM bill_transactions WHERE bill_id = ? ORDER BY id`

func (q *Queries) ListTransactionsByBill(ctx context.Context, billID int64) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listTransactionsByBill, billID)
}

const listTransactions = `SELECT id, bill_id, amount, kind, created_at FROM bill_transactions ORDER BY bill_id, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listTransactions)
}

const countTransactionsByBill = `SELECT COUNT(*) FROM bill_transactions WHERE bill_id = ?`

func (q *Queries) CountTransactionsByBill(ctx context.Context, billID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactionsByBill, billID)
	var n int64
	err := row.Scan(&n)
	return n, err
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.BillID,
			&i.Amount,
			&i.Kind,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
