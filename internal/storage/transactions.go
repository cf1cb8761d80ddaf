package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cuotas/internal/core"

	"github.com/google/uuid"
)

// TransactionFilter narrows transaction listings. Zero values mean "any".
type TransactionFilter struct {
	Status core.TransactionStatus
	Type   core.TransactionType
	From   core.Date
	To     core.Date
}

// CreateTransaction inserts a manually recorded income/expense entry.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, category, amount_cents, tx_date, status, receipt_url, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Type, tx.Category, tx.Amount.Cents, tx.Date.Format(dateLayout),
		tx.Status, nullString(tx.ReceiptURL), nullString(tx.Description))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", tx.ID,
		"type", string(tx.Type),
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)
	return tx, nil
}

// GetTransaction loads one transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, type, category, amount_cents, tx_date, status, receipt_url, description
		 FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return tx, err
}

// UpdateTransaction replaces all editable fields of a transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, category = ?, amount_cents = ?, tx_date = ?, status = ?, receipt_url = ?, description = ?
		 WHERE id = ?`,
		tx.Type, tx.Category, tx.Amount.Cents, tx.Date.Format(dateLayout),
		tx.Status, nullString(tx.ReceiptURL), nullString(tx.Description), tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction permanently.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// ListTransactions returns transactions matching the filter in ascending
// date order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, type, category, amount_cents, tx_date, status, receipt_url, description
	          FROM transactions WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if !filter.From.IsEmpty() {
		query += " AND tx_date >= ?"
		args = append(args, filter.From.Format(dateLayout))
	}
	if !filter.To.IsEmpty() {
		query += " AND tx_date <= ?"
		args = append(args, filter.To.Format(dateLayout))
	}
	query += " ORDER BY tx_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx          core.Transaction
		date        string
		receiptURL  sql.NullString
		description sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.Type, &tx.Category, &tx.Amount.Cents, &date,
		&tx.Status, &receiptURL, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if tx.Date, err = decodeDate(sql.NullString{String: date, Valid: true}); err != nil {
		return core.Transaction{}, err
	}
	tx.ReceiptURL = receiptURL.String
	tx.Description = description.String
	return tx, nil
}
