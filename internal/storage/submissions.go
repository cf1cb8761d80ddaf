package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cuotas/internal/core"

	"github.com/google/uuid"
)

// SubmissionFilter narrows submission listings. Zero values mean "any".
type SubmissionFilter struct {
	ProjectID string
	Status    core.SubmissionStatus
}

// CreateSubmission inserts a pending submission after checking its
// preconditions inside one transaction: the installment must exist, must
// not be paid, and must have no pending submission. The partial unique
// index backs the last check, so two concurrent submits cannot both
// succeed even though the SELECT ran before the INSERT.
func (r *SQLiteRepository) CreateSubmission(ctx context.Context, sub core.PaymentSubmission) (core.PaymentSubmission, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Status = core.SubmissionPending

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.PaymentSubmission{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var paid bool
	err = tx.QueryRowContext(ctx,
		`SELECT paid FROM installments WHERE project_id = ? AND number = ?`,
		sub.ProjectID, sub.InstallmentNumber).Scan(&paid)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentSubmission{}, fmt.Errorf("installment %d of project %s: %w",
			sub.InstallmentNumber, sub.ProjectID, core.ErrNotFound)
	}
	if err != nil {
		return core.PaymentSubmission{}, fmt.Errorf("select installment: %w", err)
	}
	if paid {
		return core.PaymentSubmission{}, fmt.Errorf("installment %d already paid: %w",
			sub.InstallmentNumber, core.ErrConflict)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions
		 (id, project_id, installment_number, amount_cents, receipt_url, status, submitted_by, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ProjectID, sub.InstallmentNumber, sub.Amount.Cents,
		sub.ReceiptURL, sub.Status, sub.SubmittedBy, encodeTime(sub.SubmittedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.PaymentSubmission{}, fmt.Errorf("pending submission already exists for installment %d: %w",
				sub.InstallmentNumber, core.ErrConflict)
		}
		return core.PaymentSubmission{}, fmt.Errorf("insert submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.PaymentSubmission{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Payment submission created",
		"submission_id", sub.ID,
		"project_id", sub.ProjectID,
		"installment_number", sub.InstallmentNumber,
		"amount_cents", sub.Amount.Cents)
	return sub, nil
}

// GetSubmission loads one submission by id.
func (r *SQLiteRepository) GetSubmission(ctx context.Context, id string) (core.PaymentSubmission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, installment_number, amount_cents, receipt_url,
		        status, submitted_by, submitted_at, reviewed_at, review_notes
		 FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentSubmission{}, fmt.Errorf("submission %s: %w", id, core.ErrNotFound)
	}
	return sub, err
}

// ApproveSubmission flips a pending submission to approved and marks the
// matching installment paid, as one atomic unit. A concurrent reader can
// never observe the submission approved while the installment is unpaid,
// or the other way around.
func (r *SQLiteRepository) ApproveSubmission(ctx context.Context, id string, reviewedAt time.Time) (core.PaymentSubmission, error) {
	return r.review(ctx, id, core.SubmissionApproved, "", reviewedAt)
}

// RejectSubmission flips a pending submission to rejected with review
// notes. The installment is left untouched.
func (r *SQLiteRepository) RejectSubmission(ctx context.Context, id, notes string, reviewedAt time.Time) (core.PaymentSubmission, error) {
	return r.review(ctx, id, core.SubmissionRejected, notes, reviewedAt)
}

func (r *SQLiteRepository) review(ctx context.Context, id string, outcome core.SubmissionStatus, notes string, reviewedAt time.Time) (core.PaymentSubmission, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.PaymentSubmission{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, project_id, installment_number, amount_cents, receipt_url,
		        status, submitted_by, submitted_at, reviewed_at, review_notes
		 FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentSubmission{}, fmt.Errorf("submission %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.PaymentSubmission{}, err
	}
	if sub.Status != core.SubmissionPending {
		return core.PaymentSubmission{}, fmt.Errorf("submission %s is %s: %w", id, sub.Status, core.ErrInvalidState)
	}

	// The status guard in the WHERE clause makes the transition race-safe
	// even against a writer that slipped in after the SELECT.
	res, err := tx.ExecContext(ctx,
		`UPDATE submissions SET status = ?, reviewed_at = ?, review_notes = ?
		 WHERE id = ? AND status = ?`,
		outcome, encodeTime(reviewedAt), nullString(notes), id, core.SubmissionPending)
	if err != nil {
		return core.PaymentSubmission{}, fmt.Errorf("update submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.PaymentSubmission{}, fmt.Errorf("submission %s reviewed concurrently: %w", id, core.ErrInvalidState)
	}

	if outcome == core.SubmissionApproved {
		res, err := tx.ExecContext(ctx,
			`UPDATE installments SET paid = 1 WHERE project_id = ? AND number = ?`,
			sub.ProjectID, sub.InstallmentNumber)
		if err != nil {
			return core.PaymentSubmission{}, fmt.Errorf("mark installment paid: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.PaymentSubmission{}, fmt.Errorf("installment %d of project %s: %w",
				sub.InstallmentNumber, sub.ProjectID, core.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.PaymentSubmission{}, fmt.Errorf("commit: %w", err)
	}

	sub.Status = outcome
	sub.ReviewedAt = reviewedAt
	sub.ReviewNotes = notes

	slog.InfoContext(ctx, "Payment submission reviewed",
		"submission_id", sub.ID,
		"project_id", sub.ProjectID,
		"installment_number", sub.InstallmentNumber,
		"status", string(outcome))
	return sub, nil
}

// ListSubmissions returns submissions matching the filter, newest first.
func (r *SQLiteRepository) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]core.PaymentSubmission, error) {
	query := `SELECT id, project_id, installment_number, amount_cents, receipt_url,
	                 status, submitted_by, submitted_at, reviewed_at, review_notes
	          FROM submissions WHERE 1=1`
	var args []any
	if filter.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY submitted_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	defer rows.Close()

	var subs []core.PaymentSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (core.PaymentSubmission, error) {
	var (
		sub         core.PaymentSubmission
		submittedAt sql.NullString
		reviewedAt  sql.NullString
		notes       sql.NullString
	)
	err := row.Scan(&sub.ID, &sub.ProjectID, &sub.InstallmentNumber, &sub.Amount.Cents,
		&sub.ReceiptURL, &sub.Status, &sub.SubmittedBy, &submittedAt, &reviewedAt, &notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.PaymentSubmission{}, err
		}
		return core.PaymentSubmission{}, fmt.Errorf("scan submission: %w", err)
	}
	if sub.SubmittedAt, err = decodeTime(submittedAt); err != nil {
		return core.PaymentSubmission{}, err
	}
	if sub.ReviewedAt, err = decodeTime(reviewedAt); err != nil {
		return core.PaymentSubmission{}, err
	}
	sub.ReviewNotes = notes.String
	return sub, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
