package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cuotas/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedProject(t *testing.T, repo *SQLiteRepository, budgetCents int64, count int) core.Project {
	t.Helper()
	budget := core.Money{Cents: budgetCents}
	p := core.Project{
		Name:         "Acme rebrand",
		Budget:       budget,
		Installments: core.GeneratePlan(budget, count, core.Date{}, core.NewDate(2025, 1, 15), nil),
	}
	created, err := repo.CreateProject(context.Background(), p)
	require.NoError(t, err)
	return created
}

func TestProjectRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedProject(t, repo, 100000, 3)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme rebrand", got.Name)
	assert.Equal(t, int64(100000), got.Budget.Cents)
	require.Len(t, got.Installments, 3)
	assert.Equal(t, int64(33334), got.Installments[2].Amount.Cents)
	assert.False(t, got.Installments[0].Paid)

	_, err = repo.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReplaceInstallments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := seedProject(t, repo, 100000, 3)

	// Approve a payment for installment 2 so its paid flag is set.
	sub, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
		ProjectID:         p.ID,
		InstallmentNumber: 2,
		Amount:            core.Money{Cents: 33333},
		ReceiptURL:        "https://files/r1.pdf",
		SubmittedBy:       "client-1",
		SubmittedAt:       time.Now(),
	})
	require.NoError(t, err)
	_, err = repo.ApproveSubmission(ctx, sub.ID, time.Now())
	require.NoError(t, err)

	// Regenerate with a new budget; the planner carries the paid flag.
	current, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	newBudget := core.Money{Cents: 200000}
	plan := core.GeneratePlan(newBudget, 4, core.Date{}, core.NewDate(2025, 6, 1), current.Installments)
	require.NoError(t, repo.ReplaceInstallments(ctx, p.ID, newBudget, core.Date{}, plan))

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Installments, 4)
	assert.True(t, got.Installments[1].Paid, "paid flag must survive regeneration")
	assert.Equal(t, int64(200000), got.Budget.Cents)

	err = repo.ReplaceInstallments(ctx, "missing", newBudget, core.Date{}, plan)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubmissionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProject(t, repo, 100000, 3)

	sub, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
		ProjectID:         p.ID,
		InstallmentNumber: 2,
		Amount:            core.Money{Cents: 50000},
		ReceiptURL:        "https://files/r1.pdf",
		SubmittedBy:       "client-1",
		SubmittedAt:       time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.SubmissionPending, sub.Status)

	t.Run("duplicate pending conflicts", func(t *testing.T) {
		_, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
			ProjectID:         p.ID,
			InstallmentNumber: 2,
			Amount:            core.Money{Cents: 50000},
			ReceiptURL:        "https://files/r2.pdf",
			SubmittedBy:       "client-2",
			SubmittedAt:       time.Now(),
		})
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("unknown installment", func(t *testing.T) {
		_, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
			ProjectID:         p.ID,
			InstallmentNumber: 9,
			Amount:            core.Money{Cents: 100},
			ReceiptURL:        "https://files/r3.pdf",
			SubmittedBy:       "client-1",
			SubmittedAt:       time.Now(),
		})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	reviewedAt := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	approved, err := repo.ApproveSubmission(ctx, sub.ID, reviewedAt)
	require.NoError(t, err)
	assert.Equal(t, core.SubmissionApproved, approved.Status)

	t.Run("approve marks installment paid atomically", func(t *testing.T) {
		got, err := repo.GetProject(ctx, p.ID)
		require.NoError(t, err)
		inst, ok := got.InstallmentByNumber(2)
		require.True(t, ok)
		assert.True(t, inst.Paid)

		stored, err := repo.GetSubmission(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, core.SubmissionApproved, stored.Status)
		assert.False(t, stored.ReviewedAt.IsZero())
	})

	t.Run("review is terminal", func(t *testing.T) {
		_, err := repo.ApproveSubmission(ctx, sub.ID, time.Now())
		assert.ErrorIs(t, err, core.ErrInvalidState)
		_, err = repo.RejectSubmission(ctx, sub.ID, "tarde", time.Now())
		assert.ErrorIs(t, err, core.ErrInvalidState)

		// Fields unchanged after the failed transitions.
		stored, err := repo.GetSubmission(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, core.SubmissionApproved, stored.Status)
		assert.Empty(t, stored.ReviewNotes)
	})

	t.Run("paid installment rejects new submissions", func(t *testing.T) {
		_, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
			ProjectID:         p.ID,
			InstallmentNumber: 2,
			Amount:            core.Money{Cents: 100},
			ReceiptURL:        "https://files/r4.pdf",
			SubmittedBy:       "client-1",
			SubmittedAt:       time.Now(),
		})
		assert.ErrorIs(t, err, core.ErrConflict)
	})
}

func TestRejectSubmissionLeavesInstallmentUnpaid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProject(t, repo, 100000, 3)

	sub, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
		ProjectID:         p.ID,
		InstallmentNumber: 2,
		Amount:            core.Money{Cents: 50000},
		ReceiptURL:        "https://files/r1.pdf",
		SubmittedBy:       "client-1",
		SubmittedAt:       time.Now(),
	})
	require.NoError(t, err)

	rejected, err := repo.RejectSubmission(ctx, sub.ID, "recibo ilegible", time.Now())
	require.NoError(t, err)
	assert.Equal(t, core.SubmissionRejected, rejected.Status)
	assert.Equal(t, "recibo ilegible", rejected.ReviewNotes)

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	inst, _ := got.InstallmentByNumber(2)
	assert.False(t, inst.Paid)

	// The rejection frees the slot for a new submission.
	_, err = repo.CreateSubmission(ctx, core.PaymentSubmission{
		ProjectID:         p.ID,
		InstallmentNumber: 2,
		Amount:            core.Money{Cents: 50000},
		ReceiptURL:        "https://files/r2.pdf",
		SubmittedBy:       "client-1",
		SubmittedAt:       time.Now(),
	})
	assert.NoError(t, err)
}

func TestListSubmissionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p1 := seedProject(t, repo, 100000, 3)
	p2 := seedProject(t, repo, 60000, 2)

	mk := func(project core.Project, number int) core.PaymentSubmission {
		sub, err := repo.CreateSubmission(ctx, core.PaymentSubmission{
			ProjectID:         project.ID,
			InstallmentNumber: number,
			Amount:            core.Money{Cents: 1000},
			ReceiptURL:        "https://files/r.pdf",
			SubmittedBy:       "client-1",
			SubmittedAt:       time.Now(),
		})
		require.NoError(t, err)
		return sub
	}

	s1 := mk(p1, 1)
	mk(p1, 2)
	mk(p2, 1)
	_, err := repo.ApproveSubmission(ctx, s1.ID, time.Now())
	require.NoError(t, err)

	all, err := repo.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := repo.ListSubmissions(ctx, SubmissionFilter{Status: core.SubmissionPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byProject, err := repo.ListSubmissions(ctx, SubmissionFilter{ProjectID: p1.ID})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)
}

func TestTransactionCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:     core.Expense,
		Category: "software",
		Amount:   core.Money{Cents: 2999},
		Date:     core.NewDate(2025, 1, 2),
		Status:   core.TransactionApproved,
	})
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, "2025-01-02", got.Date.DayKey())

	got.Amount = core.Money{Cents: 3999}
	got.Status = core.TransactionPending
	require.NoError(t, repo.UpdateTransaction(ctx, got))

	updated, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3999), updated.Amount.Cents)
	assert.Equal(t, core.TransactionPending, updated.Status)

	require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
	_, err = repo.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.True(t, errors.Is(repo.DeleteTransaction(ctx, tx.ID), core.ErrNotFound))
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{Type: core.Income, Category: "retainer", Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 1, 5), Status: core.TransactionApproved},
		{Type: core.Expense, Category: "hosting", Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 1, 20), Status: core.TransactionApproved},
		{Type: core.Expense, Category: "travel", Amount: core.Money{Cents: 20000}, Date: core.NewDate(2025, 2, 10), Status: core.TransactionPending},
	}
	for _, tx := range seed {
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	approved, err := repo.ListTransactions(ctx, TransactionFilter{Status: core.TransactionApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	january, err := repo.ListTransactions(ctx, TransactionFilter{
		From: core.NewDate(2025, 1, 1),
		To:   core.NewDate(2025, 1, 31),
	})
	require.NoError(t, err)
	assert.Len(t, january, 2)

	expenses, err := repo.ListTransactions(ctx, TransactionFilter{Type: core.Expense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestNotificationInbox(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateNotification(ctx, core.Notification{
		UserID:  "admin-1",
		Kind:    "payment_submitted",
		Title:   "Nuevo pago",
		Message: "Installment 2 submitted",
		Payload: `{"project_id":"p1"}`,
	})
	require.NoError(t, err)
	_, err = repo.CreateNotification(ctx, core.Notification{
		UserID:  "admin-1",
		Kind:    "payment_approved",
		Title:   "Pago aprobado",
		Message: "Installment 2 approved",
	})
	require.NoError(t, err)

	all, err := repo.ListNotifications(ctx, "admin-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.MarkNotificationRead(ctx, id))
	unread, err := repo.ListNotifications(ctx, "admin-1", true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	other, err := repo.ListNotifications(ctx, "someone-else", false)
	require.NoError(t, err)
	assert.Empty(t, other)
}
