package services

import (
	"context"
	"testing"
	"time"

	"cuotas/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	calls   int
	points  []core.FinancialPoint
	summary core.ReportSummary
}

func (f *fakeExporter) AppendMonthlyReport(_ context.Context, points []core.FinancialPoint, summary core.ReportSummary) error {
	f.calls++
	f.points = points
	f.summary = summary
	return nil
}

func seedLedger(t *testing.T) (*ReportService, *fakeExporter) {
	t.Helper()
	repo := newTestStorage(t)
	txs := NewTransactionService(repo)
	subs := NewSubmissionService(repo, nil)
	reviewedAt := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	subs.now = func() time.Time { return reviewedAt }

	ctx := context.Background()
	_, err := txs.Record(ctx, core.Transaction{
		Type: core.Income, Category: "retainer",
		Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 1, 5),
	})
	require.NoError(t, err)
	_, err = txs.Record(ctx, core.Transaction{
		Type: core.Expense, Category: "hosting",
		Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 1, 8),
	})
	require.NoError(t, err)
	_, err = txs.Record(ctx, core.Transaction{
		Type: core.Expense, Category: "travel", Status: core.TransactionPending,
		Amount: core.Money{Cents: 77700}, Date: core.NewDate(2025, 1, 9),
	})
	require.NoError(t, err)

	// One approved and one still-pending payment submission.
	project := newTestProject(t, repo, 100000, 2)
	s1, err := subs.Submit(ctx, SubmitParams{
		ProjectID: project.ID, InstallmentNumber: 1,
		Amount: core.Money{Cents: 50000}, ReceiptURL: "https://files/r1.pdf", SubmittedBy: "client-1",
	})
	require.NoError(t, err)
	_, err = subs.Approve(ctx, s1.ID)
	require.NoError(t, err)
	_, err = subs.Submit(ctx, SubmitParams{
		ProjectID: project.ID, InstallmentNumber: 2,
		Amount: core.Money{Cents: 50000}, ReceiptURL: "https://files/r2.pdf", SubmittedBy: "client-1",
	})
	require.NoError(t, err)

	exporter := &fakeExporter{}
	return NewReportService(repo, exporter), exporter
}

func TestMonthlyReport(t *testing.T) {
	svc, _ := seedLedger(t)

	report, err := svc.Monthly(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Points, 1)
	p := report.Points[0]
	assert.Equal(t, "2025-01", p.Bucket)
	assert.Equal(t, int64(150000), p.Income.Cents, "income transaction + approved submission")
	assert.Equal(t, int64(5000), p.Expense.Cents, "pending expense excluded")
	assert.Equal(t, int64(145000), report.Summary.NetProfit.Cents)
}

func TestDailyReport(t *testing.T) {
	svc, _ := seedLedger(t)

	report, err := svc.Daily(context.Background(), core.NewDate(2025, 1, 4), core.NewDate(2025, 1, 6))
	require.NoError(t, err)

	require.Len(t, report.Points, 3)
	assert.Equal(t, int64(0), report.Points[0].Income.Cents)
	assert.Equal(t, int64(100000), report.Points[1].Income.Cents)
	assert.Equal(t, int64(0), report.Points[2].Income.Cents)
	assert.Equal(t, int64(100000), report.Summary.TotalIncome.Cents)
}

func TestDailyReportValidatesRange(t *testing.T) {
	svc, _ := seedLedger(t)

	_, err := svc.Daily(context.Background(), core.Date{}, core.NewDate(2025, 1, 6))
	_, ok := core.AsValidation(err)
	assert.True(t, ok)

	_, err = svc.Daily(context.Background(), core.NewDate(2025, 2, 1), core.NewDate(2025, 1, 1))
	_, ok = core.AsValidation(err)
	assert.True(t, ok)
}

func TestExportMonthly(t *testing.T) {
	svc, exporter := seedLedger(t)

	report, err := svc.ExportMonthly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exporter.calls)
	assert.Equal(t, report.Points, exporter.points)
	assert.Equal(t, report.Summary, exporter.summary)
}

func TestExportMonthlyUnconfigured(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewReportService(repo, nil)

	_, err := svc.ExportMonthly(context.Background())
	assert.Error(t, err)
}
