package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cuotas/internal/cache"
	"cuotas/internal/core"
	"cuotas/internal/storage"
)

// monthlyCacheTTL bounds how stale the cached all-time report may be.
const monthlyCacheTTL = 30 * time.Second

// ReportExporter appends a rendered report to an external destination
// (the shared Google spreadsheet). Nil disables export.
type ReportExporter interface {
	AppendMonthlyReport(ctx context.Context, points []core.FinancialPoint, summary core.ReportSummary) error
}

// FinancialReport is a point sequence plus its headline summary.
type FinancialReport struct {
	Points  []core.FinancialPoint
	Summary core.ReportSummary
}

// ReportService merges the transaction ledger and approved payment
// submissions into bucketed financial reports.
type ReportService struct {
	storage  *storage.SQLiteRepository
	exporter ReportExporter
	monthly  *cache.LRU[FinancialReport]
}

func NewReportService(storage *storage.SQLiteRepository, exporter ReportExporter) *ReportService {
	return &ReportService{
		storage:  storage,
		exporter: exporter,
		monthly:  cache.New[FinancialReport](1, monthlyCacheTTL),
	}
}

// fetchInputs loads approved transactions and approved submissions, the
// two independent report inputs, concurrently.
func (s *ReportService) fetchInputs(ctx context.Context) ([]core.Transaction, []core.PaymentSubmission, error) {
	var (
		txs  []core.Transaction
		subs []core.PaymentSubmission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.storage.ListTransactions(gctx, storage.TransactionFilter{Status: core.TransactionApproved})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		subs, err = s.storage.ListSubmissions(gctx, storage.SubmissionFilter{Status: core.SubmissionApproved})
		if err != nil {
			return fmt.Errorf("list submissions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, subs, nil
}

// Monthly builds the all-time month-bucketed report: every month with at
// least one approved record, in ascending order. The result is cached
// for a short TTL since it scans the whole ledger.
func (s *ReportService) Monthly(ctx context.Context) (FinancialReport, error) {
	if report, ok := s.monthly.Get("monthly"); ok {
		return report, nil
	}

	txs, subs, err := s.fetchInputs(ctx)
	if err != nil {
		return FinancialReport{}, err
	}

	points := core.AggregateMonthly(txs, subs)
	report := FinancialReport{Points: points, Summary: core.Summarize(points)}
	s.monthly.Set("monthly", report)
	return report, nil
}

// Daily builds the ranged day-bucketed report with zero-filled days, for
// the interactive chart.
func (s *ReportService) Daily(ctx context.Context, start, end core.Date) (FinancialReport, error) {
	if start.IsEmpty() || end.IsEmpty() {
		return FinancialReport{}, &core.ValidationError{Problems: []string{"start and end dates are required"}}
	}
	if start.After(end.Time) {
		return FinancialReport{}, &core.ValidationError{Problems: []string{"start date is after end date"}}
	}

	txs, subs, err := s.fetchInputs(ctx)
	if err != nil {
		return FinancialReport{}, err
	}

	points := core.AggregateDaily(txs, subs, start, end)
	return FinancialReport{Points: points, Summary: core.Summarize(points)}, nil
}

// ExportMonthly appends the current monthly report to the configured
// spreadsheet.
func (s *ReportService) ExportMonthly(ctx context.Context) (FinancialReport, error) {
	report, err := s.Monthly(ctx)
	if err != nil {
		return FinancialReport{}, err
	}
	if s.exporter == nil {
		return FinancialReport{}, fmt.Errorf("report export is not configured")
	}
	if err := s.exporter.AppendMonthlyReport(ctx, report.Points, report.Summary); err != nil {
		return FinancialReport{}, fmt.Errorf("export monthly report: %w", err)
	}

	slog.InfoContext(ctx, "Monthly report exported", "buckets", len(report.Points))
	return report, nil
}
