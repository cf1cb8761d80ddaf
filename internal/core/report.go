package core

import (
	"sort"
	"time"
)

// FinancialPoint is one time bucket of the reconciled report: manually
// recorded transactions plus approved payment submissions, merged without
// double counting. Derived, never persisted.
type FinancialPoint struct {
	Bucket  string
	Income  Money
	Expense Money
}

// Net returns income minus expense for the bucket.
func (p FinancialPoint) Net() Money {
	return p.Income.Sub(p.Expense)
}

// ReportSummary holds the headline figures derived from a point sequence.
type ReportSummary struct {
	TotalIncome  Money
	TotalExpense Money
	NetProfit    Money
	Trend        Money
}

// EffectiveDate returns the calendar day a submission's money is
// considered received: the review day when reviewed, otherwise the
// submission day.
func (s PaymentSubmission) EffectiveDate() Date {
	if !s.ReviewedAt.IsZero() {
		return DateOf(s.ReviewedAt)
	}
	return DateOf(s.SubmittedAt)
}

// AggregateMonthly merges transactions and approved submissions into
// ascending YYYY-MM buckets. Only months with at least one contributing
// record appear; this feeds the all-time dashboard trend where empty
// months before the first record would be noise.
//
// Only approved transactions and approved submissions contribute.
// Transactions add to income or expense by type; submissions add to
// income only, in the bucket of their effective date.
func AggregateMonthly(transactions []Transaction, submissions []PaymentSubmission) []FinancialPoint {
	buckets := make(map[string]*FinancialPoint)

	accumulate(buckets, transactions, submissions, Date.MonthKey, nil)

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]FinancialPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, *buckets[k])
	}
	return points
}

// AggregateDaily merges transactions and approved submissions into
// YYYY-MM-DD buckets over the inclusive [start, end] range. Every day in
// range is present, zero-filled when idle, so a chart over the result is
// continuous; records outside the range are dropped.
func AggregateDaily(transactions []Transaction, submissions []PaymentSubmission, start, end Date) []FinancialPoint {
	buckets := make(map[string]*FinancialPoint)

	var keys []string
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		k := d.DayKey()
		buckets[k] = &FinancialPoint{Bucket: k}
		keys = append(keys, k)
	}

	inRange := func(k string) bool {
		_, ok := buckets[k]
		return ok
	}
	accumulate(buckets, transactions, submissions, Date.DayKey, inRange)

	points := make([]FinancialPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, *buckets[k])
	}
	return points
}

// accumulate adds every approved record to its bucket, creating buckets
// on demand unless an inRange filter restricts the key set.
func accumulate(buckets map[string]*FinancialPoint, transactions []Transaction, submissions []PaymentSubmission, key func(Date) string, inRange func(string) bool) {
	bucket := func(k string) *FinancialPoint {
		if inRange != nil && !inRange(k) {
			return nil
		}
		p, ok := buckets[k]
		if !ok {
			p = &FinancialPoint{Bucket: k}
			buckets[k] = p
		}
		return p
	}

	for _, tx := range transactions {
		if tx.Status != TransactionApproved {
			continue
		}
		p := bucket(key(tx.Date))
		if p == nil {
			continue
		}
		switch tx.Type {
		case Income:
			p.Income = p.Income.Add(tx.Amount)
		case Expense:
			p.Expense = p.Expense.Add(tx.Amount)
		}
	}

	for _, sub := range submissions {
		if sub.Status != SubmissionApproved {
			continue
		}
		p := bucket(key(sub.EffectiveDate()))
		if p == nil {
			continue
		}
		p.Income = p.Income.Add(sub.Amount)
	}
}

// Summarize derives the headline totals and a two-half trend from an
// ordered point sequence. The trend is Σnet of the second half minus
// Σnet of the first half, split at the floor midpoint; a coarse
// direction indicator, not a regression.
func Summarize(points []FinancialPoint) ReportSummary {
	var s ReportSummary
	mid := len(points) / 2

	var firstNet, secondNet int64
	for i, p := range points {
		s.TotalIncome = s.TotalIncome.Add(p.Income)
		s.TotalExpense = s.TotalExpense.Add(p.Expense)
		if i < mid {
			firstNet += p.Net().Cents
		} else {
			secondNet += p.Net().Cents
		}
	}
	s.NetProfit = s.TotalIncome.Sub(s.TotalExpense)
	s.Trend = Money{Cents: secondNet - firstNet}
	return s
}

// MonthStart returns the first day of t's month in UTC. Used by callers
// seeding default report ranges.
func MonthStart(t time.Time) Date {
	y, m, _ := t.UTC().Date()
	return NewDate(y, int(m), 1)
}
