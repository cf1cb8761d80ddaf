package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Type:     Expense,
		Category: "hosting",
		Amount:   Money{Cents: 1500},
		Date:     NewDate(2025, 1, 10),
		Status:   TransactionApproved,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }},
		{"bad status", func(tx *Transaction) { tx.Status = "draft" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			if err := tx.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSubmissionStatusTerminal(t *testing.T) {
	if SubmissionPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !SubmissionApproved.Terminal() || !SubmissionRejected.Terminal() {
		t.Error("approved and rejected are terminal")
	}
}

func TestSubmissionEffectiveDate(t *testing.T) {
	s := PaymentSubmission{
		SubmittedAt: time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC),
	}
	if got := s.EffectiveDate(); got.DayKey() != "2025-01-05" {
		t.Errorf("unreviewed submission effective date = %s", got.DayKey())
	}
	s.ReviewedAt = time.Date(2025, 2, 1, 16, 30, 0, 0, time.UTC)
	if got := s.EffectiveDate(); got.DayKey() != "2025-02-01" {
		t.Errorf("reviewed submission effective date = %s", got.DayKey())
	}
}

func TestProjectInstallmentLookup(t *testing.T) {
	p := Project{
		Installments: []Installment{
			{Number: 1, Amount: Money{Cents: 50000}, Paid: true},
			{Number: 2, Amount: Money{Cents: 50000}},
		},
	}
	if _, ok := p.InstallmentByNumber(2); !ok {
		t.Error("installment 2 should exist")
	}
	if _, ok := p.InstallmentByNumber(3); ok {
		t.Error("installment 3 should not exist")
	}
	if p.PaidTotal().Cents != 50000 {
		t.Errorf("paid total = %d", p.PaidTotal().Cents)
	}
	if p.OutstandingTotal().Cents != 50000 {
		t.Errorf("outstanding total = %d", p.OutstandingTotal().Cents)
	}
}
