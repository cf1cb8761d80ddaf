package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"

	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	TransactionApproved TransactionStatus = "approved"
	TransactionPending  TransactionStatus = "pending"

	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleClient       Role = "client"
)

type (
	SubmissionStatus  string
	TransactionType   string
	TransactionStatus string
	Role              string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Installment is one scheduled partial payment of a project's budget.
	// It is owned exclusively by its Project; Paid is the only field that
	// changes after generation, and only through an approved submission.
	Installment struct {
		Number  int
		Amount  Money
		DueDate Date
		Paid    bool
	}

	Project struct {
		ID           string
		Name         string
		Budget       Money // zero cents = no budget set
		Deadline     Date  // zero = no deadline
		Installments []Installment
	}

	// PaymentSubmission is a claim that an installment has been paid,
	// pending admin review. Terminal states are approved and rejected.
	PaymentSubmission struct {
		ID                string
		ProjectID         string
		InstallmentNumber int
		Amount            Money
		ReceiptURL        string
		Status            SubmissionStatus
		SubmittedBy       string
		SubmittedAt       time.Time
		ReviewedAt        time.Time // zero until reviewed
		ReviewNotes       string
	}

	// Transaction is a manually recorded income or expense entry,
	// independent of the installment ledger.
	Transaction struct {
		ID          string
		Type        TransactionType
		Category    string
		Amount      Money
		Date        Date
		Status      TransactionStatus
		ReceiptURL  string
		Description string
	}

	Notification struct {
		ID        int64
		UserID    string
		Kind      string
		Title     string
		Message   string
		Payload   string // JSON payload, opaque to storage
		Read      bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyReceiptURL = errors.New("empty receipt url")
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Terminal reports whether the submission state machine accepts no
// further transitions from s.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCollaborator, RoleClient:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty returns true for the zero date (optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths returns the date n months later.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.Time.AddDate(0, n, 0)}
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// MonthKey returns the YYYY-MM bucket key for d.
func (d Date) MonthKey() string {
	return d.Time.Format("2006-01")
}

// DayKey returns the YYYY-MM-DD bucket key for d.
func (d Date) DayKey() string {
	return d.Time.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Status != TransactionApproved && t.Status != TransactionPending {
		return errors.New("invalid transaction status")
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

// InstallmentByNumber returns the installment with the given number, if present.
func (p Project) InstallmentByNumber(number int) (Installment, bool) {
	for _, inst := range p.Installments {
		if inst.Number == number {
			return inst, true
		}
	}
	return Installment{}, false
}

// PaidTotal sums the amounts of installments already marked paid.
func (p Project) PaidTotal() Money {
	var cents int64
	for _, inst := range p.Installments {
		if inst.Paid {
			cents += inst.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// OutstandingTotal sums the amounts of installments not yet paid.
func (p Project) OutstandingTotal() Money {
	var cents int64
	for _, inst := range p.Installments {
		if !inst.Paid {
			cents += inst.Amount.Cents
		}
	}
	return Money{Cents: cents}
}
