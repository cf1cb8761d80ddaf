package http

import (
	"time"

	"cuotas/internal/core"
	"cuotas/internal/services"
)

// Wire representations. Amounts travel as decimal strings ("333.34") so
// clients never touch cent arithmetic; dates are YYYY-MM-DD.

type installmentDTO struct {
	Number  int    `json:"number"`
	Amount  string `json:"amount"`
	DueDate string `json:"due_date,omitempty"`
	Paid    bool   `json:"paid"`
}

type projectResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Budget       string           `json:"budget,omitempty"`
	Deadline     string           `json:"deadline,omitempty"`
	PaidTotal    string           `json:"paid_total"`
	Outstanding  string           `json:"outstanding_total"`
	Installments []installmentDTO `json:"installments"`
}

type submissionResponse struct {
	ID                string `json:"id"`
	ProjectID         string `json:"project_id"`
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	ReceiptURL        string `json:"receipt_url"`
	Status            string `json:"status"`
	SubmittedBy       string `json:"submitted_by"`
	SubmittedAt       string `json:"submitted_at"`
	ReviewedAt        string `json:"reviewed_at,omitempty"`
	ReviewNotes       string `json:"review_notes,omitempty"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	Description string `json:"description,omitempty"`
}

type reportPointDTO struct {
	Bucket  string `json:"bucket"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type reportResponse struct {
	Points  []reportPointDTO `json:"points"`
	Summary struct {
		TotalIncome  string `json:"total_income"`
		TotalExpense string `json:"total_expense"`
		NetProfit    string `json:"net_profit"`
		Trend        string `json:"trend"`
	} `json:"summary"`
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Payload   string `json:"payload,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toProjectResponse(p core.Project) projectResponse {
	resp := projectResponse{
		ID:           p.ID,
		Name:         p.Name,
		PaidTotal:    p.PaidTotal().String(),
		Outstanding:  p.OutstandingTotal().String(),
		Installments: make([]installmentDTO, 0, len(p.Installments)),
	}
	if p.Budget.Cents > 0 {
		resp.Budget = p.Budget.String()
	}
	if !p.Deadline.IsEmpty() {
		resp.Deadline = p.Deadline.DayKey()
	}
	for _, inst := range p.Installments {
		dto := installmentDTO{
			Number: inst.Number,
			Amount: inst.Amount.String(),
			Paid:   inst.Paid,
		}
		if !inst.DueDate.IsEmpty() {
			dto.DueDate = inst.DueDate.DayKey()
		}
		resp.Installments = append(resp.Installments, dto)
	}
	return resp
}

func toSubmissionResponse(s core.PaymentSubmission) submissionResponse {
	resp := submissionResponse{
		ID:                s.ID,
		ProjectID:         s.ProjectID,
		InstallmentNumber: s.InstallmentNumber,
		Amount:            s.Amount.String(),
		ReceiptURL:        s.ReceiptURL,
		Status:            string(s.Status),
		SubmittedBy:       s.SubmittedBy,
		SubmittedAt:       s.SubmittedAt.UTC().Format(time.RFC3339),
		ReviewNotes:       s.ReviewNotes,
	}
	if !s.ReviewedAt.IsZero() {
		resp.ReviewedAt = s.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toSubmissionList(subs []core.PaymentSubmission) []submissionResponse {
	out := make([]submissionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubmissionResponse(s))
	}
	return out
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Category:    tx.Category,
		Amount:      tx.Amount.String(),
		Date:        tx.Date.DayKey(),
		Status:      string(tx.Status),
		ReceiptURL:  tx.ReceiptURL,
		Description: tx.Description,
	}
}

func toReportResponse(report services.FinancialReport) reportResponse {
	resp := reportResponse{Points: make([]reportPointDTO, 0, len(report.Points))}
	for _, p := range report.Points {
		resp.Points = append(resp.Points, reportPointDTO{
			Bucket:  p.Bucket,
			Income:  p.Income.String(),
			Expense: p.Expense.String(),
			Net:     p.Net().String(),
		})
	}
	resp.Summary.TotalIncome = report.Summary.TotalIncome.String()
	resp.Summary.TotalExpense = report.Summary.TotalExpense.String()
	resp.Summary.NetProfit = report.Summary.NetProfit.String()
	resp.Summary.Trend = report.Summary.Trend.String()
	return resp
}

func toNotificationResponse(n core.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
