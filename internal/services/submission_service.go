// Package services orchestrates the ledger operations across storage and
// the notification queue. Business invariants live in core and in the
// storage transactions; this layer sequences them and fires side effects.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cuotas/internal/amqp"
	"cuotas/internal/core"
	"cuotas/internal/storage"
)

// Notifier publishes fire-and-forget notification messages. A nil
// Notifier disables dispatch without failing any operation.
type Notifier interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// SubmissionService owns the payment submission lifecycle:
// pending on submit, exactly one transition to approved or rejected.
type SubmissionService struct {
	storage  *storage.SQLiteRepository
	notifier Notifier
	now      func() time.Time
}

func NewSubmissionService(storage *storage.SQLiteRepository, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		storage:  storage,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitParams carries a client/collaborator payment claim. AdminIDs is
// supplied by the caller (role lookup is the identity collaborator's
// job); each admin gets one review notification.
type SubmitParams struct {
	ProjectID         string
	InstallmentNumber int
	Amount            core.Money
	ReceiptURL        string
	SubmittedBy       string
	AdminIDs          []string
}

func (p SubmitParams) validate() error {
	var problems []string
	if p.ProjectID == "" {
		problems = append(problems, "project id is required")
	}
	if p.InstallmentNumber < 1 {
		problems = append(problems, "installment number must be positive")
	}
	if p.Amount.Cents <= 0 {
		problems = append(problems, "amount must be positive")
	}
	if strings.TrimSpace(p.ReceiptURL) == "" {
		problems = append(problems, "receipt url is required")
	}
	if p.SubmittedBy == "" {
		problems = append(problems, "submitter id is required")
	}
	if len(problems) > 0 {
		return &core.ValidationError{Problems: problems}
	}
	return nil
}

// Submit creates a pending submission for an unpaid installment. An
// installment that is already paid or already has a pending submission
// yields core.ErrConflict from storage, untouched.
func (s *SubmissionService) Submit(ctx context.Context, params SubmitParams) (core.PaymentSubmission, error) {
	if err := params.validate(); err != nil {
		return core.PaymentSubmission{}, err
	}

	project, err := s.storage.GetProject(ctx, params.ProjectID)
	if err != nil {
		return core.PaymentSubmission{}, err
	}

	sub, err := s.storage.CreateSubmission(ctx, core.PaymentSubmission{
		ProjectID:         params.ProjectID,
		InstallmentNumber: params.InstallmentNumber,
		Amount:            params.Amount,
		ReceiptURL:        params.ReceiptURL,
		SubmittedBy:       params.SubmittedBy,
		SubmittedAt:       s.now(),
	})
	if err != nil {
		return core.PaymentSubmission{}, err
	}

	for _, adminID := range params.AdminIDs {
		s.publish(ctx, amqp.NewNotificationMessage(
			adminID,
			amqp.KindPaymentSubmitted,
			"Nuevo pago por revisar",
			fmt.Sprintf("Payment of %s submitted for installment %d of %s",
				sub.Amount, sub.InstallmentNumber, project.Name),
			map[string]any{
				"project_id":         project.ID,
				"project_name":       project.Name,
				"submission_id":      sub.ID,
				"installment_number": sub.InstallmentNumber,
				"amount":             sub.Amount.String(),
			}))
	}

	return sub, nil
}

// Approve transitions a pending submission to approved and marks its
// installment paid in the same storage transaction, then notifies the
// submitter. A non-pending submission yields core.ErrInvalidState.
func (s *SubmissionService) Approve(ctx context.Context, submissionID string) (core.PaymentSubmission, error) {
	sub, err := s.storage.ApproveSubmission(ctx, submissionID, s.now())
	if err != nil {
		return core.PaymentSubmission{}, err
	}

	s.publish(ctx, amqp.NewNotificationMessage(
		sub.SubmittedBy,
		amqp.KindPaymentApproved,
		"Pago aprobado",
		fmt.Sprintf("Your payment of %s for installment %d was approved",
			sub.Amount, sub.InstallmentNumber),
		map[string]any{
			"project_id":         sub.ProjectID,
			"submission_id":      sub.ID,
			"installment_number": sub.InstallmentNumber,
			"amount":             sub.Amount.String(),
		}))

	return sub, nil
}

// Reject transitions a pending submission to rejected with notes; the
// installment stays unpaid and a new submission becomes possible.
func (s *SubmissionService) Reject(ctx context.Context, submissionID, notes string) (core.PaymentSubmission, error) {
	sub, err := s.storage.RejectSubmission(ctx, submissionID, notes, s.now())
	if err != nil {
		return core.PaymentSubmission{}, err
	}

	message := fmt.Sprintf("Your payment for installment %d was rejected", sub.InstallmentNumber)
	if notes != "" {
		message += ": " + notes
	}
	s.publish(ctx, amqp.NewNotificationMessage(
		sub.SubmittedBy,
		amqp.KindPaymentRejected,
		"Pago rechazado",
		message,
		map[string]any{
			"project_id":         sub.ProjectID,
			"submission_id":      sub.ID,
			"installment_number": sub.InstallmentNumber,
			"review_notes":       notes,
		}))

	return sub, nil
}

// PendingQueue lists submissions awaiting review, for the admin queue.
func (s *SubmissionService) PendingQueue(ctx context.Context) ([]core.PaymentSubmission, error) {
	return s.storage.ListSubmissions(ctx, storage.SubmissionFilter{Status: core.SubmissionPending})
}

// ProjectHistory lists every submission of one project.
func (s *SubmissionService) ProjectHistory(ctx context.Context, projectID string) ([]core.PaymentSubmission, error) {
	return s.storage.ListSubmissions(ctx, storage.SubmissionFilter{ProjectID: projectID})
}

// All lists every submission system-wide, for the finance report.
func (s *SubmissionService) All(ctx context.Context) ([]core.PaymentSubmission, error) {
	return s.storage.ListSubmissions(ctx, storage.SubmissionFilter{})
}

// Get loads one submission.
func (s *SubmissionService) Get(ctx context.Context, id string) (core.PaymentSubmission, error) {
	return s.storage.GetSubmission(ctx, id)
}

// publish sends a notification best-effort: the ledger write already
// committed, so a queue failure is logged and swallowed rather than
// failing the request.
func (s *SubmissionService) publish(ctx context.Context, msg *amqp.NotificationMessage) {
	if s.notifier == nil {
		slog.WarnContext(ctx, "Notifier not available, skipping notification",
			"kind", msg.Kind, "user_id", msg.UserID)
		return
	}
	if err := s.notifier.PublishNotification(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish notification",
			"error", err, "kind", msg.Kind, "user_id", msg.UserID)
	}
}
