package http

import (
	"net/http"

	"cuotas/internal/core"
	"cuotas/internal/services"
)

type submitRequest struct {
	ProjectID         string   `json:"project_id"`
	InstallmentNumber int      `json:"installment_number"`
	Amount            string   `json:"amount"`
	ReceiptURL        string   `json:"receipt_url"`
	AdminIDs          []string `json:"admin_ids,omitempty"`
}

type rejectRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, c caller) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid amount")
		return
	}

	sub, err := s.submissions.Submit(r.Context(), services.SubmitParams{
		ProjectID:         req.ProjectID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            amount,
		ReceiptURL:        req.ReceiptURL,
		SubmittedBy:       c.UserID,
		AdminIDs:          req.AdminIDs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmissionResponse(sub))
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request, _ caller) {
	var (
		subs []core.PaymentSubmission
		err  error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "", string(core.SubmissionPending):
		subs, err = s.submissions.PendingQueue(r.Context())
	case "all":
		subs, err = s.submissions.All(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "status must be pending or all")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionList(subs))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, _ caller) {
	sub, err := s.submissions.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, _ caller) {
	var req rejectRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}

	sub, err := s.submissions.Reject(r.Context(), r.PathValue("id"), req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}
