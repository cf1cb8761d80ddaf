package http

import (
	"net/http"

	"cuotas/internal/core"
	"cuotas/internal/storage"
)

type transactionRequest struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Status      string `json:"status,omitempty"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	Description string `json:"description,omitempty"`
}

func (req transactionRequest) toDomain() (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Type:        core.TransactionType(req.Type),
		Category:    req.Category,
		Amount:      amount,
		Date:        date,
		Status:      core.TransactionStatus(req.Status),
		ReceiptURL:  req.ReceiptURL,
		Description: req.Description,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, _ caller) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	created, err := s.transactions.Record(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, _ caller) {
	tx, err := s.transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, _ caller) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	tx.ID = r.PathValue("id")

	updated, err := s.transactions.Update(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, _ caller) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, _ caller) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	filter := storage.TransactionFilter{
		Status: core.TransactionStatus(q.Get("status")),
		Type:   core.TransactionType(q.Get("type")),
		From:   from,
		To:     to,
	}

	txs, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}
