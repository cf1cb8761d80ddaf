// Package http exposes the ledger as a JSON API for the surrounding
// back office. Authentication happens upstream; the shell forwards the
// caller's identity in X-User-ID and X-User-Role headers and this layer
// only gates operations by role.
package http

import (
	"net/http"
	"time"

	"cuotas/internal/middleware/ratelimit"
	"cuotas/internal/middleware/trace"
	"cuotas/internal/services"
	"cuotas/internal/storage"
)

type Server struct {
	http.Server

	projects     *services.ProjectService
	submissions  *services.SubmissionService
	transactions *services.TransactionService
	reports      *services.ReportService
	storage      *storage.SQLiteRepository
}

func NewServer(addr string,
	projects *services.ProjectService,
	submissions *services.SubmissionService,
	transactions *services.TransactionService,
	reports *services.ReportService,
	storage *storage.SQLiteRepository,
) *Server {
	s := &Server{
		projects:     projects,
		submissions:  submissions,
		transactions: transactions,
		reports:      reports,
		storage:      storage,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/projects", s.requireRole(s.handleCreateProject, adminOnly))
	mux.HandleFunc("GET /api/projects", s.requireRole(s.handleListProjects, anyRole))
	mux.HandleFunc("GET /api/projects/{id}", s.requireRole(s.handleGetProject, anyRole))
	mux.HandleFunc("PUT /api/projects/{id}/plan", s.requireRole(s.handleRegeneratePlan, adminOnly))
	mux.HandleFunc("PUT /api/projects/{id}/installments", s.requireRole(s.handleEditInstallments, adminOnly))
	mux.HandleFunc("GET /api/projects/{id}/submissions", s.requireRole(s.handleProjectSubmissions, anyRole))

	// Submissions are the one surface open to clients, so they carry a
	// per-caller rate limit.
	submitLimiter := ratelimit.New(30, time.Minute)
	mux.Handle("POST /api/submissions",
		submitLimiter.Middleware(callerKey)(s.requireRole(s.handleSubmit, anyRole)))
	mux.HandleFunc("GET /api/submissions", s.requireRole(s.handleListSubmissions, adminOnly))
	mux.HandleFunc("POST /api/submissions/{id}/approve", s.requireRole(s.handleApprove, adminOnly))
	mux.HandleFunc("POST /api/submissions/{id}/reject", s.requireRole(s.handleReject, adminOnly))

	mux.HandleFunc("POST /api/transactions", s.requireRole(s.handleCreateTransaction, adminOnly))
	mux.HandleFunc("GET /api/transactions", s.requireRole(s.handleListTransactions, adminOnly))
	mux.HandleFunc("GET /api/transactions/{id}", s.requireRole(s.handleGetTransaction, adminOnly))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireRole(s.handleUpdateTransaction, adminOnly))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireRole(s.handleDeleteTransaction, adminOnly))

	mux.HandleFunc("GET /api/reports/monthly", s.requireRole(s.handleMonthlyReport, adminOnly))
	mux.HandleFunc("GET /api/reports/daily", s.requireRole(s.handleDailyReport, adminOnly))
	mux.HandleFunc("POST /api/reports/export", s.requireRole(s.handleExportReport, adminOnly))

	mux.HandleFunc("GET /api/notifications", s.requireRole(s.handleListNotifications, anyRole))
	mux.HandleFunc("POST /api/notifications/{id}/read", s.requireRole(s.handleMarkNotificationRead, anyRole))

	s.Addr = addr
	s.Handler = trace.Middleware(mux)
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// callerKey buckets rate limiting by forwarded identity, falling back
// to the network peer for anonymous requests.
func callerKey(r *http.Request) string {
	if id := r.Header.Get(headerUserID); id != "" {
		return id
	}
	return r.RemoteAddr
}
