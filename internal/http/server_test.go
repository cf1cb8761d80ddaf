package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuotas/internal/services"
	"cuotas/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	projects := services.NewProjectService(repo, 0)
	submissions := services.NewSubmissionService(repo, nil)
	transactions := services.NewTransactionService(repo)
	reports := services.NewReportService(repo, nil)
	return NewServer(":0", projects, submissions, transactions, reports, repo)
}

func doRequest(t *testing.T, s *Server, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(headerUserID, "user-1")
	if role != "" {
		req.Header.Set(headerRole, role)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func createTestProject(t *testing.T, s *Server) projectResponse {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/projects", "admin", map[string]any{
		"name":              "Sitio web Acme",
		"budget":            "1000.00",
		"installment_count": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[projectResponse](t, rec)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProjectGeneratesSchedule(t *testing.T) {
	s := newTestServer(t)
	project := createTestProject(t, s)

	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "1000.00", project.Budget)
	require.Len(t, project.Installments, 3)
	assert.Equal(t, "333.33", project.Installments[0].Amount)
	assert.Equal(t, "333.33", project.Installments[1].Amount)
	assert.Equal(t, "333.34", project.Installments[2].Amount)
	assert.Equal(t, "1000.00", project.Outstanding)
}

func TestCreateProjectRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/projects", "collaborator", map[string]any{
		"name": "Proyecto",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMissingIdentityRejected(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/projects/nope", "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "not_found", body.Error)
}

func TestSubmissionLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	project := createTestProject(t, s)

	rec := doRequest(t, s, http.MethodPost, "/api/submissions", "client", map[string]any{
		"project_id":         project.ID,
		"installment_number": 1,
		"amount":             "333.33",
		"receipt_url":        "https://files/r1.pdf",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decodeBody[submissionResponse](t, rec)
	assert.Equal(t, "pending", sub.Status)
	assert.Equal(t, "user-1", sub.SubmittedBy)

	// a second pending claim on the same installment is refused
	rec = doRequest(t, s, http.MethodPost, "/api/submissions", "client", map[string]any{
		"project_id":         project.ID,
		"installment_number": 1,
		"amount":             "333.33",
		"receipt_url":        "https://files/r2.pdf",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/submissions/"+sub.ID+"/approve", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decodeBody[submissionResponse](t, rec)
	assert.Equal(t, "approved", approved.Status)
	assert.NotEmpty(t, approved.ReviewedAt)

	// approving twice trips the state machine, not the conflict path
	rec = doRequest(t, s, http.MethodPost, "/api/submissions/"+sub.ID+"/approve", "admin", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "invalid_state", body.Error)

	rec = doRequest(t, s, http.MethodGet, "/api/projects/"+project.ID, "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[projectResponse](t, rec)
	assert.True(t, got.Installments[0].Paid)
	assert.Equal(t, "333.33", got.PaidTotal)
}

func TestRejectWithNotes(t *testing.T) {
	s := newTestServer(t)
	project := createTestProject(t, s)

	rec := doRequest(t, s, http.MethodPost, "/api/submissions", "collaborator", map[string]any{
		"project_id":         project.ID,
		"installment_number": 2,
		"amount":             "333.33",
		"receipt_url":        "https://files/r1.pdf",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decodeBody[submissionResponse](t, rec)

	rec = doRequest(t, s, http.MethodPost, "/api/submissions/"+sub.ID+"/reject", "admin", map[string]any{
		"notes": "recibo ilegible",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rejected := decodeBody[submissionResponse](t, rec)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "recibo ilegible", rejected.ReviewNotes)
}

func TestSubmitValidationProblems(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/submissions", "client", map[string]any{
		"project_id":         "",
		"installment_number": 0,
		"amount":             "10.00",
		"receipt_url":        "",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "validation_failed", body.Error)
	assert.NotEmpty(t, body.Problems)
}

func TestTransactionCRUDOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions", "admin", map[string]any{
		"type":     "expense",
		"category": "hosting",
		"amount":   "50.00",
		"date":     "2025-01-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	tx := decodeBody[transactionResponse](t, rec)
	assert.Equal(t, "approved", tx.Status)

	rec = doRequest(t, s, http.MethodPut, "/api/transactions/"+tx.ID, "admin", map[string]any{
		"type":     "expense",
		"category": "dominio",
		"amount":   "60.00",
		"date":     "2025-01-02",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[transactionResponse](t, rec)
	assert.Equal(t, "dominio", updated.Category)
	assert.Equal(t, "60.00", updated.Amount)

	rec = doRequest(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, "admin", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/transactions/"+tx.ID, "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/transactions", "client", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDailyReportOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions", "admin", map[string]any{
		"type":     "expense",
		"category": "hosting",
		"amount":   "50.00",
		"date":     "2025-01-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/reports/daily?start=2025-01-01&end=2025-01-03", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[reportResponse](t, rec)
	require.Len(t, report.Points, 3)
	assert.Equal(t, "2025-01-01", report.Points[0].Bucket)
	assert.Equal(t, "0.00", report.Points[0].Expense)
	assert.Equal(t, "50.00", report.Points[1].Expense)
	assert.Equal(t, "-50.00", report.Points[1].Net)
	assert.Equal(t, "50.00", report.Summary.TotalExpense)
}

func TestDailyReportRejectsInvertedRange(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/reports/daily?start=2025-02-01&end=2025-01-01", "admin", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNotificationsInboxOverHTTP(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/notifications", "client", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = doRequest(t, s, http.MethodPost, "/api/notifications/99/read", "client", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegeneratePlanKeepsPaidInstallments(t *testing.T) {
	s := newTestServer(t)
	project := createTestProject(t, s)

	rec := doRequest(t, s, http.MethodPost, "/api/submissions", "client", map[string]any{
		"project_id":         project.ID,
		"installment_number": 1,
		"amount":             "333.33",
		"receipt_url":        "https://files/r1.pdf",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decodeBody[submissionResponse](t, rec)
	rec = doRequest(t, s, http.MethodPost, "/api/submissions/"+sub.ID+"/approve", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPut, fmt.Sprintf("/api/projects/%s/plan", project.ID), "admin", map[string]any{
		"budget":            "1200.00",
		"installment_count": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[projectResponse](t, rec)
	require.Len(t, updated.Installments, 4)
	assert.True(t, updated.Installments[0].Paid)
	assert.Equal(t, "1200.00", updated.Budget)
}

func TestEditInstallmentsRejectsBadSum(t *testing.T) {
	s := newTestServer(t)
	project := createTestProject(t, s)

	rec := doRequest(t, s, http.MethodPut, "/api/projects/"+project.ID+"/installments", "admin", map[string]any{
		"installments": []map[string]any{
			{"number": 1, "amount": "100.00"},
			{"number": 2, "amount": "100.00"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.NotEmpty(t, body.Problems)
}
