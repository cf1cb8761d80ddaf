package http

import (
	"net/http"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request, _ caller) {
	report, err := s.reports.Monthly(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request, _ caller) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	report, err := s.reports.Daily(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request, _ caller) {
	report, err := s.reports.ExportMonthly(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}
