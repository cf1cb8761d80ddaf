package http

import (
	"net/http"

	"cuotas/internal/core"
	"cuotas/internal/services"
)

type createProjectRequest struct {
	Name             string `json:"name"`
	Budget           string `json:"budget,omitempty"`
	InstallmentCount int    `json:"installment_count,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
}

type planRequest struct {
	Budget           string `json:"budget"`
	InstallmentCount int    `json:"installment_count"`
	Deadline         string `json:"deadline,omitempty"`
}

type editInstallmentsRequest struct {
	Installments []struct {
		Number  int    `json:"number"`
		Amount  string `json:"amount"`
		DueDate string `json:"due_date,omitempty"`
	} `json:"installments"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request, _ caller) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var plan *services.PlanParams
	if req.Budget != "" || req.InstallmentCount > 0 {
		p, err := parsePlanParams(req.Budget, req.InstallmentCount, req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		plan = &p
	}

	project, err := s.projects.Create(r.Context(), req.Name, plan)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request, _ caller) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request, _ caller) {
	project, err := s.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleRegeneratePlan(w http.ResponseWriter, r *http.Request, _ caller) {
	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	params, err := parsePlanParams(req.Budget, req.InstallmentCount, req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	project, err := s.projects.RegeneratePlan(r.Context(), r.PathValue("id"), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleEditInstallments(w http.ResponseWriter, r *http.Request, _ caller) {
	var req editInstallmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	installments := make([]core.Installment, 0, len(req.Installments))
	for _, in := range req.Installments {
		amount, err := parseAmount(in.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid amount for installment")
			return
		}
		due, err := parseDate(in.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		installments = append(installments, core.Installment{
			Number:  in.Number,
			Amount:  amount,
			DueDate: due,
		})
	}

	project, err := s.projects.EditInstallments(r.Context(), r.PathValue("id"), installments)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleProjectSubmissions(w http.ResponseWriter, r *http.Request, _ caller) {
	subs, err := s.submissions.ProjectHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionList(subs))
}

func parsePlanParams(budget string, count int, deadline string) (services.PlanParams, error) {
	amount, err := parseAmount(budget)
	if err != nil {
		return services.PlanParams{}, err
	}
	due, err := parseDate(deadline)
	if err != nil {
		return services.PlanParams{}, err
	}
	return services.PlanParams{Budget: amount, Count: count, Deadline: due}, nil
}
