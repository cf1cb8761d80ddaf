package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cuotas/internal/core"
	"cuotas/internal/storage"
)

// ProjectService creates projects and keeps their installment schedules
// in sync with budget, count and deadline edits.
type ProjectService struct {
	storage         *storage.SQLiteRepository
	maxInstallments int
	now             func() time.Time
}

func NewProjectService(storage *storage.SQLiteRepository, maxInstallments int) *ProjectService {
	if maxInstallments < 1 || maxInstallments > core.MaxInstallments {
		maxInstallments = core.MaxInstallments
	}
	return &ProjectService{
		storage:         storage,
		maxInstallments: maxInstallments,
		now:             time.Now,
	}
}

// PlanParams describes a schedule (re)generation request.
type PlanParams struct {
	Budget   core.Money
	Count    int
	Deadline core.Date
}

func (s *ProjectService) validatePlanParams(p PlanParams) error {
	var problems []string
	if p.Budget.Cents <= 0 {
		problems = append(problems, "budget must be positive")
	}
	if p.Count < 1 || p.Count > s.maxInstallments {
		problems = append(problems, "installment count out of range")
	} else if p.Budget.Cents > 0 && p.Budget.Cents < int64(p.Count) {
		// Below one cent per installment the plan would round some
		// amounts to zero.
		problems = append(problems, "budget too small for the installment count")
	}
	if len(problems) > 0 {
		return &core.ValidationError{Problems: problems}
	}
	return nil
}

// Create stores a new project. With plan params set, the installment
// schedule is generated immediately; without, the project starts with
// no schedule.
func (s *ProjectService) Create(ctx context.Context, name string, plan *PlanParams) (core.Project, error) {
	if strings.TrimSpace(name) == "" {
		return core.Project{}, &core.ValidationError{Problems: []string{"project name is required"}}
	}

	p := core.Project{Name: name}
	if plan != nil {
		if err := s.validatePlanParams(*plan); err != nil {
			return core.Project{}, err
		}
		p.Budget = plan.Budget
		p.Deadline = plan.Deadline
		p.Installments = core.GeneratePlan(plan.Budget, plan.Count, plan.Deadline, core.DateOf(s.now()), nil)
	}
	return s.storage.CreateProject(ctx, p)
}

// Get loads a project with its schedule.
func (s *ProjectService) Get(ctx context.Context, id string) (core.Project, error) {
	return s.storage.GetProject(ctx, id)
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]core.Project, error) {
	return s.storage.ListProjects(ctx)
}

// RegeneratePlan rebuilds a project's schedule from new budget/count/
// deadline. Paid flags and due dates of installments whose number
// survives are carried forward by the planner, so editing the budget of
// a partially paid project never un-pays settled installments.
func (s *ProjectService) RegeneratePlan(ctx context.Context, projectID string, params PlanParams) (core.Project, error) {
	if err := s.validatePlanParams(params); err != nil {
		return core.Project{}, err
	}

	project, err := s.storage.GetProject(ctx, projectID)
	if err != nil {
		return core.Project{}, err
	}

	plan := core.GeneratePlan(params.Budget, params.Count, params.Deadline,
		core.DateOf(s.now()), project.Installments)
	if err := s.storage.ReplaceInstallments(ctx, projectID, params.Budget, params.Deadline, plan); err != nil {
		return core.Project{}, err
	}

	project.Budget = params.Budget
	project.Deadline = params.Deadline
	project.Installments = plan
	return project, nil
}

// EditInstallments replaces the schedule with hand-edited amounts and
// dates after validating them against the project budget. Offending
// installment numbers are enumerated in the validation error.
//
// Paid flags are carried forward from the stored schedule, never taken
// from the edit: only an approved submission settles an installment. A
// settled installment also keeps its amount; editing it would rewrite
// money that was already reconciled.
func (s *ProjectService) EditInstallments(ctx context.Context, projectID string, installments []core.Installment) (core.Project, error) {
	project, err := s.storage.GetProject(ctx, projectID)
	if err != nil {
		return core.Project{}, err
	}

	if err := core.ValidatePlan(project.Budget, installments); err != nil {
		return core.Project{}, err
	}

	prev := make(map[int]core.Installment, len(project.Installments))
	for _, inst := range project.Installments {
		prev[inst.Number] = inst
	}

	var problems []string
	merged := make([]core.Installment, 0, len(installments))
	for _, inst := range installments {
		if old, ok := prev[inst.Number]; ok {
			inst.Paid = old.Paid
			if old.Paid && inst.Amount.Cents != old.Amount.Cents {
				problems = append(problems, fmt.Sprintf("installment %d: amount is settled and cannot change", inst.Number))
			}
		}
		merged = append(merged, inst)
	}
	if len(problems) > 0 {
		return core.Project{}, &core.ValidationError{Problems: problems}
	}

	if err := s.storage.ReplaceInstallments(ctx, projectID, project.Budget, project.Deadline, merged); err != nil {
		return core.Project{}, err
	}
	project.Installments = merged
	return project, nil
}
