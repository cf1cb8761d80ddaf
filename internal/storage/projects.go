package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cuotas/internal/core"

	"github.com/google/uuid"
)

// CreateProject inserts a project together with its installment schedule.
func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Project{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var budget sql.NullInt64
	if p.Budget.Cents > 0 {
		budget = sql.NullInt64{Int64: p.Budget.Cents, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, budget_cents, deadline) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, budget, encodeDate(p.Deadline))
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}

	if err := insertInstallments(ctx, tx, p.ID, p.Installments); err != nil {
		return core.Project{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Project{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Project created",
		"project_id", p.ID,
		"installments", len(p.Installments),
		"budget_cents", p.Budget.Cents)
	return p, nil
}

// GetProject loads a project with its installments ordered by number.
func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	var (
		p        core.Project
		budget   sql.NullInt64
		deadline sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, budget_cents, deadline FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &budget, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("select project: %w", err)
	}

	p.Budget = core.Money{Cents: budget.Int64}
	if p.Deadline, err = decodeDate(deadline); err != nil {
		return core.Project{}, err
	}

	p.Installments, err = r.listInstallments(ctx, id)
	if err != nil {
		return core.Project{}, err
	}
	return p, nil
}

// ListProjects returns all projects with their installment schedules.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, budget_cents, deadline FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		var (
			p        core.Project
			budget   sql.NullInt64
			deadline sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &budget, &deadline); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Budget = core.Money{Cents: budget.Int64}
		if p.Deadline, err = decodeDate(deadline); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	for i := range projects {
		if projects[i].Installments, err = r.listInstallments(ctx, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// ReplaceInstallments swaps a project's schedule and budget/deadline in
// one transaction. Callers regenerate the schedule with the planner (or
// validate a manual edit) before handing it here; paid flags arrive
// already carried forward.
func (r *SQLiteRepository) ReplaceInstallments(ctx context.Context, projectID string, budget core.Money, deadline core.Date, installments []core.Installment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var budgetCol sql.NullInt64
	if budget.Cents > 0 {
		budgetCol = sql.NullInt64{Int64: budget.Cents, Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET budget_cents = ?, deadline = ? WHERE id = ?`,
		budgetCol, encodeDate(deadline), projectID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", projectID, core.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM installments WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clear installments: %w", err)
	}
	if err := insertInstallments(ctx, tx, projectID, installments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Installment schedule replaced",
		"project_id", projectID,
		"installments", len(installments))
	return nil
}

func insertInstallments(ctx context.Context, tx *sql.Tx, projectID string, installments []core.Installment) error {
	for _, inst := range installments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO installments (project_id, number, amount_cents, due_date, paid)
			 VALUES (?, ?, ?, ?, ?)`,
			projectID, inst.Number, inst.Amount.Cents, inst.DueDate.Format(dateLayout), inst.Paid)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("installment %d duplicated: %w", inst.Number, core.ErrConflict)
			}
			return fmt.Errorf("insert installment %d: %w", inst.Number, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) listInstallments(ctx context.Context, projectID string) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT number, amount_cents, due_date, paid FROM installments
		 WHERE project_id = ? ORDER BY number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select installments: %w", err)
	}
	defer rows.Close()

	var installments []core.Installment
	for rows.Next() {
		var (
			inst core.Installment
			due  string
		)
		if err := rows.Scan(&inst.Number, &inst.Amount.Cents, &due, &inst.Paid); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		if inst.DueDate, err = decodeDate(sql.NullString{String: due, Valid: true}); err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}
