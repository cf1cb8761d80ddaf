package core

import (
	"fmt"
)

// MaxInstallments bounds the plan size; the UI offers 1..12.
const MaxInstallments = 12

// sumToleranceCents is the allowed drift between a project budget and the
// sum of hand-edited installment amounts (0.01 in currency units).
const sumToleranceCents = 1

// GeneratePlan derives an installment schedule from a budget and a count.
//
// Each installment gets the half-up rounded share budget/count; the last
// installment absorbs the rounding remainder so the amounts always sum to
// the budget exactly, to the cent. With a deadline, the span from today to
// the deadline is split into count equal whole-day segments and
// installment i falls at today + i segments; without one, installment i
// falls at today + i months.
//
// Installments carried over from existing (matched by number) keep their
// due date and paid flag, so editing the budget of a partially paid
// project never un-pays or re-dates settled installments.
//
// The function is pure: today is an explicit argument, never the system
// clock. A non-positive budget or count yields an empty plan.
func GeneratePlan(budget Money, count int, deadline, today Date, existing []Installment) []Installment {
	if budget.Cents <= 0 || count <= 0 {
		return nil
	}

	per := (budget.Cents + int64(count)/2) / int64(count)
	last := budget.Cents - per*int64(count-1)

	daysPer := 0
	if !deadline.IsEmpty() {
		daysPer = today.DaysUntil(deadline) / count
	}

	prev := make(map[int]Installment, len(existing))
	for _, inst := range existing {
		prev[inst.Number] = inst
	}

	plan := make([]Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := per
		if i == count {
			amount = last
		}

		var due Date
		if !deadline.IsEmpty() {
			due = today.AddDays(i * daysPer)
		} else {
			due = today.AddMonths(i)
		}

		inst := Installment{Number: i, Amount: Money{Cents: amount}, DueDate: due}
		if old, ok := prev[i]; ok {
			inst.DueDate = old.DueDate
			inst.Paid = old.Paid
		}
		plan = append(plan, inst)
	}
	return plan
}

// ValidatePlan checks a hand-edited installment sequence against the
// project budget. It rejects non-positive amounts, missing due dates,
// duplicate or gapped numbers, and a sum that drifts from the budget by
// more than one cent, enumerating every offending installment number in
// the returned ValidationError.
func ValidatePlan(budget Money, installments []Installment) error {
	var problems []string

	seen := make(map[int]bool, len(installments))
	var sum int64
	for _, inst := range installments {
		if inst.Number < 1 || inst.Number > len(installments) {
			problems = append(problems, fmt.Sprintf("installment %d: number out of range", inst.Number))
		} else if seen[inst.Number] {
			problems = append(problems, fmt.Sprintf("installment %d: duplicate number", inst.Number))
		}
		seen[inst.Number] = true

		if inst.Amount.Cents <= 0 {
			problems = append(problems, fmt.Sprintf("installment %d: amount must be positive", inst.Number))
		}
		if inst.DueDate.IsEmpty() {
			problems = append(problems, fmt.Sprintf("installment %d: missing due date", inst.Number))
		}
		sum += inst.Amount.Cents
	}

	diff := budget.Cents - sum
	if diff < 0 {
		diff = -diff
	}
	if diff > sumToleranceCents {
		problems = append(problems, fmt.Sprintf(
			"installment amounts sum to %s but budget is %s",
			Money{Cents: sum}, budget))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
