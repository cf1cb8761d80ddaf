package services

import (
	"context"

	"cuotas/internal/core"
	"cuotas/internal/storage"
)

// TransactionService is the manual income/expense ledger, independent of
// the installment schedule.
type TransactionService struct {
	storage *storage.SQLiteRepository
}

func NewTransactionService(storage *storage.SQLiteRepository) *TransactionService {
	return &TransactionService{storage: storage}
}

// Record stores a new transaction. Status defaults to approved unless
// the caller explicitly marks it pending.
func (s *TransactionService) Record(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Status == "" {
		tx.Status = core.TransactionApproved
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, &core.ValidationError{Problems: []string{err.Error()}}
	}
	return s.storage.CreateTransaction(ctx, tx)
}

// Get loads one transaction.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// Update replaces a transaction's editable fields.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Status == "" {
		tx.Status = core.TransactionApproved
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, &core.ValidationError{Problems: []string{err.Error()}}
	}
	if err := s.storage.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteTransaction(ctx, id)
}

// List returns transactions matching the filter.
func (s *TransactionService) List(ctx context.Context, filter storage.TransactionFilter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, filter)
}
