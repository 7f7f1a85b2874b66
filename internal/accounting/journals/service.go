package journals

import (
	"context"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// Service exposes read access to posted journals.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the most recent entries matching filter, without lines.
func (s *Service) List(ctx context.Context, filter Filter) ([]accounting.JournalEntry, error) {
	if filter.Module != "" && !filter.Module.Valid() {
		return nil, invalidModule(filter.Module)
	}
	return s.repo.List(ctx, filter)
}

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, companyID, id int64) (accounting.JournalEntry, error) {
	return s.repo.Get(ctx, companyID, id)
}
