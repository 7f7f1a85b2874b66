package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Service manages the chart of accounts.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every account of the company ordered by code.
func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.List(ctx, companyID)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, companyID, id int64) (Account, error) {
	return s.repo.Get(ctx, companyID, id)
}

// Create validates the code shape and links the account to its parent.
// Levels 2-4 require the parent code to exist already.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	if input.CompanyID == 0 {
		return Account{}, shared.Invalid("company_id", "required")
	}
	code, err := ParseCode(input.Code)
	if err != nil {
		return Account{}, err
	}
	if !input.Type.Valid() {
		return Account{}, shared.Invalid("type", fmt.Sprintf("unknown account type %q", input.Type))
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Account{}, shared.Invalid("name", "required")
	}
	account := Account{
		CompanyID: input.CompanyID,
		Code:      code.String(),
		Name:      name,
		Type:      input.Type,
		IsActive:  true,
	}
	if parentCode, ok := code.Parent(); ok {
		parent, err := s.repo.GetByCode(ctx, input.CompanyID, parentCode)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return Account{}, shared.Invalid("code", fmt.Sprintf("parent account %s does not exist", parentCode))
			}
			return Account{}, err
		}
		account.ParentID = &parent.ID
	}
	return s.repo.Insert(ctx, account)
}

// UpdateInput carries mutable account attributes.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,max=160"`
	IsActive *bool   `json:"is_active"`
}

// Update renames or (de)activates an account. Code and type are immutable.
func (s *Service) Update(ctx context.Context, companyID, id int64, input UpdateInput) (Account, error) {
	account, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Account{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Account{}, shared.Invalid("name", "required")
		}
		account.Name = name
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	return s.repo.Update(ctx, account)
}

// Rename changes only the display name.
func (s *Service) Rename(ctx context.Context, companyID, id int64, name string) (Account, error) {
	return s.Update(ctx, companyID, id, UpdateInput{Name: &name})
}

// Postable loads an account and rejects it unless it can receive journal lines.
func (s *Service) Postable(ctx context.Context, companyID, id int64) (Account, error) {
	account, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Account{}, err
	}
	return account, EnsurePostable(account)
}
