package taxes

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type memoryRepo struct {
	taxes []Tax
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id int64) (Tax, error) {
	for _, t := range m.taxes {
		if t.CompanyID == companyID && t.ID == id {
			return t, nil
		}
	}
	return Tax{}, shared.NotFound("tax", id)
}

func (m *memoryRepo) FirstOfType(ctx context.Context, companyID int64, typ Type) (Tax, error) {
	var found *Tax
	for i := range m.taxes {
		t := m.taxes[i]
		if t.CompanyID != companyID || t.Type != typ {
			continue
		}
		if found == nil || (t.IsDefault && !found.IsDefault) {
			found = &m.taxes[i]
		}
	}
	if found == nil {
		return Tax{}, &shared.NotFoundError{Entity: "tax of type " + string(typ)}
	}
	return *found, nil
}

func ptr(v int64) *int64 { return &v }

func TestTaxAccountByDirection(t *testing.T) {
	repo := &memoryRepo{taxes: []Tax{
		{ID: 1, CompanyID: 1, Name: "IVA 16%", Type: TypeIVA, Rate: decimal.NewFromInt(16), GLAccountID: ptr(10), DebitoFiscalAccountID: ptr(20), CreditoFiscalAccountID: ptr(30)},
		{ID: 2, CompanyID: 1, Name: "IVA 8%", Type: TypeIVA, Rate: decimal.NewFromInt(8), GLAccountID: ptr(11)},
		{ID: 3, CompanyID: 1, Name: "Exento", Type: TypeIVA},
	}}
	resolver := NewResolver(repo, nil)
	ctx := context.Background()

	sale, err := resolver.TaxAccount(ctx, 1, 1, DirectionSale)
	require.NoError(t, err)
	require.Equal(t, int64(20), sale)

	purchase, err := resolver.TaxAccount(ctx, 1, 1, DirectionPurchase)
	require.NoError(t, err)
	require.Equal(t, int64(30), purchase)

	fallback, err := resolver.TaxAccount(ctx, 1, 2, DirectionPurchase)
	require.NoError(t, err)
	require.Equal(t, int64(11), fallback)

	_, err = resolver.TaxAccount(ctx, 1, 3, DirectionSale)
	require.ErrorIs(t, err, shared.ErrConfiguration)
	var cfgErr *shared.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, int64(3), cfgErr.EntityID)

	_, err = resolver.TaxAccount(ctx, 1, 99, DirectionSale)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWithholdingAccount(t *testing.T) {
	repo := &memoryRepo{taxes: []Tax{
		{ID: 5, CompanyID: 1, Name: "Retención IVA 75%", Type: TypeRetentionIVA, GLAccountID: ptr(40)},
		{ID: 6, CompanyID: 1, Name: "Retención ISLR", Type: TypeRetentionISLR},
	}}
	resolver := NewResolver(repo, nil)
	ctx := context.Background()

	account, err := resolver.WithholdingAccount(ctx, 1, TypeRetentionIVA)
	require.NoError(t, err)
	require.Equal(t, int64(40), account)

	_, err = resolver.WithholdingAccount(ctx, 1, TypeRetentionISLR)
	require.ErrorIs(t, err, shared.ErrConfiguration)

	_, err = resolver.WithholdingAccount(ctx, 2, TypeRetentionIVA)
	require.ErrorIs(t, err, shared.ErrConfiguration)

	_, err = resolver.WithholdingAccount(ctx, 1, TypeIVA)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDefaultTaxPrefersFlag(t *testing.T) {
	repo := &memoryRepo{taxes: []Tax{
		{ID: 1, CompanyID: 1, Name: "IVA 8%", Type: TypeIVA},
		{ID: 2, CompanyID: 1, Name: "IVA 16%", Type: TypeIVA, IsDefault: true},
	}}
	tax, err := NewResolver(repo, nil).DefaultTax(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), tax.ID)

	_, err = NewResolver(&memoryRepo{}, nil).DefaultTax(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestNextCertificateNumberRequiresStore(t *testing.T) {
	_, err := NewResolver(&memoryRepo{}, nil).NextCertificateNumber(context.Background(), 1, TypeRetentionIVA, "")
	require.Error(t, err)
}
