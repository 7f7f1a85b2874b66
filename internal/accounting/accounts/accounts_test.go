package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type memoryRepo struct {
	nextID   int64
	accounts map[int64]Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[int64]Account{}}
}

func (m *memoryRepo) List(ctx context.Context, companyID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.CompanyID != companyID {
		return Account{}, shared.NotFound("account", id)
	}
	return a, nil
}

func (m *memoryRepo) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	for _, a := range m.accounts {
		if a.CompanyID == companyID && a.Code == code {
			return a, nil
		}
	}
	return Account{}, &shared.NotFoundError{Entity: "account " + code}
}

func (m *memoryRepo) Insert(ctx context.Context, a Account) (Account, error) {
	if _, err := m.GetByCode(ctx, a.CompanyID, a.Code); err == nil {
		return Account{}, shared.Invalid("code", "exists")
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	m.accounts[a.ID] = a
	return a, nil
}

func (m *memoryRepo) Update(ctx context.Context, a Account) (Account, error) {
	m.accounts[a.ID] = a
	return a, nil
}

func TestParseCodeLevels(t *testing.T) {
	cases := map[string]int{
		"1":             1,
		"1.1":           2,
		"1.1.01":        3,
		"1.1.01.00001":  4,
		"2.1.03.123456": 4,
	}
	for raw, level := range cases {
		code, err := ParseCode(raw)
		require.NoError(t, err, raw)
		require.Equal(t, level, code.Level(), raw)
	}

	for _, raw := range []string{"", "11", "1.1.1", "1.1.01.0001", "1..1", "A.1"} {
		_, err := ParseCode(raw)
		require.ErrorIs(t, err, shared.ErrValidation, raw)
	}
}

func TestCodeParent(t *testing.T) {
	code, err := ParseCode("1.1.01.00001")
	require.NoError(t, err)
	parent, ok := code.Parent()
	require.True(t, ok)
	require.Equal(t, "1.1.01", parent)

	root, err := ParseCode("4")
	require.NoError(t, err)
	_, ok = root.Parent()
	require.False(t, ok)
}

func TestCreateRequiresParent(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CompanyID: 1, Code: "1.1", Name: "Activo Corriente", Type: AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrValidation)

	root, err := svc.Create(ctx, CreateInput{CompanyID: 1, Code: "1", Name: "Activo", Type: AccountTypeAsset})
	require.NoError(t, err)
	require.Nil(t, root.ParentID)

	child, err := svc.Create(ctx, CreateInput{CompanyID: 1, Code: "1.1", Name: "Activo Corriente", Type: AccountTypeAsset})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	require.Equal(t, root.ID, *child.ParentID)

	_, err = svc.Create(ctx, CreateInput{CompanyID: 2, Code: "1.1", Name: "Otro", Type: AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	_, err := NewService(newMemoryRepo()).Create(context.Background(), CreateInput{CompanyID: 1, Code: "9", Name: "X", Type: "BOGUS"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPostableOnlyLevelFourActive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	for _, code := range []string{"5", "5.1", "5.1.01", "5.1.01.00001"} {
		_, err := svc.Create(ctx, CreateInput{CompanyID: 1, Code: code, Name: "Gasto " + code, Type: AccountTypeExpense})
		require.NoError(t, err)
	}
	group, err := repo.GetByCode(ctx, 1, "5.1.01")
	require.NoError(t, err)
	_, err = svc.Postable(ctx, 1, group.ID)
	require.ErrorIs(t, err, shared.ErrValidation)

	leaf, err := repo.GetByCode(ctx, 1, "5.1.01.00001")
	require.NoError(t, err)
	_, err = svc.Postable(ctx, 1, leaf.ID)
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, 1, leaf.ID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Postable(ctx, 1, leaf.ID)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDebitNormal(t *testing.T) {
	require.True(t, AccountTypeAsset.DebitNormal())
	require.True(t, AccountTypeCost.DebitNormal())
	require.True(t, AccountTypeExpense.DebitNormal())
	require.False(t, AccountTypeLiability.DebitNormal())
	require.False(t, AccountTypeEquity.DebitNormal())
	require.False(t, AccountTypeIncome.DebitNormal())
}

func TestRenameKeepsCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	root, err := svc.Create(ctx, CreateInput{CompanyID: 1, Code: "4", Name: "Ingresos", Type: AccountTypeIncome})
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, 1, root.ID, "  Ingresos operacionales ")
	require.NoError(t, err)
	require.Equal(t, "Ingresos operacionales", renamed.Name)
	require.Equal(t, "4", renamed.Code)

	_, err = svc.Rename(ctx, 1, root.ID, " ")
	require.ErrorIs(t, err, shared.ErrValidation)
}
