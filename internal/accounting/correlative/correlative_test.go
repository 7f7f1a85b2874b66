package correlative

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type memoryStore struct {
	counters     map[string]int64
	numbers      []string
	certificates map[CertificateType][]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{counters: map[string]int64{}, certificates: map[CertificateType][]string{}}
}

func counterKey(companyID int64, scope string) string {
	return fmt.Sprintf("%d:%s", companyID, scope)
}

func (s *memoryStore) CounterExists(ctx context.Context, companyID int64, scope string) (bool, error) {
	_, ok := s.counters[counterKey(companyID, scope)]
	return ok, nil
}

func (s *memoryStore) EnsureCounter(ctx context.Context, companyID int64, scope string, seed int64) error {
	key := counterKey(companyID, scope)
	if _, ok := s.counters[key]; !ok {
		s.counters[key] = seed
	}
	return nil
}

func (s *memoryStore) Increment(ctx context.Context, companyID int64, scope string) (int64, error) {
	key := counterKey(companyID, scope)
	s.counters[key]++
	return s.counters[key], nil
}

func (s *memoryStore) LatestNumberWithPrefix(ctx context.Context, companyID int64, prefix string) (string, error) {
	latest := ""
	for _, n := range s.numbers {
		if strings.HasPrefix(n, prefix) && n > latest {
			latest = n
		}
	}
	return latest, nil
}

func (s *memoryStore) CertificateNumbers(ctx context.Context, companyID int64, t CertificateType) ([]string, error) {
	return s.certificates[t], nil
}

func TestJournalNumberFormat(t *testing.T) {
	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "P050324-001", JournalNumber(accounting.ModulePurchases, date, 1))
	require.Equal(t, "B050324-042", JournalNumber(accounting.ModuleBank, date, 42))
	require.Equal(t, "I050324-1234", JournalNumber(accounting.ModuleInventory, date, 1234))
}

func TestCertificateNumberFormat(t *testing.T) {
	require.Equal(t, "RET-IVA-000001", CertificateNumber(CertificateIVA, 1, StylePrefixed))
	require.Equal(t, "RET-ISLR-000123", CertificateNumber(CertificateISLR, 123, StylePrefixed))
	require.Equal(t, "00007", CertificateNumber(CertificateIVA, 7, StyleBare))
}

func TestNextFromLatest(t *testing.T) {
	require.Equal(t, int64(1), NextFromLatest("", "P050324-"))
	require.Equal(t, int64(8), NextFromLatest("P050324-007", "P050324-"))
	require.Equal(t, int64(1), NextFromLatest("P050324-ABC", "P050324-"))
	require.Equal(t, int64(1), NextFromLatest("C050324-009", "P050324-"))
}

func TestMaxSequence(t *testing.T) {
	numbers := []string{"RET-IVA-000004", "00009", "garbage", "RET-IVA-000002"}
	require.Equal(t, int64(9), MaxSequence(CertificateIVA, numbers))
	require.Equal(t, int64(0), MaxSequence(CertificateISLR, nil))
}

func TestNextJournalNumberIsMonotonic(t *testing.T) {
	store := newMemoryStore()
	gen := NewGenerator()
	ctx := context.Background()
	date := time.Date(2024, time.March, 5, 15, 0, 0, 0, time.UTC)

	var previous string
	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		number, err := gen.NextJournalNumber(ctx, store, 1, date, accounting.ModulePurchases)
		require.NoError(t, err)
		require.False(t, seen[number], "duplicate number %s", number)
		if previous != "" {
			require.Greater(t, number, previous)
		}
		seen[number] = true
		previous = number
	}
	require.Equal(t, "P050324-025", previous)
}

func TestNextJournalNumberSeedsFromLegacyNumbers(t *testing.T) {
	store := newMemoryStore()
	store.numbers = []string{"P050324-001", "P050324-014", "P040324-099"}
	gen := NewGenerator()
	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	number, err := gen.NextJournalNumber(context.Background(), store, 1, date, accounting.ModulePurchases)
	require.NoError(t, err)
	require.Equal(t, "P050324-015", number)

	other, err := gen.NextJournalNumber(context.Background(), store, 1, date.AddDate(0, 0, 1), accounting.ModulePurchases)
	require.NoError(t, err)
	require.Equal(t, "P060324-001", other)
}

func TestNextJournalNumberRejectsUnknownModule(t *testing.T) {
	_, err := NewGenerator().NextJournalNumber(context.Background(), newMemoryStore(), 1, time.Now(), accounting.Module("X"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestNextCertificateNumber(t *testing.T) {
	store := newMemoryStore()
	store.certificates[CertificateIVA] = []string{"RET-IVA-000010"}
	gen := NewGenerator()
	ctx := context.Background()

	first, err := gen.NextCertificateNumber(ctx, store, 1, CertificateIVA, StylePrefixed)
	require.NoError(t, err)
	require.Equal(t, "RET-IVA-000011", first)

	second, err := gen.NextCertificateNumber(ctx, store, 1, CertificateIVA, StyleBare)
	require.NoError(t, err)
	require.Equal(t, "00012", second)

	islr, err := gen.NextCertificateNumber(ctx, store, 1, CertificateISLR, StylePrefixed)
	require.NoError(t, err)
	require.Equal(t, "RET-ISLR-000001", islr)
}
