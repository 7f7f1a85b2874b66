package taxes

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// CertificateService reserves retention certificate numbers in their own transaction.
type CertificateService struct {
	pool   db.Beginner
	style  correlative.CertificateStyle
	logger *slog.Logger
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(pool db.Beginner, style correlative.CertificateStyle, logger *slog.Logger) *CertificateService {
	if style == "" {
		style = correlative.StylePrefixed
	}
	return &CertificateService{pool: pool, style: style, logger: logger}
}

// Reserve hands out the next certificate number of type t. A reserved number
// is consumed even if the caller never stores a withholding with it.
func (s *CertificateService) Reserve(ctx context.Context, companyID int64, t Type) (string, error) {
	var number string
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		resolver := NewResolver(NewRepository(tx), correlative.NewTxStore(tx))
		var err error
		number, err = resolver.NextCertificateNumber(ctx, companyID, t, s.style)
		return err
	})
	if err != nil {
		return "", err
	}
	if s.logger != nil {
		s.logger.Info("certificate number reserved", slog.Int64("company_id", companyID), slog.String("type", string(t)), slog.String("number", number))
	}
	return number, nil
}
