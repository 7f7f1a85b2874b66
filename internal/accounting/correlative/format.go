// Package correlative assigns journal entry and retention certificate numbers.
package correlative

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// CertificateType is the withholding tax a certificate belongs to.
type CertificateType string

const (
	CertificateIVA  CertificateType = "RETENCION_IVA"
	CertificateISLR CertificateType = "RETENCION_ISLR"
)

// CertificateStyle selects the printed form of a certificate number.
type CertificateStyle string

const (
	// StylePrefixed renders RET-IVA-000001.
	StylePrefixed CertificateStyle = "PREFIXED"
	// StyleBare renders 00001, the form tax authority reports use.
	StyleBare CertificateStyle = "BARE"
)

// JournalPrefix returns "{M}{ddmmyy}-".
func JournalPrefix(module accounting.Module, date time.Time) string {
	return string(module) + date.Format("020106") + "-"
}

// JournalNumber formats a journal entry number.
func JournalNumber(module accounting.Module, date time.Time, seq int64) string {
	return fmt.Sprintf("%s%03d", JournalPrefix(module, date), seq)
}

func certificatePrefix(t CertificateType) string {
	switch t {
	case CertificateIVA:
		return "RET-IVA-"
	case CertificateISLR:
		return "RET-ISLR-"
	}
	return ""
}

// CertificateNumber formats a retention certificate number.
func CertificateNumber(t CertificateType, seq int64, style CertificateStyle) string {
	if style == StyleBare {
		return fmt.Sprintf("%05d", seq)
	}
	return fmt.Sprintf("%s%06d", certificatePrefix(t), seq)
}

// NextFromLatest returns 1 + the numeric suffix of latest after prefix.
// An empty, foreign or unparsable latest number restarts the sequence at 1.
func NextFromLatest(latest, prefix string) int64 {
	if latest == "" || !strings.HasPrefix(latest, prefix) {
		return 1
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(latest, prefix), 10, 64)
	if err != nil || seq < 0 {
		return 1
	}
	return seq + 1
}

// MaxSequence returns the highest sequence found in existing certificate numbers,
// accepting both the prefixed and the bare form. Unparsable numbers are ignored.
func MaxSequence(t CertificateType, numbers []string) int64 {
	prefix := certificatePrefix(t)
	var max int64
	for _, n := range numbers {
		raw := strings.TrimPrefix(strings.TrimSpace(n), prefix)
		seq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}
