package accounts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// PostingLevel is the only level that can receive journal lines.
const PostingLevel = 4

// Levels 1-3 are D, D.D, D.D.DD; level 4 appends a leaf of five or more digits.
var codePattern = regexp.MustCompile(`^\d(\.\d(\.\d{2}(\.\d{5,})?)?)?$`)

// Code is a parsed D.D.DD.DDDDD account code.
type Code struct {
	segments []string
}

// ParseCode validates raw against the four-level code format.
func ParseCode(raw string) (Code, error) {
	raw = strings.TrimSpace(raw)
	if !codePattern.MatchString(raw) {
		return Code{}, shared.Invalid("code", fmt.Sprintf("%q does not match D.D.DD.DDDDD", raw))
	}
	return Code{segments: strings.Split(raw, ".")}, nil
}

// Level is the number of segments, 1 to 4.
func (c Code) Level() int {
	return len(c.segments)
}

// Parent returns the implied parent code; ok is false for level 1.
func (c Code) Parent() (string, bool) {
	if len(c.segments) <= 1 {
		return "", false
	}
	return strings.Join(c.segments[:len(c.segments)-1], "."), true
}

func (c Code) String() string {
	return strings.Join(c.segments, ".")
}

// EnsurePostable rejects accounts that cannot receive journal lines.
func EnsurePostable(a Account) error {
	if a.Level() != PostingLevel {
		return shared.Invalid("account", fmt.Sprintf("%s %s is not a level %d account", a.Code, a.Name, PostingLevel))
	}
	if !a.IsActive {
		return shared.Invalid("account", fmt.Sprintf("%s %s is inactive", a.Code, a.Name))
	}
	return nil
}
