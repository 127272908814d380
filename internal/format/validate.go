package format

import (
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Mohsinsiddi/memefactory/internal/errs"
)

// Token input limits.
const (
	MaxNameLength = 50
	MaxSymbolLen  = 10
)

var (
	symbolRE  = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
	maxSupply = big.NewInt(1_000_000_000_000_000)
)

// ValidName reports whether name is non-blank and at most 50 characters.
func ValidName(name string) bool {
	return strings.TrimSpace(name) != "" && utf8.RuneCountInString(name) <= MaxNameLength
}

// ValidSymbol reports whether symbol is 1-10 letters or digits. Lower case
// is accepted.
func ValidSymbol(symbol string) bool {
	return symbolRE.MatchString(strings.ToUpper(symbol))
}

// ParseSupply parses a whole-token supply between 1 and 1e15.
func ParseSupply(s string) (*big.Int, bool) {
	n, ok := parseInteger(s)
	if !ok || n.Sign() <= 0 || n.Cmp(maxSupply) > 0 {
		return nil, false
	}
	return n, true
}

// ValidateToken checks createToken input and returns the parsed supply.
// Failures match errs.ErrInvalidInput.
func ValidateToken(name, symbol, supply string) (*big.Int, error) {
	if !ValidName(name) {
		return nil, errs.Invalid("Token name must be 1-%d characters", MaxNameLength)
	}
	if !ValidSymbol(symbol) {
		return nil, errs.Invalid("Token symbol must be 1-%d letters or digits", MaxSymbolLen)
	}
	n, ok := ParseSupply(supply)
	if !ok {
		return nil, errs.Invalid("Total supply must be a whole number between 1 and 1,000,000,000,000,000")
	}
	return n, nil
}
