package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAmountMissing is returned by Amount.Decimal when no figure was stored.
var ErrAmountMissing = errors.New("amount missing")

// Amount is a monetary figure exactly as it was stored. Writers have used
// JSON numbers, numeric strings and formatted strings such as "$1,500.00";
// the value is only interpreted when Decimal is called.
type Amount struct {
	raw string
}

// AmountFromInt wraps a whole-currency value.
func AmountFromInt(n int64) Amount {
	return Amount{raw: decimal.NewFromInt(n).String()}
}

// RawAmount wraps stored text without interpreting it.
func RawAmount(s string) Amount {
	return Amount{raw: s}
}

// Raw returns the stored text.
func (a Amount) Raw() string { return a.raw }

// IsZero reports whether no figure was stored.
func (a Amount) IsZero() bool { return strings.TrimSpace(a.raw) == "" }

// Decimal parses the stored figure. Currency symbols, thousands separators
// and surrounding whitespace are ignored.
func (a Amount) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(a.raw)
	if s == "" {
		return decimal.Zero, ErrAmountMissing
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", "_", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", a.raw, err)
	}
	return d, nil
}

// MarshalJSON encodes a parseable amount as a JSON number and anything else
// as the stored string.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	if d, err := a.Decimal(); err == nil {
		return []byte(d.String()), nil
	}
	return json.Marshal(a.raw)
}

// UnmarshalJSON accepts a JSON number, a string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount{raw: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding amount: %w", err)
	}
	*a = Amount{raw: n.String()}
	return nil
}
