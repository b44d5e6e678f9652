package misoca

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var errOverflow = errors.New("amount overflows int64")

// flexID decodes an identifier sent either as a JSON number or a string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// flexAmount keeps the decimal text of an amount sent as a JSON number or a
// string, so no precision is lost before conversion.
type flexAmount string

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexAmount(strings.TrimSpace(s))
		return nil
	}
	*f = flexAmount(b)
	return nil
}

// MinorUnits converts the amount to an integer, rounding half away from
// zero. Empty means 0. Values outside int64 are an error.
func (f flexAmount) MinorUnits() (int64, error) {
	return ParseMinorUnits(string(f))
}

// ParseMinorUnits parses a decimal string exactly and rounds it half away
// from zero to an int64.
func ParseMinorUnits(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	num := new(big.Int).Abs(r.Num())
	den := r.Denom()

	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	if new(big.Int).Lsh(m, 1).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if r.Sign() < 0 {
		q.Neg(q)
	}

	if !q.IsInt64() {
		return 0, fmt.Errorf("%q: %w", s, errOverflow)
	}
	return q.Int64(), nil
}
