package crowdfund

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const solDecimals = 9

// ParseSOL converts a decimal SOL string such as "0.2" into lamports without
// going through floating point.
func ParseSOL(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "SOL"), "sol")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}

	whole, frac, hasPoint := strings.Cut(s, ".")
	if hasPoint && frac == "" {
		return 0, errors.Errorf("invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > solDecimals {
		return 0, errors.Errorf("amount %q has more than %d decimals", s, solDecimals)
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid amount %q", s)
	}
	var f uint64
	if frac != "" {
		f, err = strconv.ParseUint(frac+strings.Repeat("0", solDecimals-len(frac)), 10, 64)
		if err != nil {
			return 0, errors.Errorf("invalid amount %q", s)
		}
	}

	if w > (math.MaxUint64-f)/LamportsPerSOL {
		return 0, errors.Errorf("amount %q overflows", s)
	}
	return w*LamportsPerSOL + f, nil
}

// ParseAmount reads s as raw lamports when lamports is set, and as SOL otherwise.
func ParseAmount(s string, lamports bool) (uint64, error) {
	if !lamports {
		return ParseSOL(s)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid lamport amount %q", s)
	}
	return v, nil
}

// FormatSOL renders lamports as a SOL decimal with trailing zeros trimmed.
func FormatSOL(lamports uint64) string {
	whole := lamports / LamportsPerSOL
	frac := lamports % LamportsPerSOL
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fs := strconv.FormatUint(frac, 10)
	fs = strings.Repeat("0", solDecimals-len(fs)) + fs
	return strconv.FormatUint(whole, 10) + "." + strings.TrimRight(fs, "0")
}
