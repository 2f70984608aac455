// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package npos

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PerbillAccuracy is the number of parts in one.
const PerbillAccuracy = 1_000_000_000

var bigAccuracy = big.NewInt(PerbillAccuracy)

// Perbill is a fixed point fraction in [0, 1] with a billionth resolution.
// All multiplications round down, so a fraction of an amount never exceeds the exact value.
type Perbill uint32

// PerbillFromPercent creates a Perbill from a whole percentage, saturating at 100.
func PerbillFromPercent(p uint32) Perbill {
	if p > 100 {
		p = 100
	}
	return Perbill(p * (PerbillAccuracy / 100))
}

// PerbillFromParts creates a Perbill from parts per billion, saturating at one.
func PerbillFromParts(parts uint32) Perbill {
	if parts > PerbillAccuracy {
		return Perbill(PerbillAccuracy)
	}
	return Perbill(parts)
}

// PerbillFromRational returns floor(num / den) as a Perbill, saturating at one.
// A zero denominator yields zero.
func PerbillFromRational(num, den *big.Int) Perbill {
	if den.Sign() <= 0 || num.Sign() <= 0 {
		return 0
	}
	if num.Cmp(den) >= 0 {
		return Perbill(PerbillAccuracy)
	}
	parts := new(big.Int).Mul(num, bigAccuracy)
	parts.Quo(parts, den)
	return Perbill(parts.Uint64())
}

// One returns the Perbill representing 100%.
func One() Perbill {
	return Perbill(PerbillAccuracy)
}

// Parts returns the parts per billion.
func (p Perbill) Parts() uint32 {
	return uint32(p)
}

// IsZero returns whether the fraction is zero.
func (p Perbill) IsZero() bool {
	return p == 0
}

// Valid returns whether the fraction lies in [0, 1].
func (p Perbill) Valid() bool {
	return uint32(p) <= PerbillAccuracy
}

// Mul returns floor(p * v).
func (p Perbill) Mul(v *big.Int) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(int64(p)))
	return out.Quo(out, bigAccuracy)
}

// Complement returns 1 - p.
func (p Perbill) Complement() Perbill {
	if !p.Valid() {
		return 0
	}
	return Perbill(PerbillAccuracy - uint32(p))
}

// String renders the fraction as a percentage.
func (p Perbill) String() string {
	whole := uint32(p) / (PerbillAccuracy / 100)
	frac := uint32(p) % (PerbillAccuracy / 100)
	if frac == 0 {
		return strconv.FormatUint(uint64(whole), 10) + "%"
	}
	s := strconv.FormatUint(uint64(frac), 10)
	s = strings.Repeat("0", 7-len(s)) + s
	return strconv.FormatUint(uint64(whole), 10) + "." + strings.TrimRight(s, "0") + "%"
}

// MarshalText implements encoding.TextMarshaler.
func (p Perbill) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Perbill) UnmarshalText(text []byte) error {
	parsed, err := ParsePerbill(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePerbill parses a percentage ("12.5%") or a decimal fraction ("0.125").
func ParsePerbill(s string) (Perbill, error) {
	s = strings.TrimSpace(s)
	scale := uint64(PerbillAccuracy)
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = PerbillAccuracy / 100
	}
	whole, frac, _ := strings.Cut(s, ".")
	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse fraction %q", s)
	}
	parts := w * scale
	if frac != "" {
		digits := 0
		for d := scale; d > 1; d /= 10 {
			digits++
		}
		if len(frac) > digits {
			return 0, errors.Errorf("fraction %q exceeds billionth precision", s)
		}
		f, err := strconv.ParseUint(frac+strings.Repeat("0", digits-len(frac)), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse fraction %q", s)
		}
		parts += f
	}
	if parts > PerbillAccuracy {
		return 0, errors.Errorf("fraction %q exceeds one", s)
	}
	return Perbill(parts), nil
}
