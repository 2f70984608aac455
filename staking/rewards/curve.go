// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
)

// MillisecondsPerYear is the length of a julian year.
const MillisecondsPerYear = 1000 * 3600 * 24 * 36525 / 100

// Point is a (stake ratio, annual inflation) pair.
type Point struct {
	X npos.Perbill `json:"x" yaml:"x"`
	Y npos.Perbill `json:"y" yaml:"y"`
}

// Curve maps the staked ratio to an annual inflation, interpolating linearly between points.
// MaxInflation is what would be minted at the best point, anything not paid to stakers goes to the treasury.
type Curve struct {
	Points       []Point      `json:"points" yaml:"points"`
	MaxInflation npos.Perbill `json:"maxInflation" yaml:"maxInflation"`
}

// DefaultCurve peaks at 10% inflation for a 50% staked ratio and decays to 2.5% on both sides.
func DefaultCurve() Curve {
	return Curve{
		Points: []Point{
			{X: 0, Y: 25_000_000},
			{X: 500_000_000, Y: 100_000_000},
			{X: 550_000_000, Y: 62_500_000},
			{X: 600_000_000, Y: 43_750_000},
			{X: 700_000_000, Y: 29_687_500},
			{X: 1_000_000_000, Y: 25_000_000},
		},
		MaxInflation: 100_000_000,
	}
}

// Validate checks that points are sorted by X and within range.
func (c Curve) Validate() error {
	if len(c.Points) == 0 {
		return errors.New("curve without points")
	}
	for i, p := range c.Points {
		if !p.X.Valid() || !p.Y.Valid() {
			return errors.Errorf("curve point %d out of range", i)
		}
		if i > 0 && p.X <= c.Points[i-1].X {
			return errors.Errorf("curve point %d not ascending", i)
		}
		if p.Y > c.MaxInflation {
			return errors.Errorf("curve point %d above max inflation", i)
		}
	}
	return nil
}

// At returns the annual inflation for a staked ratio.
func (c Curve) At(x npos.Perbill) npos.Perbill {
	pts := c.Points
	if x <= pts[0].X {
		return pts[0].Y
	}
	for i := 1; i < len(pts); i++ {
		if x > pts[i].X {
			continue
		}
		p0, p1 := pts[i-1], pts[i]
		dx := int64(p1.X) - int64(p0.X)
		dy := int64(p1.Y) - int64(p0.Y)
		// round down, both deltas fit in 31 bits
		y := int64(p0.Y) + dy*(int64(x)-int64(p0.X))/dx
		return npos.Perbill(y)
	}
	return pts[len(pts)-1].Y
}

// Payout returns the reward of an era of eraDuration milliseconds, and the remainder
// up to the max inflation.
func (c Curve) Payout(totalStaked, totalIssuance *big.Int, eraDuration uint64) (payout *big.Int, rest *big.Int) {
	if totalIssuance.Sign() == 0 {
		return new(big.Int), new(big.Int)
	}
	ratio := npos.PerbillFromRational(totalStaked, totalIssuance)
	annual := c.At(ratio)

	portion := func(rate npos.Perbill) *big.Int {
		v := new(big.Int).Mul(totalIssuance, new(big.Int).SetUint64(uint64(rate.Parts())))
		v.Mul(v, new(big.Int).SetUint64(eraDuration))
		return v.Quo(v, new(big.Int).Mul(big.NewInt(npos.PerbillAccuracy), big.NewInt(MillisecondsPerYear)))
	}
	payout = portion(annual)
	ceiling := portion(c.MaxInflation)
	rest = new(big.Int).Sub(ceiling, payout)
	if rest.Sign() < 0 {
		rest.SetUint64(0)
	}
	return payout, rest
}
