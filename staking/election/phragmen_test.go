// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
)

func addr(s string) npos.Address { return npos.BytesToAddress([]byte(s)) }

var (
	one   = big.NewInt(1)
	token = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

func amount(n int64, unit *big.Int) *big.Int { return new(big.Int).Mul(big.NewInt(n), unit) }

func scenario(unit *big.Int) ([]Candidate, []Voter) {
	return []Candidate{
			{Who: addr("v1"), SelfStake: amount(500, unit)},
			{Who: addr("v2"), SelfStake: amount(200, unit)},
		}, []Voter{
			{Who: addr("a"), Budget: amount(1000, unit), Targets: []npos.Address{addr("v1"), addr("v2")}},
		}
}

func others(exp *Exposure) map[npos.Address]string {
	m := make(map[npos.Address]string)
	for _, o := range exp.Others {
		m[o.Who] = o.Value.String()
	}
	return m
}

func TestElectScenario(t *testing.T) {
	for _, unit := range []*big.Int{one, token} {
		candidates, voters := scenario(unit)

		res, err := Elect(candidates, voters, 2, Options{})
		require.NoError(t, err)
		assert.Equal(t, []npos.Address{addr("v1"), addr("v2")}, res.Winners)

		exposures := BuildExposures(res)
		v1, v2 := exposures[addr("v1")], exposures[addr("v2")]

		assert.Equal(t, amount(500, unit).String(), v1.Own.String())
		assert.Equal(t, map[npos.Address]string{addr("a"): amount(480, unit).String()}, others(v1))
		assert.Equal(t, amount(980, unit).String(), v1.Total.String())

		assert.Equal(t, amount(200, unit).String(), v2.Own.String())
		assert.Equal(t, map[npos.Address]string{addr("a"): amount(520, unit).String()}, others(v2))
		assert.Equal(t, amount(720, unit).String(), v2.Total.String())
	}
}

func TestElectScenarioEqualised(t *testing.T) {
	for _, unit := range []*big.Int{one, token} {
		candidates, voters := scenario(unit)

		res, err := Elect(candidates, voters, 2, Options{EqualiseIterations: 2})
		require.NoError(t, err)

		exposures := BuildExposures(res)
		assert.Equal(t, map[npos.Address]string{addr("a"): amount(350, unit).String()}, others(exposures[addr("v1")]))
		assert.Equal(t, map[npos.Address]string{addr("a"): amount(650, unit).String()}, others(exposures[addr("v2")]))
		assert.Equal(t, amount(850, unit).String(), exposures[addr("v1")].Total.String())
		assert.Equal(t, amount(850, unit).String(), exposures[addr("v2")].Total.String())
	}
}

func TestElectMinimisesLoadWithTokenAmounts(t *testing.T) {
	candidates := []Candidate{
		{Who: addr("small"), SelfStake: amount(200, token)},
		{Who: addr("v1"), SelfStake: amount(500, token)},
		{Who: addr("v2"), SelfStake: amount(4000, token)},
	}
	voters := []Voter{
		{Who: addr("a"), Budget: amount(1000, token), Targets: []npos.Address{addr("v1"), addr("v2")}},
	}

	res, err := Elect(candidates, voters, 2, Options{})
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("v2"), addr("v1")}, res.Winners)

	exposures := BuildExposures(res)
	require.Len(t, exposures, 2)
	assert.Equal(t, amount(4000, token).String(), exposures[addr("v2")].Own.String())
	assert.Equal(t, amount(500, token).String(), exposures[addr("v1")].Own.String())
	assert.Equal(t, map[npos.Address]string{addr("a"): amount(250, token).String()}, others(exposures[addr("v2")]))
	assert.Equal(t, map[npos.Address]string{addr("a"): amount(750, token).String()}, others(exposures[addr("v1")]))
	assert.Equal(t, amount(1250, token).String(), exposures[addr("v1")].Total.String())
}

func TestElectRejectsOversizedBudget(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 121)
	_, err := Elect([]Candidate{
		{Who: addr("v1"), SelfStake: huge},
		{Who: addr("v2"), SelfStake: big.NewInt(1)},
	}, []Voter{
		{Who: addr("a"), Budget: huge, Targets: []npos.Address{addr("v1"), addr("v2")}},
	}, 2, Options{})
	assert.Error(t, err)
}

func TestElectTieBreakIsInputOrder(t *testing.T) {
	candidates := []Candidate{
		{Who: addr("late"), SelfStake: big.NewInt(100)},
		{Who: addr("early"), SelfStake: big.NewInt(100)},
	}
	res, err := Elect(candidates, nil, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("late")}, res.Winners)
}

func TestElectDegradedCases(t *testing.T) {
	candidates := []Candidate{
		{Who: addr("v1"), SelfStake: big.NewInt(100)},
		{Who: addr("broke"), SelfStake: big.NewInt(0)},
	}
	voters := []Voter{
		// an edge to a non candidate is dropped, duplicates count once
		{Who: addr("n1"), Budget: big.NewInt(50), Targets: []npos.Address{addr("ghost"), addr("v1"), addr("v1")}},
		{Who: addr("n2"), Budget: big.NewInt(0), Targets: []npos.Address{addr("v1")}},
	}

	res, err := Elect(candidates, voters, 5, Options{})
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("v1")}, res.Winners, "fewer winners than seats when candidates lack approval")

	exp := BuildExposures(res)[addr("v1")]
	assert.Equal(t, "100", exp.Own.String())
	assert.Equal(t, map[npos.Address]string{addr("n1"): "50"}, others(exp))

	res, err = Elect(nil, voters, 3, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Winners)
	assert.Empty(t, res.Assignments)
}

func TestElectDuplicateCandidate(t *testing.T) {
	_, err := Elect([]Candidate{
		{Who: addr("v"), SelfStake: big.NewInt(1)},
		{Who: addr("v"), SelfStake: big.NewInt(2)},
	}, nil, 1, Options{})
	assert.Error(t, err)
}

func randomInput(f *fuzz.Fuzzer, unit *big.Int) ([]Candidate, []Voter, int) {
	var nc, nv, seats uint8
	f.Fuzz(&nc)
	f.Fuzz(&nv)
	f.Fuzz(&seats)
	nc = nc%12 + 1
	nv = nv % 40

	candidates := make([]Candidate, nc)
	for i := range candidates {
		var stake uint32
		f.Fuzz(&stake)
		candidates[i] = Candidate{Who: npos.BytesToAddress([]byte{'c', byte(i)}), SelfStake: new(big.Int).Mul(new(big.Int).SetUint64(uint64(stake%1_000_000+1)), unit)}
	}
	voters := make([]Voter, nv)
	for i := range voters {
		var (
			budget uint64
			picks  []uint8
		)
		f.Fuzz(&budget)
		f.Fuzz(&picks)
		targets := make([]npos.Address, 0, len(picks))
		for _, p := range picks {
			targets = append(targets, candidates[int(p)%len(candidates)].Who)
		}
		voters[i] = Voter{
			Who:     npos.BytesToAddress([]byte{'n', byte(i)}),
			Budget:  new(big.Int).Mul(new(big.Int).SetUint64(budget%1e12), unit),
			Targets: targets,
		}
	}
	return candidates, voters, int(seats%8) + 1
}

// TestElectDeterministic elects random inputs twice and expects identical outcomes.
func TestElectDeterministic(t *testing.T) {
	f := fuzz.NewWithSeed(7).NilChance(0).NumElements(0, 6)
	for i := 0; i < 200; i++ {
		unit := []*big.Int{one, token}[i%2]
		candidates, voters, seats := randomInput(f, unit)
		for _, opts := range []Options{{}, {EqualiseIterations: 3}} {
			first, err := Elect(candidates, voters, seats, opts)
			require.NoError(t, err)
			second, err := Elect(candidates, voters, seats, opts)
			require.NoError(t, err)
			assert.Equal(t, first, second)
			assert.Equal(t, BuildExposures(first), BuildExposures(second))
		}
	}
}

// TestElectConservesStake checks that exposures add up, that winners are exposed with their whole
// self stake and that no voter is assigned more than its budget.
func TestElectConservesStake(t *testing.T) {
	f := fuzz.NewWithSeed(99).NilChance(0).NumElements(0, 6)
	for i := 0; i < 200; i++ {
		unit := []*big.Int{one, token}[i%2]
		candidates, voters, seats := randomInput(f, unit)
		for _, opts := range []Options{{}, {EqualiseIterations: 5}} {
			res, err := Elect(candidates, voters, seats, opts)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Winners), seats)

			budgets := make(map[npos.Address]*big.Int)
			for _, v := range voters {
				budgets[v.Who] = v.Budget
			}
			for _, c := range candidates {
				budgets[c.Who] = c.SelfStake
			}
			for _, a := range res.Assignments {
				sum := new(big.Int)
				for _, s := range a.Distribution {
					require.Positive(t, s.Value.Sign())
					sum.Add(sum, s.Value)
				}
				assert.Equal(t, 0, sum.Cmp(budgets[a.Who]), "voter budget is fully assigned")
			}

			for who, exp := range BuildExposures(res) {
				assert.Equal(t, 0, exp.Own.Cmp(budgets[who]), "own exposure of %v is its self stake", who)
				sum := new(big.Int).Set(exp.Own)
				for _, o := range exp.Others {
					sum.Add(sum, o.Value)
				}
				assert.Equal(t, 0, sum.Cmp(exp.Total), "exposure of %v", who)
			}
		}
	}
}
