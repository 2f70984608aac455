// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/state"
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(state.New(db))
}

func addr(s string) npos.Address { return npos.BytesToAddress([]byte(s)) }

func TestRolesAreMutuallyExclusive(t *testing.T) {
	svc := newService(t)
	a := addr("a")

	r, err := svc.Get(a)
	require.NoError(t, err)
	assert.Equal(t, KindIdle, r.Kind())

	require.NoError(t, svc.Validate(a, ValidatorPrefs{Commission: npos.PerbillFromPercent(5)}))
	r, err = svc.Get(a)
	require.NoError(t, err)
	assert.Equal(t, Validator{Prefs: ValidatorPrefs{Commission: npos.PerbillFromPercent(5)}}, r)

	require.NoError(t, svc.Nominate(a, []npos.Address{addr("v1")}, 3, 16))
	r, err = svc.Get(a)
	require.NoError(t, err)
	n, ok := r.(Nominator)
	require.True(t, ok)
	assert.Equal(t, []npos.Address{addr("v1")}, n.Nominations.Targets)
	assert.Equal(t, npos.EraIndex(3), n.Nominations.SubmittedIn)

	vals, err := svc.Validators()
	require.NoError(t, err)
	assert.Empty(t, vals)
	noms, err := svc.Nominators()
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{a}, noms)

	require.NoError(t, svc.Chill(a))
	r, err = svc.Get(a)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, r)
	nv, nn, err := svc.Counts()
	require.NoError(t, err)
	assert.Zero(t, nv)
	assert.Zero(t, nn)
}

func TestValidateRejections(t *testing.T) {
	svc := newService(t)
	a := addr("a")
	prefs := ValidatorPrefs{Commission: npos.PerbillFromPercent(10)}

	require.NoError(t, svc.Validate(a, prefs))
	assert.ErrorIs(t, svc.Validate(a, prefs), reverts.ErrDuplicateRole)
	assert.NoError(t, svc.Validate(a, ValidatorPrefs{Commission: npos.PerbillFromPercent(20)}))
	assert.ErrorIs(t, svc.Validate(a, ValidatorPrefs{Commission: npos.Perbill(2e9)}), reverts.ErrBadCommission)
}

func TestNominateRejections(t *testing.T) {
	svc := newService(t)
	a := addr("a")

	assert.ErrorIs(t, svc.Nominate(a, nil, 0, 16), reverts.ErrInvalidNominationTargets)
	assert.ErrorIs(t, svc.Nominate(a, []npos.Address{addr("x"), addr("x")}, 0, 16), reverts.ErrInvalidNominationTargets)
	assert.ErrorIs(t, svc.Nominate(a, []npos.Address{addr("x"), addr("y"), addr("z")}, 0, 2), reverts.ErrInvalidNominationTargets)

	r, err := svc.Get(a)
	require.NoError(t, err)
	assert.Equal(t, KindIdle, r.Kind())
}

func TestValidatorOrderIsDeclarationOrder(t *testing.T) {
	svc := newService(t)
	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, svc.Validate(addr(n), ValidatorPrefs{}))
	}
	// updating prefs keeps the position
	require.NoError(t, svc.Validate(addr("c"), ValidatorPrefs{Commission: 1}))

	vals, err := svc.Validators()
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("c"), addr("a"), addr("b")}, vals)
}

func TestSuppress(t *testing.T) {
	svc := newService(t)
	a := addr("a")
	require.NoError(t, svc.Nominate(a, []npos.Address{addr("v")}, 1, 16))
	require.NoError(t, svc.Suppress(a))

	r, err := svc.Get(a)
	require.NoError(t, err)
	assert.True(t, r.(Nominator).Nominations.Suppressed)

	// no-op on validators
	require.NoError(t, svc.Validate(addr("v"), ValidatorPrefs{}))
	require.NoError(t, svc.Suppress(addr("v")))
}
