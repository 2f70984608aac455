// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/balances"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/staking"
	"github.com/vechain/npos/staking/ledger"
	"github.com/vechain/npos/staking/roles"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

var logger = log.WithContext("pkg", "genesis")

// Network is a staking engine set up by a genesis.
type Network struct {
	Staking    *staking.Staking
	Balances   *balances.Balances
	Validators []npos.Address // validators of era 0
}

// Builder helper to build the genesis state.
type Builder struct {
	launchTime     uint64
	config         npos.Config
	minimumBalance *big.Int
	treasury       *npos.Address
	invulnerables  []npos.Address
	accounts       []Account
	stakers        []Staker
	stateProcs     []func(st *state.State, b *balances.Balances) error
}

// NewBuilder creates a builder with the default config.
func NewBuilder() *Builder {
	return &Builder{config: npos.DefaultConfig()}
}

// LaunchTime sets the start of era 0, in milliseconds.
func (b *Builder) LaunchTime(t uint64) *Builder {
	b.launchTime = t
	return b
}

// Config overrides the non-zero fields of the default config.
func (b *Builder) Config(override npos.Config) *Builder {
	b.config = b.config.Merge(override)
	return b
}

// MinimumBalance sets the existential deposit of the balance module.
func (b *Builder) MinimumBalance(v *big.Int) *Builder {
	b.minimumBalance = v
	return b
}

// Treasury sets the account receiving unpaid inflation and slash remainders.
func (b *Builder) Treasury(addr npos.Address) *Builder {
	b.treasury = &addr
	return b
}

// Invulnerables sets the validators that are never slashed.
func (b *Builder) Invulnerables(addrs ...npos.Address) *Builder {
	b.invulnerables = append(b.invulnerables, addrs...)
	return b
}

// Account adds an endowed account.
func (b *Builder) Account(acc Account) *Builder {
	b.accounts = append(b.accounts, acc)
	return b
}

// Staker adds a genesis staker. Its stash must be endowed.
func (b *Builder) Staker(s Staker) *Builder {
	b.stakers = append(b.stakers, s)
	return b
}

// State add a state process, run after the accounts are endowed.
func (b *Builder) State(proc func(st *state.State, b *balances.Balances) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// ComputeID returns the id of the genesis, which is stored by Build.
func (b *Builder) ComputeID() (npos.Bytes32, error) {
	var err error
	id := npos.Blake2bFn(func(w io.Writer) {
		err = rlp.Encode(w, []any{
			b.launchTime,
			b.config,
			b.minimumBalance,
			b.treasury,
			b.invulnerables,
			b.accounts,
			b.stakers,
		})
	})
	if err != nil {
		return npos.Bytes32{}, errors.Wrap(err, "encode genesis")
	}
	return id, nil
}

// Build writes the genesis into st, elects the validators of era 0 and commits st.
// It fails when st already holds a genesis.
func (b *Builder) Build(st *state.State, opts ...staking.Option) (*Network, error) {
	if err := b.config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	idValue := storage.NewValue[npos.Bytes32](st, "genesis-id")
	if exists, err := idValue.Exists(); err != nil {
		return nil, err
	} else if exists {
		return nil, errors.New("genesis already built")
	}

	bal := balances.New(st, b.minimumBalance)
	for _, acc := range b.accounts {
		if acc.Balance == nil || acc.Balance.Sign() < 1 {
			return nil, errors.Errorf("%v: balance must be a non-zero integer", acc.Address)
		}
		if err := bal.Deposit(acc.Address, acc.Balance); err != nil {
			return nil, errors.Wrapf(err, "endow %v", acc.Address)
		}
	}
	for _, proc := range b.stateProcs {
		if err := proc(st, bal); err != nil {
			return nil, errors.Wrap(err, "state process")
		}
	}

	launchTime := b.launchTime
	clock := func() uint64 { return launchTime }
	opts = append([]staking.Option{staking.WithClock(clock)}, opts...)
	if b.treasury != nil {
		opts = append(opts, staking.WithTreasury(*b.treasury))
	}
	stk := staking.New(st, b.config, bal, opts...)

	if len(b.invulnerables) > 0 {
		if err := stk.SetInvulnerables(b.invulnerables); err != nil {
			return nil, err
		}
	}
	for _, s := range b.stakers {
		if err := b.bond(stk, s); err != nil {
			return nil, errors.Wrapf(err, "staker %v", s.Stash)
		}
	}

	validators, err := stk.Start()
	if err != nil {
		return nil, err
	}
	id, err := b.ComputeID()
	if err != nil {
		return nil, err
	}
	if err := idValue.Set(id); err != nil {
		return nil, err
	}
	if err := st.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit state")
	}
	logger.Info("genesis built", "accounts", len(b.accounts), "stakers", len(b.stakers), "validators", len(validators))

	return &Network{Staking: stk, Balances: bal, Validators: validators}, nil
}

func (b *Builder) bond(stk *staking.Staking, s Staker) error {
	controller := s.Stash
	if s.Controller != nil {
		controller = *s.Controller
	}
	if s.Value == nil {
		return errors.New("value must be set")
	}
	if err := stk.Bond(s.Stash, controller, s.Value, s.Payee); err != nil {
		return err
	}

	switch s.Role {
	case RoleValidator:
		return stk.Validate(s.Stash, roles.ValidatorPrefs{Commission: s.Commission})
	case RoleNominator:
		return stk.Nominate(s.Stash, s.Targets)
	case RoleIdle, "":
		return nil
	}
	return errors.Errorf("invalid role %q", s.Role)
}

// ID returns the genesis id stored in st, false when st holds no genesis.
func ID(st *state.State) (npos.Bytes32, bool, error) {
	v := storage.NewValue[npos.Bytes32](st, "genesis-id")
	exists, err := v.Exists()
	if err != nil || !exists {
		return npos.Bytes32{}, false, err
	}
	id, err := v.Get()
	return id, err == nil, err
}

// Open recreates the engine over a state built by a genesis with the same config and treasury.
func (b *Builder) Open(st *state.State, opts ...staking.Option) (*Network, error) {
	id, ok, err := ID(st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("no genesis found")
	}
	want, err := b.ComputeID()
	if err != nil {
		return nil, err
	}
	if id != want {
		return nil, errors.Errorf("genesis mismatch: stored %v, expected %v", id, want)
	}
	if b.treasury != nil {
		opts = append(opts, staking.WithTreasury(*b.treasury))
	}
	bal := balances.New(st, b.minimumBalance)
	stk := staking.New(st, b.config, bal, opts...)
	active, ok, err := stk.ActiveEra()
	if err != nil {
		return nil, err
	}
	var validators []npos.Address
	if ok {
		if validators, err = stk.EraValidators(active.Index); err != nil {
			return nil, err
		}
	}
	return &Network{Staking: stk, Balances: bal, Validators: validators}, nil
}

// Role is the role a genesis staker takes.
type Role string

const (
	RoleIdle      Role = "idle"
	RoleValidator Role = "validator"
	RoleNominator Role = "nominator"
)

// Account is an endowed account.
type Account struct {
	Address npos.Address `yaml:"address"`
	Balance *big.Int     `yaml:"balance"`
}

// Staker is a stash bonded at genesis.
type Staker struct {
	Stash      npos.Address             `yaml:"stash"`
	Controller *npos.Address            `yaml:"controller,omitempty" rlp:"nil"`
	Value      *big.Int                 `yaml:"value"`
	Payee      ledger.RewardDestination `yaml:"payee"`
	Role       Role                     `yaml:"role"`
	Commission npos.Perbill             `yaml:"commission"`
	Targets    []npos.Address           `yaml:"targets,omitempty"`
}
