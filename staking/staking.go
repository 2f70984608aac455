// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/staking/election"
	"github.com/vechain/npos/staking/events"
	"github.com/vechain/npos/staking/globalstats"
	"github.com/vechain/npos/staking/history"
	"github.com/vechain/npos/staking/ledger"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/staking/rewards"
	"github.com/vechain/npos/staking/roles"
	"github.com/vechain/npos/staking/slashing"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

var logger = log.WithContext("pkg", "staking")

func SetLogger(l log.Logger) {
	logger = l
}

// Forcing overrides the session count when deciding to plan a new era.
type Forcing uint8

const (
	NotForcing Forcing = iota
	// ForceNew plans a new era at the next session end, then falls back to NotForcing.
	ForceNew
	// ForceNone never plans a new era.
	ForceNone
	// ForceAlways plans a new era at every session end.
	ForceAlways
)

func (f Forcing) String() string {
	switch f {
	case NotForcing:
		return "not-forcing"
	case ForceNew:
		return "force-new"
	case ForceNone:
		return "force-none"
	case ForceAlways:
		return "force-always"
	default:
		return "unknown"
	}
}

// ActiveEra is the era whose validators are producing blocks. Start is a unix timestamp in milliseconds.
type ActiveEra struct {
	Index npos.EraIndex
	Start uint64
}

// Phase is the step of the era rotation the engine is at.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseElecting
	PhaseExposureCommitted
	PhaseRewardSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseElecting:
		return "electing"
	case PhaseExposureCommitted:
		return "exposure-committed"
	case PhaseRewardSettled:
		return "reward-settled"
	default:
		return "unknown"
	}
}

// Option configures a Staking instance.
type Option func(*Staking)

// WithCurve sets the reward curve, DefaultCurve otherwise.
func WithCurve(c rewards.Curve) Option {
	return func(s *Staking) { s.curve = c }
}

// WithClock sets the source of the current time in milliseconds.
func WithClock(clock func() uint64) Option {
	return func(s *Staking) { s.clock = clock }
}

// WithTreasury sets the account receiving the unpaid inflation and the unrewarded slashes.
// They are burnt when no treasury is set.
func WithTreasury(treasury npos.Address) Option {
	return func(s *Staking) { s.treasury = &treasury }
}

// Staking is the staking engine. It holds no state of its own besides what is stored in the
// state, and it is not safe for concurrent use.
type Staking struct {
	state    *state.State
	config   npos.Config
	currency Currency
	curve    rewards.Curve
	clock    func() uint64
	treasury *npos.Address

	ledgerService   *ledger.Service
	roleService     *roles.Service
	historyService  *history.Service
	rewardService   *rewards.Service
	slashingService *slashing.Service
	statsService    *globalstats.Service
	recorder        events.Recorder
	phase           Phase

	currentEra     *storage.Value[npos.EraIndex]
	activeEra      *storage.Value[*ActiveEra]
	validatorCount *storage.Value[uint32]
	forcing        *storage.Value[Forcing]
	invulnerables  *storage.Value[[]npos.Address]
}

// New creates the engine over st.
func New(st *state.State, config npos.Config, currency Currency, opts ...Option) *Staking {
	s := &Staking{
		state:    st,
		config:   config,
		currency: currency,
		curve:    rewards.DefaultCurve(),
		clock:    func() uint64 { return uint64(time.Now().UnixMilli()) },

		ledgerService:   ledger.New(st),
		roleService:     roles.New(st),
		historyService:  history.New(st),
		rewardService:   rewards.New(st),
		slashingService: slashing.New(st),
		statsService:    globalstats.New(st),

		currentEra:     storage.NewValue[npos.EraIndex](st, "current-era"),
		activeEra:      storage.NewValue[*ActiveEra](st, "active-era"),
		validatorCount: storage.NewValue[uint32](st, "validator-count"),
		forcing:        storage.NewValue[Forcing](st, "force-era"),
		invulnerables:  storage.NewValue[[]npos.Address](st, "invulnerables"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// atomic runs fn under a state checkpoint. Any error reverts the state and drops the events
// fn emitted.
func (s *Staking) atomic(op string, fn func() error) error {
	rev := s.state.NewCheckpoint()
	mark := s.recorder.Mark()
	if err := fn(); err != nil {
		s.state.RevertTo(rev)
		s.recorder.Rewind(mark)
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
		}
		metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "result": result})
		return err
	}
	metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	return nil
}

func (s *Staking) emit(kind events.Kind, stash, other npos.Address, amount *big.Int) {
	s.recorder.Emit(kind, stash, other, amount)
}

//
// Getters - no state change
//

func (s *Staking) Config() npos.Config {
	return s.config
}

// State returns the state the engine writes to. Callers commit it.
func (s *Staking) State() *state.State {
	return s.state
}

// Phase returns the last rotation step reached.
func (s *Staking) Phase() Phase {
	return s.phase
}

func (s *Staking) setPhase(p Phase) {
	if s.phase != p {
		logger.Trace("era phase", "from", s.phase, "to", p)
	}
	s.phase = p
}

// Events returns and clears the events of the operations done since the last call.
func (s *Staking) Events() []*events.Event {
	return s.recorder.Drain()
}

// CurrentEra returns the latest planned era.
func (s *Staking) CurrentEra() (npos.EraIndex, error) {
	return s.currentEra.Get()
}

// ActiveEra returns the active era, false before Start.
func (s *Staking) ActiveEra() (*ActiveEra, bool, error) {
	exists, err := s.activeEra.Exists()
	if err != nil || !exists {
		return nil, false, err
	}
	active, err := s.activeEra.Get()
	if err != nil {
		return nil, false, err
	}
	return active, true, nil
}

func (s *Staking) mustActiveEra() (*ActiveEra, error) {
	active, ok, err := s.ActiveEra()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("staking not started")
	}
	return active, nil
}

// ValidatorCount returns the number of validators to elect.
func (s *Staking) ValidatorCount() (uint32, error) {
	exists, err := s.validatorCount.Exists()
	if err != nil {
		return 0, err
	}
	if !exists {
		return s.config.ValidatorCount, nil
	}
	return s.validatorCount.Get()
}

func (s *Staking) Forcing() (Forcing, error) {
	return s.forcing.Get()
}

func (s *Staking) Invulnerables() ([]npos.Address, error) {
	return s.invulnerables.Get()
}

// Ledger returns the ledger of stash, nil if not bonded.
func (s *Staking) Ledger(stash npos.Address) (*ledger.Ledger, error) {
	return s.ledgerService.Get(stash)
}

// StashOf returns the stash controlled by controller.
func (s *Staking) StashOf(controller npos.Address) (npos.Address, error) {
	return s.ledgerService.StashOf(controller)
}

func (s *Staking) Controller(stash npos.Address) (npos.Address, error) {
	return s.ledgerService.Controller(stash)
}

func (s *Staking) Payee(stash npos.Address) (ledger.RewardDestination, error) {
	return s.ledgerService.Payee(stash)
}

// Role returns the declared role of stash.
func (s *Staking) Role(stash npos.Address) (roles.Role, error) {
	return s.roleService.Get(stash)
}

// Validators returns the validator intents in declaration order.
func (s *Staking) Validators() ([]npos.Address, error) {
	return s.roleService.Validators()
}

// Nominators returns the nominator intents in declaration order.
func (s *Staking) Nominators() ([]npos.Address, error) {
	return s.roleService.Nominators()
}

// EraValidators returns the validators elected for era.
func (s *Staking) EraValidators(era npos.EraIndex) ([]npos.Address, error) {
	return s.historyService.Validators(era)
}

// Exposure returns the exposure of validator in era, nil if it was not elected.
func (s *Staking) Exposure(era npos.EraIndex, validator npos.Address) (*election.Exposure, error) {
	return s.historyService.Exposure(era, validator)
}

func (s *Staking) EraTotalStake(era npos.EraIndex) (*big.Int, error) {
	return s.historyService.TotalStake(era)
}

func (s *Staking) EraStartSession(era npos.EraIndex) (npos.SessionIndex, bool, error) {
	return s.historyService.StartSession(era)
}

func (s *Staking) EraPoints(era npos.EraIndex) (*rewards.EraRewardPoints, error) {
	return s.rewardService.Points(era)
}

// EraReward returns the validator reward pool of a settled era.
func (s *Staking) EraReward(era npos.EraIndex) (*big.Int, error) {
	return s.rewardService.EraReward(era)
}

func (s *Staking) IsClaimed(era npos.EraIndex, validator npos.Address) (bool, error) {
	return s.rewardService.IsClaimed(era, validator)
}

func (s *Staking) SlashingSpans(stash npos.Address) (*slashing.SlashingSpans, error) {
	return s.slashingService.Spans(stash)
}

func (s *Staking) ValidatorSlashInEra(era npos.EraIndex, stash npos.Address) (*slashing.ValidatorSlash, error) {
	return s.slashingService.ValidatorSlashInEra(era, stash)
}

func (s *Staking) NominatorSlashInEra(era npos.EraIndex, stash npos.Address) (*big.Int, error) {
	return s.slashingService.NominatorSlashInEra(era, stash)
}

// UnappliedSlashes returns the slashes queued for applyEra.
func (s *Staking) UnappliedSlashes(applyEra npos.EraIndex) ([]*slashing.UnappliedSlash, error) {
	return s.slashingService.Unapplied(applyEra)
}

// Totals are the engine wide staking figures.
type Totals struct {
	Bonded    *big.Int
	Unlocking *big.Int
	Slashed   *big.Int
	Rewarded  *big.Int
}

func (s *Staking) Totals() (*Totals, error) {
	var (
		t   Totals
		err error
	)
	if t.Bonded, err = s.statsService.Bonded(); err != nil {
		return nil, err
	}
	if t.Unlocking, err = s.statsService.Unlocking(); err != nil {
		return nil, err
	}
	if t.Slashed, err = s.statsService.Slashed(); err != nil {
		return nil, err
	}
	if t.Rewarded, err = s.statsService.Rewarded(); err != nil {
		return nil, err
	}
	return &t, nil
}
