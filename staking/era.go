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
	"github.com/vechain/npos/staking/election"
	"github.com/vechain/npos/staking/events"
	"github.com/vechain/npos/staking/history"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/staking/roles"
	"github.com/vechain/npos/staking/slashing"
)

// Start elects the validators of era 0 and activates it at session 0.
func (s *Staking) Start() ([]npos.Address, error) {
	if _, ok, err := s.ActiveEra(); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.New("staking already started")
	}

	var winners []npos.Address
	err := s.atomic("start", func() (err error) {
		s.recorder.SetEra(0)
		if winners, err = s.planEra(0, 0); err != nil {
			return err
		}
		return s.activateEra(0, s.clock())
	})
	if err != nil {
		s.setPhase(PhaseIdle)
		return nil, errors.Wrap(err, "start")
	}
	logger.Info("staking started", "validators", len(winners))
	return winners, nil
}

// OnSessionEnd is called when session ending is over. It plans the next era when enough sessions
// passed or a new era is forced, and returns its validators. An election without enough winners keeps
// the current validators: nothing is planned and nothing is returned.
func (s *Staking) OnSessionEnd(ending npos.SessionIndex) ([]npos.Address, bool, error) {
	forcing, err := s.forcing.Get()
	if err != nil {
		return nil, false, err
	}
	if forcing == ForceNone {
		return nil, false, nil
	}
	active, err := s.mustActiveEra()
	if err != nil {
		return nil, false, err
	}
	current, err := s.currentEra.Get()
	if err != nil {
		return nil, false, err
	}
	if current > active.Index {
		// planned, waiting for activation
		return nil, false, nil
	}
	start, _, err := s.historyService.StartSession(active.Index)
	if err != nil {
		return nil, false, err
	}
	due := ending+1 >= start && ending+1-start >= s.config.SessionsPerEra
	if !due && forcing != ForceNew && forcing != ForceAlways {
		return nil, false, nil
	}

	next := current + 1
	var winners []npos.Address
	err = s.atomic("plan-era", func() (err error) {
		if winners, err = s.planEra(next, ending+1); err != nil {
			return err
		}
		if forcing == ForceNew {
			return s.forcing.Set(NotForcing)
		}
		return nil
	})
	if err != nil {
		s.setPhase(PhaseIdle)
		if errors.Is(err, reverts.ErrElectionProducedNoWinners) {
			logger.Warn("keeping the validator set", "era", next, "error", err)
			metricElectionFailures().Add(1)
			s.emit(events.ElectionFailed, npos.Address{}, npos.Address{}, nil)
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "plan era %d", next)
	}
	logger.Info("era planned", "era", next, "start", ending+1, "validators", len(winners), "forcing", forcing)
	return winners, true, nil
}

// OnNewSession is called when session start begins. When it is the first session of the planned era,
// the active era is settled and the planned one becomes active.
func (s *Staking) OnNewSession(start npos.SessionIndex) error {
	current, err := s.currentEra.Get()
	if err != nil {
		return err
	}
	planned, ok, err := s.historyService.StartSession(current)
	if err != nil {
		return err
	}
	if !ok || planned != start {
		return nil
	}
	active, err := s.mustActiveEra()
	if err != nil {
		return err
	}
	if active.Index == current {
		return nil
	}

	err = s.atomic("activate-era", func() error {
		now := s.clock()
		if err := s.settleEra(active, now); err != nil {
			return err
		}
		return s.activateEra(current, now)
	})
	if err != nil {
		s.setPhase(PhaseIdle)
		return errors.Wrapf(err, "activate era %d", current)
	}
	logger.Info("era activated", "era", current, "session", start)
	return nil
}

// planEra elects the validators of era and records its exposures.
func (s *Staking) planEra(era npos.EraIndex, start npos.SessionIndex) ([]npos.Address, error) {
	s.setPhase(PhaseElecting)
	candidates, voters, prefs, err := s.electionSnapshot()
	if err != nil {
		return nil, err
	}
	count, err := s.ValidatorCount()
	if err != nil {
		return nil, err
	}

	began := time.Now()
	res, err := election.Elect(candidates, voters, int(count), election.Options{
		EqualiseIterations: int(s.config.EqualiseIterations),
		Tolerance:          new(big.Int).SetUint64(s.config.EqualiseTolerance),
	})
	metricElectionDuration().Observe(time.Since(began).Milliseconds())
	if err != nil {
		return nil, err
	}
	if len(res.Winners) == 0 || uint32(len(res.Winners)) < s.config.MinimumValidatorCount {
		return nil, errors.Wrapf(reverts.ErrElectionProducedNoWinners, "%d winners of %d candidates", len(res.Winners), len(candidates))
	}

	exposures := election.BuildExposures(res)
	if err := s.historyService.Commit(&history.Snapshot{
		Era:          era,
		StartSession: start,
		Validators:   res.Winners,
		Exposures:    exposures,
		Prefs:        prefs,
	}); err != nil {
		return nil, err
	}
	if err := s.currentEra.Set(era); err != nil {
		return nil, err
	}
	s.setPhase(PhaseExposureCommitted)

	total, err := s.historyService.TotalStake(era)
	if err != nil {
		return nil, err
	}
	metricCurrentEra().Set(int64(era))
	metricElectedValidators().Set(int64(len(res.Winners)))
	s.emit(events.EraPlanned, npos.Address{}, npos.Address{}, total)
	return res.Winners, nil
}

// electionSnapshot collects the candidates and voters of the next election, in declaration order.
// Targets slashed after a nomination was submitted are dropped from it.
func (s *Staking) electionSnapshot() ([]election.Candidate, []election.Voter, map[npos.Address]roles.ValidatorPrefs, error) {
	validators, err := s.roleService.Validators()
	if err != nil {
		return nil, nil, nil, err
	}
	candidates := make([]election.Candidate, 0, len(validators))
	prefs := make(map[npos.Address]roles.ValidatorPrefs, len(validators))
	for _, v := range validators {
		role, err := s.roleService.Get(v)
		if err != nil {
			return nil, nil, nil, err
		}
		validator, ok := role.(roles.Validator)
		if !ok {
			continue
		}
		l, err := s.ledgerService.Get(v)
		if err != nil {
			return nil, nil, nil, err
		}
		if l == nil || l.Active.Sign() == 0 {
			continue
		}
		candidates = append(candidates, election.Candidate{Who: v, SelfStake: new(big.Int).Set(l.Active)})
		prefs[v] = validator.Prefs
	}

	nominators, err := s.roleService.Nominators()
	if err != nil {
		return nil, nil, nil, err
	}
	spans := make(map[npos.Address]*slashing.SlashingSpans)
	lastSlash := func(target npos.Address) (*slashing.SlashingSpans, error) {
		if sp, ok := spans[target]; ok {
			return sp, nil
		}
		sp, err := s.slashingService.Spans(target)
		if err != nil {
			return nil, err
		}
		spans[target] = sp
		return sp, nil
	}

	voters := make([]election.Voter, 0, len(nominators))
	for _, n := range nominators {
		role, err := s.roleService.Get(n)
		if err != nil {
			return nil, nil, nil, err
		}
		nominator, ok := role.(roles.Nominator)
		if !ok {
			continue
		}
		l, err := s.ledgerService.Get(n)
		if err != nil {
			return nil, nil, nil, err
		}
		if l == nil || l.Active.Sign() == 0 {
			continue
		}
		targets := make([]npos.Address, 0, len(nominator.Nominations.Targets))
		for _, t := range nominator.Nominations.Targets {
			sp, err := lastSlash(t)
			if err != nil {
				return nil, nil, nil, err
			}
			if sp == nil || nominator.Nominations.SubmittedIn >= sp.LastNonzeroSlash {
				targets = append(targets, t)
			}
		}
		voters = append(voters, election.Voter{Who: n, Budget: new(big.Int).Set(l.Active), Targets: targets})
	}
	return candidates, voters, prefs, nil
}

// settleEra computes the reward pool of the ending era.
func (s *Staking) settleEra(active *ActiveEra, now uint64) error {
	var duration uint64
	if now > active.Start {
		duration = now - active.Start
	}
	staked, err := s.historyService.TotalStake(active.Index)
	if err != nil {
		return err
	}
	issuance, err := s.currency.TotalIssuance()
	if err != nil {
		return err
	}
	payout, rest := s.curve.Payout(staked, issuance, duration)
	if err := s.rewardService.SetEraReward(active.Index, payout); err != nil {
		return err
	}
	if s.treasury != nil && rest.Sign() > 0 {
		if err := s.currency.Deposit(*s.treasury, rest); err != nil {
			return err
		}
	}
	s.setPhase(PhaseRewardSettled)
	s.emit(events.EraPaid, npos.Address{}, npos.Address{}, payout)
	logger.Debug("era settled", "era", active.Index, "duration", duration, "payout", payout, "rest", rest)
	return nil
}

// activateEra makes era the active one, applies the slashes due and prunes old history.
func (s *Staking) activateEra(era npos.EraIndex, now uint64) error {
	if err := s.activeEra.Set(&ActiveEra{Index: era, Start: now}); err != nil {
		return err
	}
	s.recorder.SetEra(era)
	s.emit(events.EraActivated, npos.Address{}, npos.Address{}, nil)

	if err := s.applyDeferredSlashes(era); err != nil {
		return err
	}
	if era > s.config.HistoryDepth {
		if err := s.pruneEra(era - s.config.HistoryDepth - 1); err != nil {
			return err
		}
	}
	metricActiveEra().Set(int64(era))
	s.setPhase(PhaseIdle)
	return nil
}

func (s *Staking) pruneEra(era npos.EraIndex) error {
	validators, err := s.historyService.Validators(era)
	if err != nil {
		return err
	}
	s.rewardService.Prune(era, validators)
	if err := s.historyService.Prune(era); err != nil {
		return err
	}
	if err := s.slashingService.Prune(era); err != nil {
		return err
	}
	logger.Debug("era pruned", "era", era)
	return nil
}
