// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos"
	"github.com/vechain/npos/admin"
	"github.com/vechain/npos/cmd/npos/httpserver"
	"github.com/vechain/npos/health"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/staking"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/staking/rewards"
	"github.com/vechain/npos/storage"
)

// the reporter of the simulated offences
var simReporter = npos.BytesToAddress([]byte("simulator/reporter"))

// simulator drives the session feed, the authorship feed and the offence feed of an instance.
// The randomness of a session only depends on the seed and the session index, so that an
// interrupted simulation resumes where it stopped.
type simulator struct {
	in               *instance
	seed             int64
	blocksPerSession int
	offenceRate      float64
	sessionMillis    uint64
	launchTime       uint64
	now              uint64

	session *storage.Value[npos.SessionIndex]
	board   *admin.StatusBoard
	health  *health.Health
}

func simulateAction(ctx *cli.Context) error {
	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	sessionMillis := uint64(ctx.Duration(sessionDurationFlag.Name).Milliseconds())
	if sessionMillis == 0 {
		sessionMillis = rewards.MillisecondsPerYear / 1460
	}
	sim := &simulator{
		seed:             ctx.Int64(seedFlag.Name),
		blocksPerSession: int(ctx.Uint64(blocksPerSessionFlag.Name)),
		offenceRate:      ctx.Float64(offenceRateFlag.Name),
		sessionMillis:    sessionMillis,
		board:            &admin.StatusBoard{},
		health:           health.New(time.Minute),
	}

	in, err := openInstance(ctx, func() uint64 { return sim.now })
	if err != nil {
		return err
	}
	defer in.Close()
	if err := sim.attach(in); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(handleExitSignal())
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	if ctx.Bool(enableMetricsFlag.Name) {
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		logger.Info("metrics server started", "url", url)
		g.Go(func() error {
			<-runCtx.Done()
			closeFunc()
			return nil
		})
	}
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, sim.board, sim.health)
		if err != nil {
			return err
		}
		logger.Info("admin server started", "url", url)
		g.Go(func() error {
			<-runCtx.Done()
			closeFunc()
			return nil
		})
	}

	n := ctx.Uint64(sessionsFlag.Name)
	g.Go(func() error {
		defer stop()
		return sim.run(runCtx, n, !ctx.Bool(noProgressFlag.Name))
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *simulator) attach(in *instance) error {
	s.in = in
	s.launchTime = in.genesis.LaunchTime
	s.session = storage.NewValue[npos.SessionIndex](in.state, "simulator/session")

	session, err := s.session.Get()
	if err != nil {
		return err
	}
	s.now = s.launchTime + uint64(session)*s.sessionMillis
	return s.publish(session)
}

func (s *simulator) run(ctx context.Context, n uint64, progress bool) error {
	first, err := s.session.Get()
	if err != nil {
		return err
	}
	logger.Info("simulating", "from-session", first, "sessions", n)

	s.health.Running(true)
	defer s.health.Running(false)

	bar := pb.New64(int64(n)).SetMaxWidth(90)
	bar.NotPrint = !progress
	bar.Start()
	defer func() { bar.NotPrint = true }()

	start := time.Now()
	for i := range npos.SessionIndex(n) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.step(first + i); err != nil {
			return errors.Wrapf(err, "session %d", first+i)
		}
		bar.Add64(1)
	}
	bar.Finish()
	logger.Info("simulation done", "sessions", n, "elapsed", time.Since(start))
	return nil
}

// step plays a session: blocks are authored, an offence may be reported, then the session
// ends and the next one starts. The state and the events are committed at the end.
func (s *simulator) step(session npos.SessionIndex) error {
	stk := s.in.network.Staking
	rnd := rand.New(rand.NewPCG(uint64(s.seed), uint64(session)))

	active, ok, err := stk.ActiveEra()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("staking not started")
	}
	validators, err := stk.EraValidators(active.Index)
	if err != nil {
		return err
	}

	if len(validators) > 0 {
		for range s.blocksPerSession {
			if err := stk.NoteAuthor(validators[rnd.IntN(len(validators))]); err != nil {
				return err
			}
		}
		if rnd.Float64() < s.offenceRate {
			offender := validators[rnd.IntN(len(validators))]
			err := stk.ReportOffence(&staking.OffenceReport{
				Offenders: []staking.Offender{{Validator: offender, Era: active.Index}},
				Fraction:  npos.PerbillFromPercent(uint32(1 + rnd.IntN(20))),
				Reporters: []npos.Address{simReporter},
			})
			if err != nil && !reverts.IsRevertErr(err) {
				return err
			}
		}
	}

	if _, _, err := stk.OnSessionEnd(session); err != nil {
		return err
	}
	s.now += s.sessionMillis
	if err := stk.OnNewSession(session + 1); err != nil {
		return err
	}

	next, _, err := stk.ActiveEra()
	if err != nil {
		return err
	}
	if next.Index != active.Index {
		for _, v := range validators {
			if err := stk.PayoutStakers(active.Index, v); err != nil {
				if !reverts.IsRevertErr(err) {
					return err
				}
				logger.Debug("payout skipped", "era", active.Index, "validator", v, "err", err)
			}
		}
	}

	if err := s.session.Set(session + 1); err != nil {
		return err
	}
	w := s.in.logDB.NewWriter()
	if err := w.Write(stk.Events()); err != nil {
		_ = w.Rollback()
		return err
	}
	if err := s.in.state.Commit(); err != nil {
		_ = w.Rollback()
		return errors.Wrap(err, "commit state")
	}
	if err := w.Commit(); err != nil {
		return errors.Wrap(err, "commit events")
	}
	s.health.NewSession(session + 1)
	return s.publish(session + 1)
}

func (s *simulator) publish(session npos.SessionIndex) error {
	stk := s.in.network.Staking
	status := &admin.Status{
		Session: session,
		Phase:   stk.Phase().String(),
	}
	active, ok, err := stk.ActiveEra()
	if err != nil {
		return err
	}
	if ok {
		status.ActiveEra = active.Index
		if status.Validators, err = stk.EraValidators(active.Index); err != nil {
			return err
		}
	}
	if status.CurrentEra, err = stk.CurrentEra(); err != nil {
		return err
	}
	forcing, err := stk.Forcing()
	if err != nil {
		return err
	}
	status.Forcing = forcing.String()
	totals, err := stk.Totals()
	if err != nil {
		return err
	}
	status.Bonded, status.Slashed, status.Rewarded = totals.Bonded, totals.Slashed, totals.Rewarded

	s.board.Publish(status)
	return nil
}
