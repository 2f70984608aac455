// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/roles"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

func parseAddress(s string) (npos.Address, error) {
	var addr npos.Address
	if err := addr.UnmarshalText([]byte(s)); err != nil {
		return npos.Address{}, errors.Wrapf(err, "address %q", s)
	}
	return addr, nil
}

func openForRead(ctx *cli.Context) (*instance, error) {
	initLogger(ctx)
	return openInstance(ctx, nil)
}

func showEraAction(ctx *cli.Context) error {
	in, err := openForRead(ctx)
	if err != nil {
		return err
	}
	defer in.Close()
	stk := in.network.Staking

	active, ok, err := stk.ActiveEra()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("staking not started")
	}
	era := active.Index
	if ctx.NArg() > 0 {
		v, err := strconv.ParseUint(ctx.Args().First(), 10, 32)
		if err != nil {
			return errors.Wrap(err, "era")
		}
		era = npos.EraIndex(v)
	}

	current, err := stk.CurrentEra()
	if err != nil {
		return err
	}
	forcing, err := stk.Forcing()
	if err != nil {
		return err
	}
	validators, err := stk.EraValidators(era)
	if err != nil {
		return err
	}
	total, err := stk.EraTotalStake(era)
	if err != nil {
		return err
	}
	startSession, _, err := stk.EraStartSession(era)
	if err != nil {
		return err
	}
	points, err := stk.EraPoints(era)
	if err != nil {
		return err
	}
	reward, err := stk.EraReward(era)
	if err != nil {
		return err
	}

	fmt.Printf("era:           %v (active %v, current %v, forcing %v)\n", era, active.Index, current, forcing)
	fmt.Printf("start session: %v\n", startSession)
	fmt.Printf("total stake:   %v\n", total)
	fmt.Printf("points:        %v\n", points.Total)
	fmt.Printf("reward:        %v\n", reward)
	fmt.Printf("validators:    %v\n", len(validators))
	for _, v := range validators {
		exposure, err := stk.Exposure(era, v)
		if err != nil {
			return err
		}
		claimed, err := stk.IsClaimed(era, v)
		if err != nil {
			return err
		}
		if ctx.Bool(rawFlag.Name) {
			dumper.Dump(v, exposure)
			continue
		}
		fmt.Printf("  %v own %v total %v nominators %v points %v claimed %v\n",
			v.AbbrevString(), exposure.Own, exposure.Total, len(exposure.Others), points.Of(v), claimed)
	}
	return nil
}

func showStashAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("stash required")
	}
	stash, err := parseAddress(ctx.Args().First())
	if err != nil {
		return err
	}
	in, err := openForRead(ctx)
	if err != nil {
		return err
	}
	defer in.Close()
	stk := in.network.Staking

	l, err := stk.Ledger(stash)
	if err != nil {
		return err
	}
	if l == nil {
		return errors.Errorf("%v is not bonded", stash)
	}
	controller, err := stk.Controller(stash)
	if err != nil {
		return err
	}
	payee, err := stk.Payee(stash)
	if err != nil {
		return err
	}
	role, err := stk.Role(stash)
	if err != nil {
		return err
	}
	spans, err := stk.SlashingSpans(stash)
	if err != nil {
		return err
	}
	free, err := in.network.Balances.FreeBalance(stash)
	if err != nil {
		return err
	}
	locked, err := in.network.Balances.Locked(stash)
	if err != nil {
		return err
	}

	if ctx.Bool(rawFlag.Name) {
		dumper.Dump(l, role, spans)
		return nil
	}
	fmt.Printf("stash:      %v\n", stash)
	fmt.Printf("controller: %v\n", controller)
	fmt.Printf("payee:      %v\n", payee)
	fmt.Printf("balance:    %v (locked %v)\n", free, locked)
	fmt.Printf("bonded:     %v (active %v)\n", l.Total, l.Active)
	for _, c := range l.Unlocking {
		fmt.Printf("  unlocking %v at era %v\n", c.Value, c.Era)
	}
	switch r := role.(type) {
	case roles.Validator:
		fmt.Printf("role:       validator, commission %v\n", r.Prefs.Commission)
	case roles.Nominator:
		fmt.Printf("role:       nominator of %v targets since era %v\n", len(r.Nominations.Targets), r.Nominations.SubmittedIn)
		for _, t := range r.Nominations.Targets {
			fmt.Printf("  %v\n", t)
		}
	default:
		fmt.Printf("role:       idle\n")
	}
	if spans != nil {
		fmt.Printf("spans:      index %v, last start %v, last slash %v\n", spans.SpanIndex, spans.LastStart, spans.LastNonzeroSlash)
	}
	return nil
}

func showTotalsAction(ctx *cli.Context) error {
	in, err := openForRead(ctx)
	if err != nil {
		return err
	}
	defer in.Close()

	totals, err := in.network.Staking.Totals()
	if err != nil {
		return err
	}
	issuance, err := in.network.Balances.TotalIssuance()
	if err != nil {
		return err
	}
	if ctx.Bool(rawFlag.Name) {
		dumper.Dump(totals)
		stats, err := in.mainDB.Stats()
		if err != nil {
			return err
		}
		fmt.Println(stats)
		return nil
	}
	fmt.Printf("issuance:  %v\n", issuance)
	fmt.Printf("bonded:    %v\n", totals.Bonded)
	fmt.Printf("unlocking: %v\n", totals.Unlocking)
	fmt.Printf("slashed:   %v\n", totals.Slashed)
	fmt.Printf("rewarded:  %v\n", totals.Rewarded)
	return nil
}
