// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/staking/events"
)

// eventFilter builds the log db filter from the command line flags.
func eventFilter(ctx *cli.Context) (*logdb.EventFilter, error) {
	criteria := &logdb.EventCriteria{}
	if kind := ctx.String(kindFlag.Name); kind != "" {
		k := events.Kind(kind)
		criteria.Kind = &k
	}
	if s := ctx.String(stashFlag.Name); s != "" {
		stash, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		criteria.Stash = &stash
	}
	if s := ctx.String(otherFlag.Name); s != "" {
		other, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		criteria.Other = &other
	}

	filter := &logdb.EventFilter{
		Range: &logdb.Range{From: npos.EraIndex(ctx.Uint64(fromEraFlag.Name)), To: math.MaxUint32},
		Order: logdb.ASC,
	}
	if to := ctx.Int64(toEraFlag.Name); to >= 0 {
		filter.Range.To = npos.EraIndex(to)
		if filter.Range.To < filter.Range.From {
			return nil, errors.Errorf("era range [%v, %v] is empty", filter.Range.From, filter.Range.To)
		}
	}
	if criteria.Kind != nil || criteria.Stash != nil || criteria.Other != nil {
		filter.CriteriaSet = []*logdb.EventCriteria{criteria}
	}
	if ctx.Bool(descFlag.Name) {
		filter.Order = logdb.DESC
	}
	return filter, nil
}

func eventsAction(ctx *cli.Context) error {
	if path := ctx.String(fileFlag.Name); path != "" {
		evs, err := readSnappyEvents(path)
		if err != nil {
			return errors.Wrapf(err, "read %v", path)
		}
		for _, ev := range evs {
			fmt.Println(ev)
		}
		return nil
	}

	filter, err := eventFilter(ctx)
	if err != nil {
		return err
	}
	filter.Options = &logdb.Options{
		Offset: ctx.Uint64(offsetFlag.Name),
		Limit:  ctx.Uint64(limitFlag.Name),
	}

	in, err := openForRead(ctx)
	if err != nil {
		return err
	}
	defer in.Close()

	evs, err := in.logDB.FilterEvents(handleExitSignal(), filter)
	if err != nil {
		return err
	}
	for _, ev := range evs {
		fmt.Println(ev)
	}
	return nil
}

// exportAction writes the matching events as snappy framed json lines.
func exportAction(ctx *cli.Context) error {
	filter, err := eventFilter(ctx)
	if err != nil {
		return err
	}

	in, err := openForRead(ctx)
	if err != nil {
		return err
	}
	defer in.Close()

	evs, err := in.logDB.FilterEvents(handleExitSignal(), filter)
	if err != nil {
		return err
	}

	path := ctx.String(outFlag.Name)
	if err := writeSnappyEvents(path, evs); err != nil {
		return err
	}
	logger.Info("events exported", "count", len(evs), "path", path)
	return nil
}

func writeSnappyEvents(path string, evs []*events.Event) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := snappy.NewBufferedWriter(f)
	enc := json.NewEncoder(w)
	for _, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return errors.Wrap(err, "encode event")
		}
	}
	return w.Close()
}

// readSnappyEvents reads back a file written by writeSnappyEvents.
func readSnappyEvents(path string) ([]*events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var evs []*events.Event
	scanner := bufio.NewScanner(snappy.NewReader(f))
	for scanner.Scan() {
		var ev events.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, errors.Wrap(err, "decode event")
		}
		evs = append(evs, &ev)
	}
	return evs, scanner.Err()
}
