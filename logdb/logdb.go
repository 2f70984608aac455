// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/staking/events"
)

var (
	logger = log.WithContext("pkg", "logdb")
	memSeq atomic.Uint64
)

// LogDB keeps the staking events in a sqlite database.
type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&cache=shared")
	if err != nil {
		return nil, err
	}
	return open(path, db)
}

// NewMem create a log db in ram. Every call gets its own database.
func NewMem() (*LogDB, error) {
	name := fmt.Sprintf("file:logdb-mem-%d?mode=memory&cache=shared", memSeq.Add(1))
	db, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, err
	}
	return open(":memory:", db)
}

func open(path string, db *sql.DB) (logDB *LogDB, err error) {
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("log db opened", "path", path, "sqlite", driverVer)
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	if err := db.stmtCache.Close(); err != nil {
		logger.Warn("close statements", "err", err)
	}
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// FilterEvents returns the events matching filter, in emission order unless DESC is asked.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*events.Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT era, eventIndex, kind, stash, other, amount FROM event ORDER BY id ASC")
	}
	metricsHandleEventsFilter(filter)

	var (
		args []any
		stmt strings.Builder
	)
	stmt.WriteString("SELECT era, eventIndex, kind, stash, other, amount FROM event WHERE 1")
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt.WriteString(" AND era >= ?")
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt.WriteString(" AND era <= ?")
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt.WriteString(" AND (( 1")
		} else {
			stmt.WriteString(" OR ( 1")
		}
		if criteria.Kind != nil {
			args = append(args, string(*criteria.Kind))
			stmt.WriteString(" AND kind = ?")
		}
		if criteria.Stash != nil {
			args = append(args, criteria.Stash.Bytes())
			stmt.WriteString(" AND stash = ?")
		}
		if criteria.Other != nil {
			args = append(args, criteria.Other.Bytes())
			stmt.WriteString(" AND other = ?")
		}
		stmt.WriteString(")")
		if i == len(filter.CriteriaSet)-1 {
			stmt.WriteString(")")
		}
	}

	if filter.Order == DESC {
		stmt.WriteString(" ORDER BY id DESC")
	} else {
		stmt.WriteString(" ORDER BY id ASC")
	}

	if filter.Options != nil {
		stmt.WriteString(" LIMIT ?, ?")
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt.String(), args...)
}

// NewestEra returns the era of the last written event, false when there is none.
func (db *LogDB) NewestEra() (npos.EraIndex, bool, error) {
	stmt, err := db.stmtCache.Prepare("SELECT era FROM event ORDER BY id DESC LIMIT 1")
	if err != nil {
		return 0, false, err
	}
	var era npos.EraIndex
	err = stmt.QueryRow().Scan(&era)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return era, true, nil
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*events.Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*events.Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			era    npos.EraIndex
			index  uint32
			kind   string
			stash  []byte
			other  []byte
			amount []byte
		)
		if err := rows.Scan(&era, &index, &kind, &stash, &other, &amount); err != nil {
			return nil, err
		}
		out = append(out, &events.Event{
			Era:    era,
			Index:  index,
			Kind:   events.Kind(kind),
			Stash:  npos.BytesToAddress(stash),
			Other:  npos.BytesToAddress(other),
			Amount: new(big.Int).SetBytes(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// NewWriter creates a log writer.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db.db, stmtCache: db.stmtCache}
}

// Writer writes events in a transaction that spans until Commit or Rollback.
type Writer struct {
	db          *sql.DB
	stmtCache   *stmtCache
	tx          *sql.Tx
	uncommitted int
}

// Write appends evs.
func (w *Writer) Write(evs []*events.Event) error {
	for _, ev := range evs {
		amount := ev.Amount
		if amount == nil {
			amount = new(big.Int)
		}
		if err := w.exec(
			"INSERT INTO event(era, eventIndex, kind, stash, other, amount) VALUES(?, ?, ?, ?, ?, ?)",
			ev.Era,
			ev.Index,
			string(ev.Kind),
			ev.Stash.Bytes(),
			ev.Other.Bytes(),
			amount.Bytes(),
		); err != nil {
			return err
		}
		w.uncommitted++
	}
	return nil
}

// Truncate deletes the events of era and later ones.
func (w *Writer) Truncate(era npos.EraIndex) error {
	if err := w.exec("DELETE FROM event WHERE era >= ?", era); err != nil {
		return err
	}
	w.uncommitted++
	return nil
}

// Commit commits accumulated events.
func (w *Writer) Commit() (err error) {
	if w.tx == nil {
		return nil
	}
	defer func() {
		if err == nil {
			w.tx = nil
			w.uncommitted = 0
		}
	}()
	return w.tx.Commit()
}

// Rollback drops all uncommitted events.
func (w *Writer) Rollback() (err error) {
	if w.tx == nil {
		return nil
	}
	defer func() {
		if err == nil {
			w.tx = nil
			w.uncommitted = 0
		}
	}()
	return w.tx.Rollback()
}

// UncommittedCount returns the count of uncommitted writes.
func (w *Writer) UncommittedCount() int {
	return w.uncommitted
}

func (w *Writer) exec(query string, args ...any) (err error) {
	if w.tx == nil {
		if w.tx, err = w.db.Begin(); err != nil {
			return
		}
	}
	stmt, err := w.stmtCache.Prepare(query)
	if err != nil {
		return err
	}
	_, err = w.tx.Stmt(stmt).Exec(args...)
	return
}
