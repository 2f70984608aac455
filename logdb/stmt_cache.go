// Copyright (c) 2020 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"
)

// stmtCache keeps the prepared statements by query text. Filter queries only vary with
// the number of criteria, so a handful of statements serves every filter.
type stmtCache struct {
	db    *sql.DB
	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{db: db, stmts: make(map[string]*sql.Stmt)}
}

func (sc *stmtCache) Prepare(query string) (*sql.Stmt, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if stmt, ok := sc.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare")
	}
	sc.stmts[query] = stmt
	metricCachedStatements().Set(int64(len(sc.stmts)))
	return stmt, nil
}

func (sc *stmtCache) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.stmts)
}

// Close closes every cached statement and empties the cache.
func (sc *stmtCache) Close() (err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for query, stmt := range sc.stmts {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(sc.stmts, query)
	}
	metricCachedStatements().Set(0)
	return err
}
