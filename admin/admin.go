// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the operator endpoints of a running engine: log verbosity, liveness and
// a snapshot of the staking status.
package admin

import (
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/co"
	"github.com/vechain/npos/health"
)

// Status is a snapshot of the engine, published by its driver after every session.
type Status struct {
	Session    npos.SessionIndex `json:"session"`
	ActiveEra  npos.EraIndex     `json:"activeEra"`
	CurrentEra npos.EraIndex     `json:"currentEra"`
	Phase      string            `json:"phase"`
	Forcing    string            `json:"forcing"`
	Validators []npos.Address    `json:"validators"`
	Bonded     *big.Int          `json:"bonded"`
	Slashed    *big.Int          `json:"slashed"`
	Rewarded   *big.Int          `json:"rewarded"`
}

// StatusBoard holds the latest published status. The zero value is ready to use.
type StatusBoard struct {
	status atomic.Pointer[Status]
}

func (b *StatusBoard) Publish(s *Status) {
	b.status.Store(s)
}

func (b *StatusBoard) Latest() *Status {
	return b.status.Load()
}

func HTTPHandler(logLevel *slog.LevelVar, board *StatusBoard, h *health.Health) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/admin/loglevel", logLevelHandler(logLevel))
	router.HandleFunc("/admin/health", getHealthHandler(h)).Methods(http.MethodGet)
	router.HandleFunc("/admin/status", getStatusHandler(board)).Methods(http.MethodGet)
	return handlers.CompressHandler(router)
}

func StartServer(addr string, logLevel *slog.LevelVar, board *StatusBoard, h *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{Handler: HTTPHandler(logLevel, board, h), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
