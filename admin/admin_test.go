// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/health"
	"github.com/vechain/npos/log"
)

func serve(handler http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestPostLogLevel(t *testing.T) {
	var logLevel slog.LevelVar
	logLevel.Set(slog.LevelInfo)
	handler := HTTPHandler(&logLevel, &StatusBoard{}, health.New(time.Minute))

	tests := []struct {
		body     string
		code     int
		expected string
	}{
		{`{"level":"debug"}`, http.StatusOK, "debug"},
		{`{"level":"trace"}`, http.StatusOK, "trace"},
		{`{"level":"crit"}`, http.StatusOK, "crit"},
		{`{"level":"invalid_body"}`, http.StatusBadRequest, "Invalid verbosity level"},
		{`not json`, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		rr := serve(handler, http.MethodPost, "/admin/loglevel", bytes.NewBufferString(tt.body))
		require.Equal(t, tt.code, rr.Code, tt.body)

		if tt.code == http.StatusOK {
			var response logLevelResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
			assert.Equal(t, tt.expected, response.CurrentLevel)
		} else {
			var response errorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
			assert.Equal(t, tt.expected, response.ErrorMessage)
		}
	}
	assert.Equal(t, log.LevelCrit, logLevel.Level())
}

func TestGetLogLevel(t *testing.T) {
	var logLevel slog.LevelVar
	handler := HTTPHandler(&logLevel, &StatusBoard{}, health.New(time.Minute))

	rr := serve(handler, http.MethodGet, "/admin/loglevel", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var response logLevelResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "info", response.CurrentLevel)

	rr = serve(handler, http.MethodPut, "/admin/loglevel", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStatus(t *testing.T) {
	var (
		logLevel slog.LevelVar
		board    StatusBoard
	)
	handler := HTTPHandler(&logLevel, &board, health.New(time.Minute))

	rr := serve(handler, http.MethodGet, "/admin/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	board.Publish(&Status{
		Session:    7,
		ActiveEra:  2,
		CurrentEra: 3,
		Phase:      "idle",
		Forcing:    "not-forcing",
		Validators: []npos.Address{npos.BytesToAddress([]byte("v1"))},
		Bonded:     big.NewInt(1700),
		Slashed:    big.NewInt(0),
		Rewarded:   big.NewInt(42),
	})

	rr = serve(handler, http.MethodGet, "/admin/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `"activeEra":2`), body)
	assert.True(t, strings.Contains(body, `"bonded":1700`), body)

	var status Status
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, npos.BytesToAddress([]byte("v1")), status.Validators[0])
	assert.Equal(t, int64(42), status.Rewarded.Int64())

	rr = serve(handler, http.MethodPost, "/admin/status", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealth(t *testing.T) {
	var logLevel slog.LevelVar
	h := health.New(time.Minute)
	handler := HTTPHandler(&logLevel, &StatusBoard{}, h)

	rr := serve(handler, http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	h.Running(true)
	h.NewSession(3)
	rr = serve(handler, http.MethodGet, "/admin/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var status health.Status
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	assert.True(t, status.Healthy)
	assert.Equal(t, npos.SessionIndex(3), *status.SessionIngestion.Session)
}

func TestStartServer(t *testing.T) {
	var logLevel slog.LevelVar
	url, closeFunc, err := StartServer("localhost:0", &logLevel, &StatusBoard{}, health.New(time.Minute))
	require.NoError(t, err)
	defer closeFunc()

	resp, err := http.Get(url + "/loglevel")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
