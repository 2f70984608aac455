// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state is the explicit store object every staking state transition runs against.
// Writes are buffered in a stack of revisions on top of a kv.Store and become durable only on Commit.
package state
