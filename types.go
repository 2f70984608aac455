// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package npos

import "encoding/binary"

// EraIndex counts eras from genesis.
type EraIndex = uint32

// SessionIndex counts sessions from genesis.
type SessionIndex = uint32

// EraKey returns the big endian encoding of an era, so that keys sort by era.
func EraKey(era EraIndex) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], era)
	return b[:]
}
