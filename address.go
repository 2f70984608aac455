// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package npos

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressLength length of account id in bytes.
const AddressLength = 32

// Address is the 32 byte account id of a stash or controller.
type Address [AddressLength]byte

// String implements the stringer interface
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// AbbrevString returns abbrev string presentation.
func (a Address) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", a[:4], a[28:])
}

// Bytes returns byte slice form of address.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero returns if address has all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Besides hex, a short plain name (e.g. "alice") is accepted and converted with BytesToAddress,
// which keeps hand written genesis files readable.
func (a *Address) UnmarshalText(text []byte) error {
	s := string(text)
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		parsed, err := ParseAddress(s)
		if err != nil {
			return err
		}
		*a = *parsed
		return nil
	}
	if len(s) == 0 || len(s) > AddressLength {
		return errors.New("invalid address name")
	}
	*a = BytesToAddress([]byte(s))
	return nil
}

// ParseAddress convert string presented address into Address type.
func ParseAddress(s string) (*Address, error) {
	if len(s) == AddressLength*2 {
	} else if len(s) == AddressLength*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return nil, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return nil, errors.New("invalid length")
	}

	var addr Address
	_, err := hex.Decode(addr[:], []byte(s))
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// MustParseAddress convert string presented address into Address type, panic on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return *addr
}

// BytesToAddress converts bytes slice into address.
// If b is larger than address length, b will be cropped (from the left).
// If b is smaller than address length, b will be extended (from the left).
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}
