// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"fmt"
	"strings"
)

// RewardDestination selects where the rewards of a stash go.
type RewardDestination uint8

const (
	// PayeeStaked pays to the stash and bonds the reward.
	PayeeStaked RewardDestination = iota
	// PayeeStash pays to the stash, unbonded.
	PayeeStash
	// PayeeController pays to the controller.
	PayeeController
)

func (d RewardDestination) String() string {
	switch d {
	case PayeeStaked:
		return "staked"
	case PayeeStash:
		return "stash"
	case PayeeController:
		return "controller"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// ParseRewardDestination parses the names returned by String.
func ParseRewardDestination(s string) (RewardDestination, error) {
	switch strings.ToLower(s) {
	case "", "staked":
		return PayeeStaked, nil
	case "stash":
		return PayeeStash, nil
	case "controller":
		return PayeeController, nil
	}
	return 0, fmt.Errorf("invalid reward destination %q", s)
}

func (d RewardDestination) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *RewardDestination) UnmarshalText(text []byte) error {
	v, err := ParseRewardDestination(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
