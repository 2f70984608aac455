// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/npos"
)

// Genesis is the user customized genesis, as written in a yaml file.
type Genesis struct {
	LaunchTime     uint64         `yaml:"launchTime"` // milliseconds
	MinimumBalance *big.Int       `yaml:"minimumBalance,omitempty"`
	Treasury       *npos.Address  `yaml:"treasury,omitempty"`
	Invulnerables  []npos.Address `yaml:"invulnerables,omitempty"`
	Config         npos.Config    `yaml:"config,omitempty"`
	Accounts       []Account      `yaml:"accounts"`
	Stakers        []Staker       `yaml:"stakers"`
}

// Load reads the genesis file at path.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	gen, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "genesis file %v", path)
	}
	return gen, nil
}

// Parse decodes a yaml genesis. Unknown fields are rejected.
func Parse(data []byte) (*Genesis, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var gen Genesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if len(gen.Accounts) == 0 {
		return nil, errors.New("no accounts")
	}
	return &gen, nil
}

// Marshal encodes the genesis back to yaml.
func (g *Genesis) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

// Builder returns a builder set up with the content of the genesis.
func (g *Genesis) Builder() *Builder {
	b := NewBuilder().
		LaunchTime(g.LaunchTime).
		Config(g.Config).
		MinimumBalance(g.MinimumBalance).
		Invulnerables(g.Invulnerables...)
	if g.Treasury != nil {
		b.Treasury(*g.Treasury)
	}
	for _, acc := range g.Accounts {
		b.Account(acc)
	}
	for _, s := range g.Stakers {
		b.Staker(s)
	}
	return b
}
