// Copyright 2026 The Parallelproof Authors
// This file is part of Parallelproof.
//
// Parallelproof is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Parallelproof is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Parallelproof. If not, see <http://www.gnu.org/licenses/>.

package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/config"
)

const validTOML = `
thread_count = 2
t0 = 2000
genesis_timestamp = 10000
periods_per_cycle = 3
cycle_history_length = 5
periods_between_backups = 100
endorsement_count = 4
selector_cache_size = 16
initial_seed_string = "genesis"
data_dir = "/tmp/data"
backups_dir = "/tmp/backups"
`

func TestLoadParsesValidConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.toml", []byte(validTOML), 0o644))

	cfg, err := config.Load(fs, "/config.toml")
	require.NoError(t, err)
	require.Equal(t, uint8(2), cfg.ThreadCount)
	require.Equal(t, uint64(2000), cfg.T0)
	require.Equal(t, uint64(5), cfg.CycleHistoryLength)
}

func TestLoadRejectsZeroThreadCount(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.toml", []byte(`thread_count = 0
t0 = 2000
periods_per_cycle = 1
cycle_history_length = 5
periods_between_backups = 1
`), 0o644))

	_, err := config.Load(fs, "/config.toml")
	require.Error(t, err)
}

func TestLoadInitialRollsParsesEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	var a address.Address
	a[0] = 0x42
	hexAddr := "420000000000000000000000000000000000000000"

	content := "[[rolls]]\naddress = \"" + hexAddr + "\"\nrolls = 7\n"
	require.NoError(t, afero.WriteFile(fs, "/rolls.toml", []byte(content), 0o644))

	set, err := config.LoadInitialRolls(fs, "/rolls.toml")
	require.NoError(t, err)
	require.Equal(t, uint64(7), set.Get(a))
}

func TestLoadInitialRollsRejectsMalformedAddress(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rolls.toml", []byte("[[rolls]]\naddress = \"not-hex\"\nrolls = 1\n"), 0o644))

	_, err := config.LoadInitialRolls(fs, "/rolls.toml")
	var rfe *config.RollsFileLoadingError
	require.ErrorAs(t, err, &rfe)
}
