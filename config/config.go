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

// Package config loads the node's on-disk TOML configuration into the
// authoritative field names spec.md §6 names, and loads the initial rolls
// file the genesis PoS state bootstraps from.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/rollset"
)

// Config mirrors spec.md §6's authoritative field names: snake_case on disk,
// Go-idiomatic CamelCase in Go.
type Config struct {
	ThreadCount      uint8  `toml:"thread_count"`
	T0               uint64 `toml:"t0"`
	GenesisTimestamp uint64 `toml:"genesis_timestamp"`
	PeriodsPerCycle  uint64 `toml:"periods_per_cycle"`

	CycleHistoryLength   uint64 `toml:"cycle_history_length"`
	PeriodsBetweenBackups uint64 `toml:"periods_between_backups"`
	EndorsementCount     int    `toml:"endorsement_count"`
	SelectorCacheSize    int    `toml:"selector_cache_size"`

	InitialSeedString    string `toml:"initial_seed_string"`
	InitialRollsPath     string `toml:"initial_rolls_path"`
	ActivationDelayForMIP uint64 `toml:"activation_delay_for_mip"`

	DataDir    string `toml:"data_dir"`
	BackupsDir string `toml:"backups_dir"`

	MetricsListenAddr string `toml:"metrics_listen_addr"`
}

// Load parses path (a TOML document) on fs into a Config.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ThreadCount < 1 {
		return errors.New("config: thread_count must be >= 1")
	}
	if c.T0 < 1 {
		return errors.New("config: t0 must be >= 1")
	}
	if c.PeriodsPerCycle < 1 {
		return errors.New("config: periods_per_cycle must be >= 1")
	}
	if c.CycleHistoryLength < 1 {
		return errors.New("config: cycle_history_length must be >= 1")
	}
	if c.PeriodsBetweenBackups < 1 {
		return errors.New("config: periods_between_backups must be >= 1")
	}
	return nil
}

// RollsFileLoadingError wraps a failure to parse the initial rolls file,
// distinct from a generic I/O error so the driver can report it as a
// configuration problem rather than a storage fault.
type RollsFileLoadingError struct {
	Path string
	Err  error
}

func (e *RollsFileLoadingError) Error() string {
	return fmt.Sprintf("config: loading initial rolls file %s: %v", e.Path, e.Err)
}

func (e *RollsFileLoadingError) Unwrap() error { return e.Err }

// rollsFileEntry is one [[rolls]] table of the initial rolls file: a hex
// address and its roll count.
type rollsFileEntry struct {
	Address string `toml:"address"`
	Rolls   uint64 `toml:"rolls"`
}

type rollsFile struct {
	Rolls []rollsFileEntry `toml:"rolls"`
}

// LoadInitialRolls parses the TOML-encoded initial rolls file at path on fs
// into an ordered rollset.Set.
func LoadInitialRolls(fs afero.Fs, path string) (*rollset.Set, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &RollsFileLoadingError{Path: path, Err: err}
	}
	var rf rollsFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, &RollsFileLoadingError{Path: path, Err: err}
	}

	set := rollset.New()
	for _, e := range rf.Rolls {
		raw, ok := parseHexAddress(e.Address)
		if !ok {
			return nil, &RollsFileLoadingError{Path: path, Err: fmt.Errorf("malformed address %q", e.Address)}
		}
		set.Set(raw, e.Rolls)
	}
	return set, nil
}

func parseHexAddress(s string) (address.Address, bool) {
	var a address.Address
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != address.Size {
		return a, false
	}
	copy(a[:], b)
	return a, true
}
