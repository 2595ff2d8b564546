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

// Command parallelproofd runs the deterministic state core as a standalone
// node process: load config, open the KV store, wire every sub-component,
// and serve metrics until asked to shut down.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parallelproof/node/bootstrap"
	"github.com/parallelproof/node/config"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/finalstate"
	"github.com/parallelproof/node/kv/boltdb"
	"github.com/parallelproof/node/metrics"
	"github.com/parallelproof/node/pos"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/selector"
	"github.com/parallelproof/node/versioning"
	"github.com/parallelproof/node/xhash"
)

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parallelproofd",
		Short:         "Runs the Parallelproof deterministic state core as a node process.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "parallelproofd.toml", "path to the node's TOML configuration file")
	root.AddCommand(newStartCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newImportCmd())
	return root
}

func newImportCmd() *cobra.Command {
	var onlyUseXOR bool
	cmd := &cobra.Command{
		Use:   "import-snapshot <path>",
		Short: "Ingest a bootstrap snapshot file into a fresh data directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importSnapshot(args[0], onlyUseXOR)
		},
	}
	cmd.Flags().BoolVar(&onlyUseXOR, "only-xor", true, "recompute the commitment hash with the XOR fold instead of the Merkle fold")
	return cmd
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the node, restoring from the data directory if present.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe the node's on-disk state and reinitialize at the pre-genesis anchor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset()
		},
	}
}

func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: build logger")
	}
	return logger, nil
}

// node bundles every component newRootCmd's subcommands need, assembled
// once from config.
type node struct {
	logger *zap.Logger
	cfg    *config.Config
	sink   metrics.Sink

	grid  *timeslot.Grid
	final *finalstate.FinalState
	sel   *selector.Selector
}

func bootNode(logger *zap.Logger, reset bool) (*node, error) {
	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: load config")
	}

	grid, err := timeslot.NewGrid(cfg.ThreadCount, cfg.T0, cfg.GenesisTimestamp, cfg.PeriodsPerCycle)
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: build time grid")
	}

	store, err := boltdb.Open(cfg.DataDir, cfg.BackupsDir)
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: open store")
	}

	sel, err := selector.New(grid, cfg.EndorsementCount, cfg.SelectorCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: start selector")
	}

	initialRolls := rollset.New()
	if cfg.InitialRollsPath != "" {
		loaded, err := config.LoadInitialRolls(afero.NewOsFs(), cfg.InitialRollsPath)
		if err != nil {
			return nil, errors.Wrap(err, "parallelproofd: load initial rolls")
		}
		initialRolls = loaded
	}

	posState, err := pos.New(store, grid, cfg.CycleHistoryLength, initialRolls, cfg.InitialSeedString, xhash.H([]byte(cfg.InitialSeedString)), sel)
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: init pos state")
	}

	mipStore := versioning.NewStore([]versioning.Info{
		{
			Name:             "FinalStateHashKind",
			Component:        versioning.FinalStateHashKindComponent,
			ComponentVersion: 1,
			StartTimestamp:   cfg.GenesisTimestamp,
			TimeoutTimestamp: cfg.GenesisTimestamp + cfg.ActivationDelayForMIP,
			ActivationDelay:  cfg.ActivationDelayForMIP,
		},
	})

	fs, err := finalstate.New(store, grid, posState, mipStore, cfg.PeriodsBetweenBackups, reset)
	if err != nil {
		return nil, errors.Wrap(err, "parallelproofd: init final state")
	}

	sink := metrics.Sink(metrics.Noop{})
	if cfg.MetricsListenAddr != "" {
		sink = metrics.New()
	}

	return &node{logger: logger, cfg: cfg, sink: sink, grid: grid, final: fs, sel: sel}, nil
}

func runStart() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	n, err := bootNode(logger, false)
	if err != nil {
		return err
	}
	logger.Info("node started", zap.String("data_dir", n.cfg.DataDir))

	if n.cfg.MetricsListenAddr != "" {
		if prom, ok := n.sink.(*metrics.Prometheus); ok {
			go func() {
				if err := http.ListenAndServe(n.cfg.MetricsListenAddr, prom.Handler()); err != nil {
					logger.Error("metrics server stopped", zap.Error(err))
				}
			}()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info("node shutting down")
	return nil
}

func runReset() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	n, err := bootNode(logger, true)
	if err != nil {
		return err
	}
	logger.Info("node state reset to pre-genesis anchor", zap.String("data_dir", n.cfg.DataDir))
	return nil
}

// importSnapshot is wired for completeness with the bootstrap package; the
// full peer-transfer protocol is out of core scope (spec.md §1), but a local
// operator can still bootstrap a fresh data directory from a file written
// by bootstrap.Export and Snapshot.WriteTo.
func importSnapshot(path string, onlyUseXOR bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "parallelproofd: open snapshot")
	}
	defer f.Close()

	snap, err := bootstrap.ReadSnapshot(f)
	if err != nil {
		return errors.Wrap(err, "parallelproofd: read snapshot")
	}

	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if err != nil {
		return errors.Wrap(err, "parallelproofd: load config")
	}
	store, err := boltdb.Open(cfg.DataDir, cfg.BackupsDir)
	if err != nil {
		return errors.Wrap(err, "parallelproofd: open store")
	}
	defer store.Close()

	return bootstrap.Ingest(store, snap, onlyUseXOR)
}
