// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/logging"
)

var dataDir string

var verboseVersionPrint bool

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&verboseVersionPrint, "verbose", "v", false, "Print all version info available")

	// start.go
	rootCmd.AddCommand(startCmd)

	// election.go
	rootCmd.AddCommand(electionCmd)

	// configcmd.go
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().StringVarP(&dataDir, "datadir", "d", "", "Data directory for the node (default $LEDGERD_DATA)")
}

var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "UTXO ledger served to a consensus engine over ABCI",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "The current version of ledgerd",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !verboseVersionPrint {
			fmt.Println(config.GetCurrentVersion().String())
			return
		}
		fmt.Println(config.FormatVersionAndLicense())
	},
}

func reportErrorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// resolveDataDir returns the absolute data directory from the flag or the
// environment.
func resolveDataDir() string {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv("LEDGERD_DATA")
	}
	if dir == "" {
		reportErrorf("Data directory not specified. Please use -d or set $LEDGERD_DATA in your environment.")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		reportErrorf("Cannot resolve data directory %s: %v", dir, err)
	}
	if _, err := os.Stat(abs); err != nil {
		reportErrorf("Data directory %s does not appear to be valid", dir)
	}
	return abs
}

// lockDataDir ensures this is the only process using dir.
func lockDataDir(dir string) *flock.Flock {
	fileLock := flock.New(filepath.Join(dir, config.LockFilename))
	locked, err := fileLock.TryLock()
	if err != nil {
		reportErrorf("unexpected failure in establishing %s: %v", config.LockFilename, err)
	}
	if !locked {
		reportErrorf("failed to lock %s; is an instance of ledgerd already running in this data directory?", config.LockFilename)
	}
	return fileLock
}

// setupLogging configures the base logger from cfg.
func setupLogging(cfg config.Local) logging.Logger {
	log := logging.Base()
	log.SetLevel(logging.Level(cfg.BaseLoggerDebugLevel))
	if cfg.LogJSON {
		log.SetJSONFormatter()
	}
	return log
}

func loadConfig(dir string) config.Local {
	cfg, err := config.LoadConfigFromDisk(dir)
	if err != nil {
		reportErrorf("Cannot load config from %s: %v", dir, err)
	}
	if err := cfg.Validate(); err != nil {
		reportErrorf("Invalid config in %s: %v", dir, err)
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
