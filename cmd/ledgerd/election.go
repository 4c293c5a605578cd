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

	"github.com/spf13/cobra"

	"github.com/algorand/go-abciledger/governance"
	"github.com/algorand/go-abciledger/ledger"
)

func init() {
	electionCmd.AddCommand(showElectionCmd)
}

var electionCmd = &cobra.Command{
	Use:   "election",
	Short: "Inspect governance elections",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

var showElectionCmd = &cobra.Command{
	Use:   "show [election id]",
	Short: "Print the status of an election",
	Long:  "Print the proposal, the status (ongoing, concluded or inconclusive) and, for a pending chain migration, the genesis details of the new chain.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := resolveDataDir()
		fileLock := lockDataDir(dir)
		defer fileLock.Unlock()

		cfg := loadConfig(dir)
		log := setupLogging(cfg)

		l, err := ledger.OpenLedger(log, dir, cfg)
		if err != nil {
			reportErrorf("Cannot open ledger: %v", err)
		}
		defer l.Close()

		out, err := governance.MakeEngine(l, log).ShowElection(args[0])
		if err != nil {
			reportErrorf("Cannot show election %s: %v", args[0], err)
		}
		fmt.Println(out)
	},
}
