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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/util"
)

var forceConfigInit bool

func init() {
	configCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().BoolVarP(&forceConfigInit, "force", "f", false, "Overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the node configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the data directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir := resolveDataDir()
		path := filepath.Join(dir, config.ConfigFilename)
		if util.FileExists(path) && !forceConfigInit {
			reportErrorf("%s already exists; use -f to overwrite it", path)
		}
		if err := config.GetDefaultLocal().SaveToDisk(dir); err != nil {
			reportErrorf("Cannot write %s: %v", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	},
}
