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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/algorand/go-abciledger/node"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Serve the ledger to the consensus engine until interrupted",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir := resolveDataDir()
		fileLock := lockDataDir(dir)
		defer fileLock.Unlock()

		cfg := loadConfig(dir)
		log := setupLogging(cfg)

		ledgerNode, err := node.MakeLedgerNode(log, dir, cfg)
		if err != nil {
			reportErrorf("Cannot start node: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return ledgerNode.Start(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")
			ledgerNode.Stop()
			return nil
		})
		if err := g.Wait(); err != nil {
			reportErrorf("ledgerd: %v", err)
		}
	},
}
