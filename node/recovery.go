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

package node

import (
	"errors"

	"github.com/algorand/go-abciledger/governance"
	"github.com/algorand/go-abciledger/ledger"
)

// ErrPreCommitWithoutBlocks means a pre-commit state exists on a ledger
// that never committed a block.
var ErrPreCommitWithoutBlocks = errors.New("found pre-commit state but no blocks")

// Rollback undoes a block that got past end of block without committing.
// The pre-commit state is at most one block ahead of the latest block; when
// it is ahead, the elections it affected and its transactions are reverted.
// It reports whether anything was rolled back.
func Rollback(l *ledger.Ledger, engine *governance.Engine) (bool, error) {
	pc, ok, err := l.GetPreCommitState()
	if err != nil || !ok {
		return false, err
	}
	latest, ok, err := l.GetLatestBlock()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrPreCommitWithoutBlocks
	}
	if latest.Height >= pc.Height {
		return false, nil
	}

	if err := engine.Rollback(pc.Height, pc.Transactions); err != nil {
		return false, err
	}
	if err := l.DeleteTransactions(pc.Transactions); err != nil {
		return false, err
	}
	return true, nil
}
