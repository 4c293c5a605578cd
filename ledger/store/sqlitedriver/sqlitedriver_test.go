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

package sqlitedriver

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/ledger/store"
	"github.com/algorand/go-abciledger/ledger/store/storetest"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

func TestSqliteStoreSuite(t *testing.T) {
	partitiontest.PartitionTest(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(fmt.Sprintf("ledger-%d.sqlite", crypto.RandUint64()), true, logging.TestingLog(t))
		require.NoError(t, err)
		return s
	})
}

func TestSqliteStoreReopen(t *testing.T) {
	partitiontest.PartitionTest(t)

	fn := filepath.Join(t.TempDir(), "ledger.sqlite")
	s, err := Open(fn, false, logging.TestingLog(t))
	require.NoError(t, err)
	require.NoError(t, s.StoreBlock(bookkeeping.Block{Height: 4, AppHash: "ab"}))
	s.Close()

	s, err = Open(fn, false, logging.TestingLog(t))
	require.NoError(t, err)
	defer s.Close()
	blk, ok, err := s.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(4), blk.Height)
}
