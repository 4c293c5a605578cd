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

package storetest

import (
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
)

func init() {
	registerTest("blocks", testBlocks)
	registerTest("validator-sets", testValidatorSets)
	registerTest("elections", testElections)
	registerTest("pre-commit-state", testPreCommitState)
	registerTest("abci-chains", testABCIChains)
}

func testBlocks(t *suiteT) {
	_, ok, err := t.s.GetLatestBlock()
	require.NoError(t, err)
	require.False(t, ok)

	b1 := bookkeeping.Block{Height: 1, AppHash: "aa", Transactions: []string{"t1", "t2"}}
	b2 := bookkeeping.Block{Height: 2, AppHash: "bb", Transactions: []string{"t3"}}
	require.NoError(t, t.s.StoreBlock(b1))
	require.NoError(t, t.s.StoreBlock(b2))

	got, ok, err := t.s.GetBlock(1)
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(b1, got)

	got, ok, err = t.s.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(b2, got)

	got, ok, err = t.s.GetBlockWithTransaction("t2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), got.Height)

	_, ok, err = t.s.GetBlockWithTransaction("t9")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = t.s.GetBlock(7)
	require.NoError(t, err)
	require.False(t, ok)
}

func testValidatorSets(t *suiteT) {
	_, ok, err := t.s.GetValidatorSet(0)
	require.NoError(t, err)
	require.False(t, ok)

	v1 := ledgercore.ValidatorSet{Height: 1, Validators: []ledgercore.Validator{{PublicKey: "a", VotingPower: 10}}}
	v5 := ledgercore.ValidatorSet{Height: 5, Validators: []ledgercore.Validator{{PublicKey: "a", VotingPower: 10}, {PublicKey: "b", VotingPower: 3}}}
	require.NoError(t, t.s.StoreValidatorSet(v1))
	require.NoError(t, t.s.StoreValidatorSet(v5))

	for _, c := range []struct {
		height uint64
		want   uint64
	}{{1, 1}, {4, 1}, {5, 5}, {100, 5}, {0, 5}} {
		got, ok, err := t.s.GetValidatorSet(c.height)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, c.want, got.Height, "lookup at %d", c.height)
	}

	latest, ok, err := t.s.GetLatestValidatorSetChange()
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(v5, latest)

	replaced := ledgercore.ValidatorSet{Height: 5, Validators: []ledgercore.Validator{{PublicKey: "c", VotingPower: 1}}}
	require.NoError(t, t.s.StoreValidatorSet(replaced))
	latest, _, err = t.s.GetValidatorSet(5)
	require.NoError(t, err)
	t.requireNoDiff(replaced, latest)

	require.NoError(t, t.s.DeleteValidatorSet(5))
	got, ok, err := t.s.GetValidatorSet(0)
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(v1, got)
}

func testElections(t *suiteT) {
	e1 := ledgercore.Election{ElectionID: "e1", Height: 3}
	e2 := ledgercore.Election{ElectionID: "e2", Height: 3}
	e3 := ledgercore.Election{ElectionID: "e3", Height: 1}
	require.NoError(t, t.s.StoreElections([]ledgercore.Election{e1, e2, e3}))

	got, ok, err := t.s.GetElection("e1")
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(e1, got)

	e3.IsConcluded = true
	e3.ConcludedAt = 3
	require.NoError(t, t.s.StoreElection(e3))
	concluded, err := t.s.GetElectionsConcludedAt(3)
	require.NoError(t, err)
	t.requireNoDiff([]ledgercore.Election{e3}, concluded)

	require.NoError(t, t.s.DeleteElections(3))
	for _, id := range []string{"e1", "e2"} {
		_, ok, err = t.s.GetElection(id)
		require.NoError(t, err)
		require.False(t, ok)
	}
	got, ok, err = t.s.GetElection("e3")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.IsConcluded)

	concluded, err = t.s.GetElectionsConcludedAt(4)
	require.NoError(t, err)
	require.Empty(t, concluded)
}

func testPreCommitState(t *suiteT) {
	_, ok, err := t.s.GetPreCommitState()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, t.s.StorePreCommitState(ledgercore.PreCommitState{Height: 1, Transactions: []string{"a"}}))
	pc2 := ledgercore.PreCommitState{Height: 2, Transactions: []string{"b", "c"}}
	require.NoError(t, t.s.StorePreCommitState(pc2))

	got, ok, err := t.s.GetPreCommitState()
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(pc2, got)
}

func testABCIChains(t *suiteT) {
	_, ok, err := t.s.GetLatestABCIChain()
	require.NoError(t, err)
	require.False(t, ok)

	genesis := ledgercore.ABCIChain{Height: 0, ChainID: "main", IsSynced: true}
	migrated := ledgercore.ABCIChain{Height: 8, ChainID: "main-migrated-at-height-7", IsSynced: false}
	require.NoError(t, t.s.StoreABCIChain(genesis))
	require.NoError(t, t.s.StoreABCIChain(migrated))

	got, ok, err := t.s.GetLatestABCIChain()
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(migrated, got)

	migrated.IsSynced = true
	require.NoError(t, t.s.StoreABCIChain(migrated))
	got, _, err = t.s.GetLatestABCIChain()
	require.NoError(t, err)
	require.True(t, got.IsSynced)

	require.NoError(t, t.s.DeleteABCIChain(8))
	got, ok, err = t.s.GetLatestABCIChain()
	require.NoError(t, err)
	require.True(t, ok)
	t.requireNoDiff(genesis, got)
}
