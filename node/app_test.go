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
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	abcitypes "github.com/tendermint/tendermint/abci/types"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/data/txntest"
	"github.com/algorand/go-abciledger/governance"
	"github.com/algorand/go-abciledger/ledger"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

const testChainID = "test-chain"

type testNode struct {
	t          *testing.T
	cfg        config.Local
	l          *ledger.Ledger
	engine     *governance.Engine
	app        *Application
	events     *Events
	validators []txntest.Account
	fatals     []string
	height     int64
}

func makeTestNode(t *testing.T, validators int) *testNode {
	cfg := config.GetDefaultLocal()
	cfg.StorageInMemory = true
	l, err := ledger.OpenLedger(logging.TestingLog(t), t.TempDir(), cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	tn := &testNode{t: t, cfg: cfg, l: l}
	for i := 0; i < validators; i++ {
		tn.validators = append(tn.validators, txntest.NewAccount())
	}
	tn.restart()
	return tn
}

// restart builds a fresh application over the same ledger, recovering it
// first the way the daemon does.
func (tn *testNode) restart() bool {
	if tn.events != nil {
		tn.events.Close()
	}
	tn.engine = governance.MakeEngine(tn.l, logging.TestingLog(tn.t))
	rolledBack, err := Rollback(tn.l, tn.engine)
	require.NoError(tn.t, err)

	tn.events = MakeEvents()
	tn.t.Cleanup(tn.events.Close)
	tn.app, err = MakeApplication(tn.cfg, tn.l, tn.engine, tn.events, logging.TestingLog(tn.t))
	require.NoError(tn.t, err)
	tn.app.SetFatalHandler(func(format string, args ...interface{}) {
		tn.fatals = append(tn.fatals, fmt.Sprintf(format, args...))
	})
	return rolledBack
}

func (tn *testNode) genesis(chainID string) abcitypes.RequestInitChain {
	req := abcitypes.RequestInitChain{ChainId: chainID}
	for _, v := range tn.validators {
		req.Validators = append(req.Validators, abcitypes.Ed25519ValidatorUpdate(v.PK[:], 10))
	}
	return req
}

func (tn *testNode) requireNoFatal() {
	require.Empty(tn.t, tn.fatals)
}

func (tn *testNode) requireFatal() {
	require.NotEmpty(tn.t, tn.fatals)
	tn.fatals = nil
}

// deliver runs BeginBlock and DeliverTx for txns, and returns the codes.
func (tn *testNode) deliver(txns ...transactions.Transaction) []uint32 {
	tn.height++
	tn.app.BeginBlock(abcitypes.RequestBeginBlock{})
	codes := make([]uint32, len(txns))
	for i, tx := range txns {
		codes[i] = tn.app.DeliverTx(abcitypes.RequestDeliverTx{Tx: tx.Encode()}).Code
	}
	return codes
}

// block delivers, ends and commits one block.
func (tn *testNode) block(txns ...transactions.Transaction) ([]uint32, abcitypes.ResponseEndBlock, abcitypes.ResponseCommit) {
	codes := tn.deliver(txns...)
	end := tn.app.EndBlock(abcitypes.RequestEndBlock{Height: tn.height})
	commit := tn.app.Commit()
	tn.requireNoFatal()
	return codes, end, commit
}

func (tn *testNode) checkTx(tx transactions.Transaction) uint32 {
	return tn.app.CheckTx(abcitypes.RequestCheckTx{Tx: tx.Encode()}).Code
}

func (tn *testNode) info() abcitypes.ResponseInfo {
	return tn.app.Info(abcitypes.RequestInfo{Version: "0.34.24"})
}

func (tn *testNode) vote(i int, election transactions.Transaction) transactions.Transaction {
	tx, err := governance.MakeVote(election.Spendables()[i:i+1], election.ID)
	require.NoError(tn.t, err)
	require.NoError(tn.t, tx.Sign(tn.validators[i].SK))
	return tx
}

func TestInitChainAndInfo(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 4)
	tn.app.InitChain(tn.genesis(testChainID))
	tn.requireNoFatal()

	info := tn.info()
	tn.requireNoFatal()
	require.Equal(t, int64(0), info.LastBlockHeight)
	require.Empty(t, info.LastBlockAppHash)

	vs, ok, err := tn.l.GetValidatorSet(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), vs.Height)
	require.Len(t, vs.Validators, 4)
	require.Equal(t, uint64(40), vs.TotalPower())

	chain, ok, err := tn.l.GetLatestABCIChain()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledgercore.ABCIChain{Height: 0, ChainID: testChainID, IsSynced: true}, chain)

	// a synced chain never accepts a second handshake
	tn.app.InitChain(tn.genesis(testChainID))
	tn.requireFatal()
}

func TestInfoRejectsConsensusVersion(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 1)
	tn.app.InitChain(tn.genesis(testChainID))
	tn.app.Info(abcitypes.RequestInfo{Version: "0.38.0"})
	tn.requireFatal()
	tn.app.Info(abcitypes.RequestInfo{Version: "0.34.15"})
	tn.requireNoFatal()
}

func TestCreateTransferScenario(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 1)
	tn.app.InitChain(tn.genesis(testChainID))
	alice, bob := txntest.NewAccount(), txntest.NewAccount()

	create := txntest.Create(t, alice, 10)
	require.Equal(t, CodeTypeOK, tn.checkTx(create))
	codes, _, commit := tn.block(create)
	require.Equal(t, []uint32{CodeTypeOK}, codes)

	blk, ok, err := tn.l.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), blk.Height)
	require.Equal(t, []string{create.ID}, blk.Transactions)
	require.Equal(t, bookkeeping.NextAppHash("", []string{create.ID}), blk.AppHash)
	// the engine gets the 32 raw bytes behind the stored hex, not its text
	raw, err := hex.DecodeString(blk.AppHash)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	require.Equal(t, raw, commit.Data)
	require.NotEqual(t, []byte(blk.AppHash), commit.Data)

	info := tn.info()
	require.Equal(t, int64(1), info.LastBlockHeight)
	require.Equal(t, raw, info.LastBlockAppHash)

	src := create.Spendables()
	split := txntest.Transfer(t, alice, src, create.ID, bob.Pay(4), alice.Pay(6))
	overspend := txntest.Transfer(t, alice, src, create.ID, bob.Pay(11))
	again := txntest.Transfer(t, alice, src, create.ID, bob.Pay(10))

	require.Equal(t, CodeTypeOK, tn.checkTx(split))
	require.Equal(t, CodeTypeError, tn.checkTx(overspend))

	// the second spender of the same output is turned away within the block
	codes, _, _ = tn.block(split, overspend, again)
	require.Equal(t, []uint32{CodeTypeOK, CodeTypeError, CodeTypeError}, codes)
	require.Equal(t, CodeTypeError, tn.checkTx(again))

	// every link in the chain reports the asset of the CREATE
	require.Equal(t, create.ID, split.AssetID())
	next := txntest.Transfer(t, bob, split.Spendables()[:1], split.AssetID(), alice.Pay(4))
	codes, _, _ = tn.block(next)
	require.Equal(t, []uint32{CodeTypeOK}, codes)
	require.Equal(t, create.ID, next.AssetID())

	utxos, err := tn.l.GetUnspentOutputsFor(alice.Address())
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	garbage := tn.app.CheckTx(abcitypes.RequestCheckTx{Tx: []byte("{not json")})
	require.Equal(t, CodeTypeError, garbage.Code)
	tn.requireNoFatal()
}

func TestEmptyBlockKeepsAppHash(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 1)
	tn.app.InitChain(tn.genesis(testChainID))
	_, _, first := tn.block(txntest.Create(t, txntest.NewAccount(), 1))
	_, _, second := tn.block()
	require.Equal(t, first.Data, second.Data)
	require.Equal(t, int64(2), tn.info().LastBlockHeight)
}

func TestCrashRecovery(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 4)
	tn.app.InitChain(tn.genesis(testChainID))
	newcomer := txntest.NewAccount()

	validators, err := tn.l.GetValidators(0)
	require.NoError(t, err)
	election, err := governance.MakeValidatorElection(tn.validators[0].PK, validators, newcomer.PK, 5, "node-new")
	require.NoError(t, err)
	require.NoError(t, election.Sign(tn.validators[0].SK))
	codes, _, _ := tn.block(election)
	require.Equal(t, []uint32{CodeTypeOK}, codes)

	// the node dies between end of block and commit
	votes := []transactions.Transaction{tn.vote(0, election), tn.vote(1, election), tn.vote(2, election)}
	codes = tn.deliver(votes...)
	require.Equal(t, []uint32{CodeTypeOK, CodeTypeOK, CodeTypeOK}, codes)
	end := tn.app.EndBlock(abcitypes.RequestEndBlock{Height: tn.height})
	require.Len(t, end.ValidatorUpdates, 1)
	vs, ok, err := tn.l.GetLatestValidatorSetChange()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), vs.Height)

	// recovery runs again until the block commits, and ends up the same
	for i := 0; i < 2; i++ {
		require.True(t, tn.restart())

		vs, ok, err = tn.l.GetLatestValidatorSetChange()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint64(1), vs.Height)
		rec, ok, err := tn.l.GetElection(election.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.False(t, rec.IsConcluded)
		_, ok, err = tn.l.GetTransaction(votes[0].ID)
		require.NoError(t, err)
		require.False(t, ok)
	}

	// replaying the block lands the validator change once
	tn.height--
	codes, end, _ = tn.block(votes...)
	require.Equal(t, []uint32{CodeTypeOK, CodeTypeOK, CodeTypeOK}, codes)
	require.Len(t, end.ValidatorUpdates, 1)
	require.Equal(t, newcomer.PK[:], end.ValidatorUpdates[0].PubKey.GetEd25519())
	require.Equal(t, int64(5), end.ValidatorUpdates[0].Power)

	vs, ok, err = tn.l.GetValidatorSet(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), vs.Height)
	require.Len(t, vs.Validators, 5)

	require.False(t, tn.restart())
}

func TestRollbackWithoutBlocks(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 1)
	require.NoError(t, tn.l.StorePreCommitState(ledgercore.PreCommitState{Height: 1}))
	_, err := Rollback(tn.l, tn.engine)
	require.ErrorIs(t, err, ErrPreCommitWithoutBlocks)
}

func TestChainMigrationHandshake(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 4)
	tn.app.InitChain(tn.genesis(testChainID))

	validators, err := tn.l.GetValidators(0)
	require.NoError(t, err)
	election, err := governance.MakeChainMigrationElection(tn.validators[1].PK, validators)
	require.NoError(t, err)
	require.NoError(t, election.Sign(tn.validators[1].SK))
	tn.block(election)
	tn.block(tn.vote(0, election), tn.vote(1, election), tn.vote(2, election))

	migrated := governance.MigratedChainID(testChainID, 1)
	chain, ok := tn.app.currentChain()
	require.True(t, ok)
	require.False(t, chain.IsSynced)
	require.Equal(t, migrated, chain.ChainID)

	// the node refuses to serve until the new chain says hello
	tn.checkTx(txntest.Create(t, txntest.NewAccount(), 1))
	tn.requireFatal()
	tn.info()
	tn.requireFatal()

	tn.app.InitChain(tn.genesis("someone-else"))
	tn.requireFatal()

	wrongSet := tn.genesis(migrated)
	wrongSet.Validators[0].Power = 11
	tn.app.InitChain(wrongSet)
	tn.requireFatal()

	tn.app.InitChain(tn.genesis(migrated))
	tn.requireNoFatal()
	chain, ok = tn.app.currentChain()
	require.True(t, ok)
	require.True(t, chain.IsSynced)
	require.Equal(t, uint64(2), chain.Height)

	info := tn.info()
	tn.requireNoFatal()
	require.Equal(t, int64(1), info.LastBlockHeight)

	// heights of the new chain are shifted onto the ledger's
	tn.height = 0
	tn.block(txntest.Create(t, txntest.NewAccount(), 1))
	blk, ok, err := tn.l.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), blk.Height)
}
