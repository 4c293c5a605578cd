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

package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/data/txntest"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

func openTestLedger(t *testing.T, engine string) *Ledger {
	cfg := config.GetDefaultLocal()
	cfg.StorageEngine = engine
	cfg.StorageInMemory = true
	l, err := OpenLedger(logging.TestingLog(t), t.TempDir(), cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func forEachEngine(t *testing.T, f func(t *testing.T, l *Ledger)) {
	for _, engine := range []string{config.SqliteEngine, config.PebbleEngine} {
		engine := engine
		t.Run(engine, func(t *testing.T) {
			f(t, openTestLedger(t, engine))
		})
	}
}

func TestOpenLedgerRejectsUnknownEngine(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	cfg.StorageEngine = "bolt"
	_, err := OpenLedger(logging.TestingLog(t), t.TempDir(), cfg)
	require.ErrorIs(t, err, config.ErrUnknownStorageEngine)
}

func TestGetSpent(t *testing.T) {
	partitiontest.PartitionTest(t)

	forEachEngine(t, func(t *testing.T, l *Ledger) {
		alice, bob := txntest.NewAccount(), txntest.NewAccount()
		create := txntest.Create(t, alice, 10)
		require.NoError(t, l.StoreBulkTransactions([]transactions.Transaction{create}))
		link := create.OutputLink(0)

		_, found, err := l.GetSpent(link, nil)
		require.NoError(t, err)
		require.False(t, found)

		t1 := txntest.Transfer(t, alice, create.Spendables(), create.ID, bob.Pay(10))
		t2 := txntest.Transfer(t, alice, create.Spendables(), create.ID, bob.Pay(4), alice.Pay(6))

		// a single spender in the block in progress
		spender, found, err := l.GetSpent(link, []transactions.Transaction{t1})
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, t1.ID, spender.ID)

		// two spenders in the block in progress
		_, _, err = l.GetSpent(link, []transactions.Transaction{t1, t2})
		reason, ok := transactions.ReasonOf(err)
		require.True(t, ok)
		require.Equal(t, transactions.ValidationErrorReasonDoubleSpend, reason)

		// committed spender plus a pending one
		require.NoError(t, l.StoreBulkTransactions([]transactions.Transaction{t1}))
		spender, found, err = l.GetSpent(link, nil)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, t1.ID, spender.ID)

		_, _, err = l.GetSpent(link, []transactions.Transaction{t2})
		require.True(t, transactions.IsValidationError(err))
		require.False(t, ledgercore.IsCriticalDoubleSpend(err))
	})
}

func TestGetInputTransaction(t *testing.T) {
	partitiontest.PartitionTest(t)

	forEachEngine(t, func(t *testing.T, l *Ledger) {
		alice := txntest.NewAccount()
		committed := txntest.Create(t, alice, 1)
		pending := txntest.Create(t, alice, 2)
		require.NoError(t, l.StoreBulkTransactions([]transactions.Transaction{committed}))

		got, ok, err := l.GetInputTransaction(committed.ID, nil)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, committed.ID, got.ID)

		_, ok, err = l.GetInputTransaction(pending.ID, nil)
		require.NoError(t, err)
		require.False(t, ok)

		got, ok, err = l.GetInputTransaction(pending.ID, []transactions.Transaction{pending})
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, pending.ID, got.ID)
	})
}

func TestGetValidators(t *testing.T) {
	partitiontest.PartitionTest(t)

	forEachEngine(t, func(t *testing.T, l *Ledger) {
		vals, err := l.GetValidators(0)
		require.NoError(t, err)
		require.Empty(t, vals)

		v1 := []ledgercore.Validator{{PublicKey: "a", VotingPower: 10}}
		v2 := []ledgercore.Validator{{PublicKey: "a", VotingPower: 10}, {PublicKey: "b", VotingPower: 5}}
		require.NoError(t, l.StoreValidatorSet(ledgercore.ValidatorSet{Height: 1, Validators: v1}))
		require.NoError(t, l.StoreValidatorSet(ledgercore.ValidatorSet{Height: 5, Validators: v2}))

		vals, err = l.GetValidators(4)
		require.NoError(t, err)
		require.Equal(t, v1, vals)
		vals, err = l.GetValidators(0)
		require.NoError(t, err)
		require.Equal(t, v2, vals)
	})
}

func TestUTXOSetMerkleRoot(t *testing.T) {
	partitiontest.PartitionTest(t)

	forEachEngine(t, func(t *testing.T, l *Ledger) {
		root, err := l.UTXOSetMerkleRoot()
		require.NoError(t, err)
		require.Equal(t, crypto.HashHex(nil), root)

		alice, bob := txntest.NewAccount(), txntest.NewAccount()
		create := txntest.Create(t, alice, 3)
		require.NoError(t, l.StoreBulkTransactions([]transactions.Transaction{create}))
		root, err = l.UTXOSetMerkleRoot()
		require.NoError(t, err)
		require.Equal(t, crypto.UTXOLeaf(create.ID, 0).String(), root)

		xfer := txntest.Transfer(t, alice, create.Spendables(), create.ID, bob.Pay(1), alice.Pay(2))
		require.NoError(t, l.StoreBulkTransactions([]transactions.Transaction{xfer}))
		root, err = l.UTXOSetMerkleRoot()
		require.NoError(t, err)
		want := crypto.SortedMerkleRoot([]crypto.Digest{crypto.UTXOLeaf(xfer.ID, 1), crypto.UTXOLeaf(xfer.ID, 0)})
		require.Equal(t, want, root)
	})
}

func TestGetOutputsFiltered(t *testing.T) {
	partitiontest.PartitionTest(t)

	forEachEngine(t, func(t *testing.T, l *Ledger) {
		alice, bob := txntest.NewAccount(), txntest.NewAccount()
		create := txntest.Create(t, alice, 5, 7)
		xfer := txntest.Transfer(t, alice, create.Spendables()[:1], create.ID, bob.Pay(5))
		require.NoError(t, l.StoreBulkTransactions([]transactions.Transaction{create, xfer}))

		all, err := l.GetOutputsFiltered(alice.Address(), nil)
		require.NoError(t, err)
		require.ElementsMatch(t, []transactions.TxLink{create.OutputLink(0), create.OutputLink(1)}, all)

		spent := true
		got, err := l.GetOutputsFiltered(alice.Address(), &spent)
		require.NoError(t, err)
		require.Equal(t, []transactions.TxLink{create.OutputLink(0)}, got)

		spent = false
		got, err = l.GetOutputsFiltered(alice.Address(), &spent)
		require.NoError(t, err)
		require.Equal(t, []transactions.TxLink{create.OutputLink(1)}, got)

		utxos, err := l.GetUnspentOutputsFor(bob.Address())
		require.NoError(t, err)
		require.Len(t, utxos, 1)
		require.Equal(t, xfer.OutputLink(0), utxos[0].Link())
	})
}

func TestLatestAppHash(t *testing.T) {
	partitiontest.PartitionTest(t)

	forEachEngine(t, func(t *testing.T, l *Ledger) {
		h, err := l.LatestAppHash()
		require.NoError(t, err)
		require.Empty(t, h)
	})
}
