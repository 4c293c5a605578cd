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

	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
)

func init() {
	registerTest("transactions-round-trip", testTransactionsRoundTrip)
	registerTest("bulk-rejects-committed-id", testBulkRejectsCommittedID)
	registerTest("bulk-rejects-double-spend", testBulkRejectsDoubleSpend)
	registerTest("spending-transaction", testSpendingTransaction)
	registerTest("utxo-tracking", testUTXOTracking)
	registerTest("asset-tokens-and-owners", testAssetTokensAndOwners)
}

// testTransactionsRoundTrip checks stored transactions read back unchanged.
func testTransactionsRoundTrip(t *suiteT) {
	alice := newHolder()
	a := t.create(alice, 10)
	b := t.create(alice, 3, 4)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{a, b}))

	got, ok, err := t.s.GetTransaction(a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	t.requireSameTxns([]transactions.Transaction{a}, []transactions.Transaction{got})

	_, ok, err = t.s.GetTransaction("missing")
	require.NoError(t, err)
	require.False(t, ok)

	txns, err := t.s.GetTransactions([]string{b.ID, "missing", a.ID})
	require.NoError(t, err)
	t.requireSameTxns([]transactions.Transaction{b, a}, txns)
}

// testBulkRejectsCommittedID checks a batch with a committed id writes nothing.
func testBulkRejectsCommittedID(t *suiteT) {
	alice := newHolder()
	a := t.create(alice, 10)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{a}))

	fresh := t.create(alice, 5)
	err := t.s.StoreBulkTransactions([]transactions.Transaction{fresh, a})
	require.True(t, ledgercore.IsCriticalDoubleSpend(err), "%v", err)

	_, ok, err := t.s.GetTransaction(fresh.ID)
	require.NoError(t, err)
	require.False(t, ok, "batch was partially written")

	err = t.s.StoreBulkTransactions([]transactions.Transaction{fresh, fresh})
	require.True(t, ledgercore.IsCriticalDoubleSpend(err), "%v", err)
	_, ok, err = t.s.GetTransaction(fresh.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

// testBulkRejectsDoubleSpend checks an output cannot get a second spender.
func testBulkRejectsDoubleSpend(t *suiteT) {
	alice, bob, carol := newHolder(), newHolder(), newHolder()
	a := t.create(alice, 10)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{a}))

	toBob := t.transfer(alice, bob, a.Spendables(), a.ID, 10)
	toCarol := t.transfer(alice, carol, a.Spendables(), a.ID, 10)

	err := t.s.StoreBulkTransactions([]transactions.Transaction{toBob, toCarol})
	require.True(t, ledgercore.IsCriticalDoubleSpend(err), "%v", err)

	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{toBob}))
	err = t.s.StoreBulkTransactions([]transactions.Transaction{toCarol})
	require.True(t, ledgercore.IsCriticalDoubleSpend(err), "%v", err)

	_, ok, err := t.s.GetTransaction(toCarol.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

// testSpendingTransaction checks spender lookups and their rollback.
func testSpendingTransaction(t *suiteT) {
	alice, bob := newHolder(), newHolder()
	a := t.create(alice, 10)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{a}))

	_, ok, err := t.s.GetSpendingTransaction(a.OutputLink(0))
	require.NoError(t, err)
	require.False(t, ok)

	toBob := t.transfer(alice, bob, a.Spendables(), a.ID, 10)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{toBob}))

	spender, ok, err := t.s.GetSpendingTransaction(a.OutputLink(0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, toBob.ID, spender.ID)

	require.NoError(t, t.s.DeleteTransactions([]string{toBob.ID}))
	_, ok, err = t.s.GetSpendingTransaction(a.OutputLink(0))
	require.NoError(t, err)
	require.False(t, ok)

	// the output can be spent again once the spender is rolled back
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{toBob}))
}

func utxoLinks(t *suiteT) []transactions.TxLink {
	utxos, err := t.s.GetUnspentOutputs()
	require.NoError(t, err)
	links := make([]transactions.TxLink, 0, len(utxos))
	for _, u := range utxos {
		links = append(links, u.Link())
	}
	return links
}

// testUTXOTracking checks the unspent set follows commits and rollbacks.
func testUTXOTracking(t *suiteT) {
	alice, bob := newHolder(), newHolder()
	a := t.create(alice, 6, 4)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{a}))
	require.ElementsMatch(t, []transactions.TxLink{a.OutputLink(0), a.OutputLink(1)}, utxoLinks(t))

	toBob := t.transfer(alice, bob, a.Spendables()[:1], a.ID, 6)
	back := t.transfer(bob, alice, toBob.Spendables(), a.ID, 6)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{toBob, back}))
	require.ElementsMatch(t, []transactions.TxLink{a.OutputLink(1), back.OutputLink(0)}, utxoLinks(t))

	utxos, err := t.s.GetUnspentOutputs()
	require.NoError(t, err)
	for _, u := range utxos {
		if u.TransactionID == back.ID {
			require.Equal(t, uint64(6), u.Output.Amount)
			require.Equal(t, []string{alice.String()}, u.Output.PublicKeys)
		}
	}

	require.NoError(t, t.s.DeleteTransactions([]string{toBob.ID, back.ID}))
	require.ElementsMatch(t, []transactions.TxLink{a.OutputLink(0), a.OutputLink(1)}, utxoLinks(t))

	require.NoError(t, t.s.DeleteUnspentOutputs([]transactions.TxLink{a.OutputLink(1)}))
	require.ElementsMatch(t, []transactions.TxLink{a.OutputLink(0)}, utxoLinks(t))
	require.NoError(t, t.s.StoreUnspentOutputs([]ledgercore.UTXO{{TransactionID: a.ID, OutputIndex: 1, Output: a.Outputs[1]}}))
	require.ElementsMatch(t, []transactions.TxLink{a.OutputLink(0), a.OutputLink(1)}, utxoLinks(t))
}

// testAssetTokensAndOwners checks the asset and owner indexes.
func testAssetTokensAndOwners(t *suiteT) {
	alice, bob := newHolder(), newHolder()
	a := t.create(alice, 10)
	other := t.create(bob, 1)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{a, other}))

	toBob := t.transfer(alice, bob, a.Spendables(), a.ID, 10)
	require.NoError(t, t.s.StoreBulkTransactions([]transactions.Transaction{toBob}))

	txns, err := t.s.GetAssetTokensForPublicKey(a.ID, bob.String())
	require.NoError(t, err)
	t.requireSameTxns([]transactions.Transaction{toBob}, txns)

	txns, err = t.s.GetAssetTokensForPublicKey(a.ID, alice.String())
	require.NoError(t, err)
	t.requireSameTxns([]transactions.Transaction{a}, txns)

	links, err := t.s.GetOwnedOutputs(bob.String())
	require.NoError(t, err)
	require.Equal(t, []transactions.TxLink{other.OutputLink(0), toBob.OutputLink(0)}, links)

	require.NoError(t, t.s.DeleteTransactions([]string{toBob.ID}))
	links, err = t.s.GetOwnedOutputs(bob.String())
	require.NoError(t, err)
	require.Equal(t, []transactions.TxLink{other.OutputLink(0)}, links)
	txns, err = t.s.GetAssetTokensForPublicKey(a.ID, bob.String())
	require.NoError(t, err)
	require.Empty(t, txns)
}
