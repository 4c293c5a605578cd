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

// Package storetest is a conformance suite run against every ledger store backend.
package storetest

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/store"
)

// Factory opens an empty store that lives until the end of the test.
type Factory func(t *testing.T) store.Store

type suiteT struct {
	*testing.T
	s store.Store
}

type suiteEntry struct {
	name string
	f    func(*suiteT)
}

// list of tests to be run on each backend
var suite []suiteEntry

// registerTest registers the given test with the suite
func registerTest(name string, f func(*suiteT)) {
	suite = append(suite, suiteEntry{name, f})
}

// Run runs every registered test against a fresh store from open.
func Run(t *testing.T, open Factory) {
	for _, entry := range suite {
		entry := entry
		t.Run(entry.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(s.Close)
			entry.f(&suiteT{T: t, s: s})
		})
	}
}

type holder struct {
	pk crypto.PublicKey
	sk crypto.SecretKey
}

func newHolder() holder {
	pk, sk := crypto.RandSecretKey()
	return holder{pk: pk, sk: sk}
}

func (h holder) String() string { return h.pk.String() }

func (t *suiteT) create(owner holder, amounts ...uint64) transactions.Transaction {
	var rs []transactions.Recipient
	for _, a := range amounts {
		rs = append(rs, transactions.Recipient{PublicKeys: []crypto.PublicKey{owner.pk}, Amount: a})
	}
	txn, err := transactions.MakeCreate([]crypto.PublicKey{owner.pk}, rs,
		map[string]interface{}{"serial": strconv.FormatUint(crypto.RandUint64(), 10)}, nil)
	require.NoError(t, err)
	require.NoError(t, txn.Sign(owner.sk))
	return txn
}

func (t *suiteT) transfer(from holder, to holder, inputs []transactions.Spendable, assetID string, amount uint64) transactions.Transaction {
	txn, err := transactions.MakeTransfer(inputs,
		[]transactions.Recipient{{PublicKeys: []crypto.PublicKey{to.pk}, Amount: amount}}, assetID, nil)
	require.NoError(t, err)
	require.NoError(t, txn.Sign(from.sk))
	return txn
}

func (t *suiteT) requireSameTxns(want []transactions.Transaction, got []transactions.Transaction) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
		id, err := got[i].ComputeID()
		require.NoError(t, err)
		require.Equal(t, want[i].ID, id, "stored body of %s changed", want[i].ID)
	}
}

func (t *suiteT) requireNoDiff(want, got interface{}) {
	t.Helper()
	require.Empty(t, cmp.Diff(want, got))
}
