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

// Package txntest builds signed ledger transactions for tests.
package txntest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
)

// Account is a key pair able to receive and spend outputs.
type Account struct {
	PK crypto.PublicKey
	SK crypto.SecretKey
}

// NewAccount generates a random account.
func NewAccount() Account {
	pk, sk := crypto.RandSecretKey()
	return Account{PK: pk, SK: sk}
}

// Address is the base58 public key.
func (a Account) Address() string {
	return a.PK.String()
}

// Pay is a single-key recipient of amount.
func (a Account) Pay(amount uint64) transactions.Recipient {
	return transactions.Recipient{PublicKeys: []crypto.PublicKey{a.PK}, Amount: amount}
}

// Create issues a fresh asset to owner, one output per amount.
func Create(t testing.TB, owner Account, amounts ...uint64) transactions.Transaction {
	t.Helper()
	var rs []transactions.Recipient
	for _, a := range amounts {
		rs = append(rs, owner.Pay(a))
	}
	tx, err := transactions.MakeCreate([]crypto.PublicKey{owner.PK}, rs,
		map[string]interface{}{"serial": strconv.FormatUint(crypto.RandUint64(), 10)}, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(owner.SK))
	return tx
}

// Transfer spends inputs, all owned by from, into recipients.
func Transfer(t testing.TB, from Account, inputs []transactions.Spendable, assetID string, recipients ...transactions.Recipient) transactions.Transaction {
	t.Helper()
	tx, err := transactions.MakeTransfer(inputs, recipients, assetID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(from.SK))
	return tx
}
