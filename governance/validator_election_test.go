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

package governance

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/data/txntest"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

func TestNewValidatorSet(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	a, b, c := txntest.NewAccount(), txntest.NewAccount(), txntest.NewAccount()
	current := []ledgercore.Validator{{PublicKey: a.Address(), VotingPower: 10}, {PublicKey: b.Address(), VotingPower: 10}}

	next := NewValidatorSet(current, []ValidatorUpdate{{PublicKey: b.PK, Power: 4}})
	require.Equal(t, []ledgercore.Validator{{PublicKey: a.Address(), VotingPower: 10}, {PublicKey: b.Address(), VotingPower: 4}}, next)
	require.Equal(t, uint64(10), current[1].VotingPower)

	next = NewValidatorSet(current, []ValidatorUpdate{{PublicKey: c.PK, Power: 1}})
	require.Len(t, next, 3)
	require.Equal(t, c.Address(), next[2].PublicKey)

	next = NewValidatorSet(current, []ValidatorUpdate{{PublicKey: a.PK, Power: 0}})
	require.Equal(t, []ledgercore.Validator{{PublicKey: b.Address(), VotingPower: 10}}, next)

	require.Len(t, NewValidatorSet(current, []ValidatorUpdate{{PublicKey: c.PK, Power: 0}}), 2)
}

func TestNewValidatorSetCardinality(t *testing.T) {
	partitiontest.PartitionTest(t)

	pool := make([]crypto.PublicKey, 8)
	for i := range pool {
		pool[i] = txntest.NewAccount().PK
	}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, len(pool)-1).Draw(t, "n")
		current := make([]ledgercore.Validator, n)
		for i := range current {
			current[i] = ledgercore.Validator{PublicKey: pool[i].String(), VotingPower: rapid.Uint64Range(1, 100).Draw(t, "power")}
		}
		k := rapid.IntRange(0, len(pool)-1).Draw(t, "key")
		power := rapid.Uint64Range(0, 100).Draw(t, "update")

		next := NewValidatorSet(current, []ValidatorUpdate{{PublicKey: pool[k], Power: power}})
		known := k < n
		switch {
		case known && power == 0:
			require.Len(t, next, n-1)
		case known || power == 0:
			require.Len(t, next, n)
		default:
			require.Len(t, next, n+1)
		}
		got, ok := ledgercore.ValidatorSet{Validators: next}.PowerOf(pool[k].String())
		require.Equal(t, power > 0, ok)
		if ok {
			require.Equal(t, power, got)
		}
	})
}

func TestValidatorElectionSchema(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proposer := txntest.NewAccount()
	validators := []ledgercore.Validator{{PublicKey: proposer.Address(), VotingPower: 10}}
	newcomer := txntest.NewAccount().PK

	tx, err := MakeValidatorElection(proposer.PK, validators, newcomer, 3, "node")
	require.NoError(t, err)
	d, err := parseValidatorElectionData(tx)
	require.NoError(t, err)
	u, err := d.update()
	require.NoError(t, err)
	require.Equal(t, ValidatorUpdate{PublicKey: newcomer, Power: 3}, u)
	require.NotEmpty(t, d.Seed)

	mutate := func(fn func(map[string]interface{})) error {
		tx, err := MakeValidatorElection(proposer.PK, validators, newcomer, 3, "node")
		require.NoError(t, err)
		fn(tx.Assets[0].Data.(map[string]interface{}))
		_, err = parseValidatorElectionData(tx)
		return err
	}
	for name, fn := range map[string]func(map[string]interface{}){
		"no node":   func(m map[string]interface{}) { delete(m, "node_id") },
		"extra":     func(m map[string]interface{}) { m["color"] = "red" },
		"bad power": func(m map[string]interface{}) { m["power"] = "lots" },
		"bad key":   func(m map[string]interface{}) { m["public_key"] = map[string]interface{}{"type": "ed25519-base16", "value": "xyz"} },
	} {
		err := mutate(fn)
		reason, ok := transactions.ReasonOf(err)
		require.True(t, ok, name)
		require.Equal(t, transactions.ValidationErrorReasonSchema, reason, name)
	}

	// base16 and base32 keys are accepted too
	for _, enc := range []crypto.PublicKeyEncoding{crypto.Ed25519Base16, crypto.Ed25519Base32} {
		value, err := crypto.EncodePublicKey(enc, newcomer)
		require.NoError(t, err)
		require.NoError(t, mutate(func(m map[string]interface{}) {
			m["public_key"] = map[string]interface{}{"type": string(enc), "value": value}
		}))
	}
}

func TestProposedKeyBase64(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	pk := txntest.NewAccount().PK
	hexKey, err := crypto.EncodePublicKey(crypto.Ed25519Base16, pk)
	require.NoError(t, err)
	require.Equal(t, pk.Base64(), proposedKeyBase64(map[string]interface{}{"type": string(crypto.Ed25519Base16), "value": hexKey}))
	require.Equal(t, "junk", proposedKeyBase64("junk"))
}
