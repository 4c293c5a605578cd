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

package store

import (
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
)

// CheckBatch rejects a batch that commits an id twice or spends an output
// twice. Backends call it before writing anything.
func CheckBatch(txs []transactions.Transaction) error {
	ids := make(map[string]bool, len(txs))
	spent := make(map[transactions.TxLink]bool)
	for _, tx := range txs {
		if ids[tx.ID] {
			return ledgercore.CriticalDoubleSpendError{Txid: tx.ID}
		}
		ids[tx.ID] = true
		for _, link := range tx.Links() {
			if spent[link] {
				l := link
				return ledgercore.CriticalDoubleSpendError{Txid: tx.ID, Link: &l}
			}
			spent[link] = true
		}
	}
	return nil
}

// OutputOwners returns the distinct keys an output pays, in order.
func OutputOwners(out transactions.Output) []string {
	seen := make(map[string]bool, len(out.PublicKeys))
	var keys []string
	for _, pk := range out.PublicKeys {
		if !seen[pk] {
			seen[pk] = true
			keys = append(keys, pk)
		}
	}
	return keys
}

// PaysPublicKey reports whether any output of tx names publicKey.
func PaysPublicKey(tx transactions.Transaction, publicKey string) bool {
	for _, out := range tx.Outputs {
		for _, pk := range out.PublicKeys {
			if pk == publicKey {
				return true
			}
		}
	}
	return false
}
