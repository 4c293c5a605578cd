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

package ledgercore

import (
	"github.com/algorand/go-abciledger/data/transactions"
)

// PreCommitState records the transactions delivered for the block in
// flight. It is written at end of block, before governance runs and before
// the block commits, and is consumed by crash recovery.
type PreCommitState struct {
	Height       uint64   `codec:"height"`
	Transactions []string `codec:"transactions"`
}

// Validator is one member of a validator set. PublicKey is base58.
type Validator struct {
	PublicKey   string `codec:"public_key"`
	VotingPower uint64 `codec:"voting_power"`
}

// ValidatorSet is the validator set effective from Height on.
type ValidatorSet struct {
	Height     uint64      `codec:"height"`
	Validators []Validator `codec:"validators"`
}

// TotalPower sums the voting power of the set.
func (vs ValidatorSet) TotalPower() (total uint64) {
	for _, v := range vs.Validators {
		total += v.VotingPower
	}
	return
}

// PowerOf returns the voting power of pk, and whether pk is in the set.
func (vs ValidatorSet) PowerOf(pk string) (uint64, bool) {
	for _, v := range vs.Validators {
		if v.PublicKey == pk {
			return v.VotingPower, true
		}
	}
	return 0, false
}

// Election tracks a governance proposal. Height is the initiation height,
// ConcludedAt the height it concluded at.
type Election struct {
	ElectionID  string `codec:"election_id"`
	Height      uint64 `codec:"height"`
	IsConcluded bool   `codec:"is_concluded"`
	ConcludedAt uint64 `codec:"concluded_at"`
}

// ABCIChain is a chain identity agreed with the consensus engine. Height is
// the offset between the engine's heights and the ledger's.
type ABCIChain struct {
	Height   uint64 `codec:"height"`
	ChainID  string `codec:"chain_id"`
	IsSynced bool   `codec:"is_synced"`
}

// UTXO is an unspent output.
type UTXO struct {
	TransactionID string             `codec:"transaction_id"`
	OutputIndex   uint32             `codec:"output_index"`
	Output        transactions.Output `codec:"output"`
}

// Link returns the output link of u.
func (u UTXO) Link() transactions.TxLink {
	return transactions.TxLink{TransactionID: u.TransactionID, OutputIndex: u.OutputIndex}
}

// UTXOsOf lists every output of tx as unspent.
func UTXOsOf(tx transactions.Transaction) []UTXO {
	out := make([]UTXO, len(tx.Outputs))
	for i, o := range tx.Outputs {
		out[i] = UTXO{TransactionID: tx.ID, OutputIndex: uint32(i), Output: o}
	}
	return out
}
