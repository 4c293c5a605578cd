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

package protocol

// TxOperation is the operation a ledger transaction performs.
type TxOperation string

// Operations, in the order they were introduced.
const (
	CreateTx                 TxOperation = "CREATE"
	TransferTx               TxOperation = "TRANSFER"
	VoteTx                   TxOperation = "VOTE"
	ValidatorElectionTx      TxOperation = "VALIDATOR_ELECTION"
	ChainMigrationElectionTx TxOperation = "CHAIN_MIGRATION_ELECTION"
	ComposeTx                TxOperation = "COMPOSE"
	DecomposeTx              TxOperation = "DECOMPOSE"

	// UnknownTx signals an error
	UnknownTx TxOperation = "unknown"
)

// TxnVersion is the only transaction format version accepted by the ledger.
const TxnVersion = "2.0"

// Known reports whether op is one of the operations the ledger understands.
func (op TxOperation) Known() bool {
	switch op {
	case CreateTx, TransferTx, VoteTx, ValidatorElectionTx, ChainMigrationElectionTx, ComposeTx, DecomposeTx:
		return true
	default:
		return false
	}
}

// CreatesAsset is true for operations whose asset id is their own transaction id.
func (op TxOperation) CreatesAsset() bool {
	switch op {
	case CreateTx, ValidatorElectionTx, ChainMigrationElectionTx, ComposeTx:
		return true
	default:
		return false
	}
}

// IsElection is true for governance proposals.
func (op TxOperation) IsElection() bool {
	return op == ValidatorElectionTx || op == ChainMigrationElectionTx
}

// SpendsOutputs is true for operations whose every input must fulfill a prior output.
func (op TxOperation) SpendsOutputs() bool {
	switch op {
	case TransferTx, VoteTx, ComposeTx, DecomposeTx:
		return true
	default:
		return false
	}
}
