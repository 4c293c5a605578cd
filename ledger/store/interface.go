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

// Package store defines the persistence contract the ledger core depends on.
// Every mutation is visible to reads issued after it returns.
package store

import (
	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
)

// TransactionReader reads committed transactions and their indexes.
type TransactionReader interface {
	// GetTransaction returns the committed transaction with the given id.
	GetTransaction(id string) (transactions.Transaction, bool, error)
	// GetTransactions returns the committed transactions among ids, in the
	// order of ids. Unknown ids are skipped.
	GetTransactions(ids []string) ([]transactions.Transaction, error)
	// GetSpendingTransaction returns the committed transaction spending link.
	// More than one spender is a ledgercore.CriticalDoubleSpendError.
	GetSpendingTransaction(link transactions.TxLink) (transactions.Transaction, bool, error)
	// GetAssetTokensForPublicKey returns the transactions of an asset with an
	// output paying publicKey, in commit order.
	GetAssetTokensForPublicKey(assetID string, publicKey string) ([]transactions.Transaction, error)
	// GetOwnedOutputs returns every output ever paid to publicKey.
	GetOwnedOutputs(publicKey string) ([]transactions.TxLink, error)
}

// TransactionWriter commits and rolls back transactions.
type TransactionWriter interface {
	// StoreBulkTransactions commits txs atomically. If any id is already
	// committed, repeats inside txs, or spends an output that already has a
	// spender, nothing is written and a ledgercore.CriticalDoubleSpendError
	// is returned.
	StoreBulkTransactions(txs []transactions.Transaction) error
	// DeleteTransactions removes transactions and their indexes, drops their
	// unspent outputs and restores the outputs they spent.
	DeleteTransactions(ids []string) error
}

// BlockStore keeps committed blocks.
type BlockStore interface {
	StoreBlock(blk bookkeeping.Block) error
	GetBlock(height uint64) (bookkeeping.Block, bool, error)
	GetLatestBlock() (bookkeeping.Block, bool, error)
	// GetBlockWithTransaction returns the block that committed txid.
	GetBlockWithTransaction(txid string) (bookkeeping.Block, bool, error)
}

// ValidatorStore keeps the validator set history.
type ValidatorStore interface {
	// StoreValidatorSet stores vs, replacing any set at the same height.
	StoreValidatorSet(vs ledgercore.ValidatorSet) error
	// GetValidatorSet returns the set with the greatest height not above
	// height. Height zero returns the latest set.
	GetValidatorSet(height uint64) (ledgercore.ValidatorSet, bool, error)
	DeleteValidatorSet(height uint64) error
	GetLatestValidatorSetChange() (ledgercore.ValidatorSet, bool, error)
}

// ElectionStore keeps governance proposals.
type ElectionStore interface {
	StoreElection(e ledgercore.Election) error
	StoreElections(es []ledgercore.Election) error
	GetElection(id string) (ledgercore.Election, bool, error)
	// DeleteElections removes the elections initiated at height.
	DeleteElections(height uint64) error
	GetElectionsConcludedAt(height uint64) ([]ledgercore.Election, error)
}

// ChainStore keeps the crash recovery marker and the chain identities.
type ChainStore interface {
	StorePreCommitState(pc ledgercore.PreCommitState) error
	GetPreCommitState() (ledgercore.PreCommitState, bool, error)

	// StoreABCIChain stores c, replacing any chain at the same height.
	StoreABCIChain(c ledgercore.ABCIChain) error
	GetLatestABCIChain() (ledgercore.ABCIChain, bool, error)
	DeleteABCIChain(height uint64) error
}

// UTXOStore exposes the unspent output set directly.
type UTXOStore interface {
	GetUnspentOutputs() ([]ledgercore.UTXO, error)
	StoreUnspentOutputs(utxos []ledgercore.UTXO) error
	DeleteUnspentOutputs(links []transactions.TxLink) error
}

// Store is the full contract a backend implements.
type Store interface {
	TransactionReader
	TransactionWriter
	BlockStore
	ValidatorStore
	ElectionStore
	ChainStore
	UTXOStore

	Close()
}
