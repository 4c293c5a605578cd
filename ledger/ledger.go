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

// Package ledger wraps a store backend with the lookups that need block context.
package ledger

import (
	"fmt"
	"sort"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/ledger/store"
	"github.com/algorand/go-abciledger/ledger/store/pebbledriver"
	"github.com/algorand/go-abciledger/ledger/store/sqlitedriver"
	"github.com/algorand/go-abciledger/logging"
)

// Ledger is a ledger store plus the queries the validator, the election
// engine and the ABCI application share.
type Ledger struct {
	store.Store

	log logging.Logger
}

// OpenLedger opens the ledger kept in dataDir with the engine cfg selects.
func OpenLedger(log logging.Logger, dataDir string, cfg config.Local) (*Ledger, error) {
	path := cfg.LedgerPath(dataDir)

	var s store.Store
	var err error
	switch cfg.StorageEngine {
	case config.SqliteEngine:
		s, err = sqlitedriver.Open(path, cfg.StorageInMemory, log)
	case config.PebbleEngine:
		s, err = pebbledriver.Open(path, cfg.StorageInMemory, log)
	default:
		return nil, fmt.Errorf("OpenLedger: %w %q", config.ErrUnknownStorageEngine, cfg.StorageEngine)
	}
	if err != nil {
		return nil, fmt.Errorf("OpenLedger: %w", err)
	}
	log.Infof("OpenLedger: opened %s ledger at %s (in memory: %v)", cfg.StorageEngine, path, cfg.StorageInMemory)
	return MakeLedger(s, log), nil
}

// MakeLedger wraps an already opened store.
func MakeLedger(s store.Store, log logging.Logger) *Ledger {
	return &Ledger{Store: s, log: log}
}

// GetSpent returns the transaction spending link, among committed history
// and the transactions of the block in progress. Two spenders in total is a
// DoubleSpend validation failure; two committed spenders is corruption and
// surfaces the store's CriticalDoubleSpendError.
func (l *Ledger) GetSpent(link transactions.TxLink, inBlock []transactions.Transaction) (transactions.Transaction, bool, error) {
	committed, found, err := l.GetSpendingTransaction(link)
	if err != nil {
		return transactions.Transaction{}, false, err
	}

	var pending []transactions.Transaction
	for _, tx := range inBlock {
		for _, in := range tx.Inputs {
			if in.Fulfills != nil && *in.Fulfills == link {
				pending = append(pending, tx)
			}
		}
	}

	spenders := len(pending)
	if found {
		spenders++
	}
	switch {
	case spenders > 1:
		return transactions.Transaction{}, false, transactions.MakeValidationError(transactions.ValidationErrorReasonDoubleSpend,
			"output %v is spent twice", link)
	case found:
		return committed, true, nil
	case len(pending) == 1:
		return pending[0], true, nil
	}
	return transactions.Transaction{}, false, nil
}

// GetInputTransaction resolves txid from committed history, falling back to
// the transactions of the block in progress.
func (l *Ledger) GetInputTransaction(txid string, inBlock []transactions.Transaction) (transactions.Transaction, bool, error) {
	tx, ok, err := l.GetTransaction(txid)
	if err != nil || ok {
		return tx, ok, err
	}
	for _, btx := range inBlock {
		if btx.ID == txid {
			return btx, true, nil
		}
	}
	return transactions.Transaction{}, false, nil
}

// GetValidators returns the validators effective at height, or the latest
// ones when height is zero.
func (l *Ledger) GetValidators(height uint64) ([]ledgercore.Validator, error) {
	vs, ok, err := l.GetValidatorSet(height)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return vs.Validators, nil
}

// LatestAppHash returns the app hash of the latest committed block, or the
// empty string before genesis.
func (l *Ledger) LatestAppHash() (string, error) {
	blk, ok, err := l.GetLatestBlock()
	if err != nil || !ok {
		return "", err
	}
	return blk.AppHash, nil
}

// UTXOSetMerkleRoot returns the merkle root over the current unspent outputs.
func (l *Ledger) UTXOSetMerkleRoot() (string, error) {
	utxos, err := l.GetUnspentOutputs()
	if err != nil {
		return "", err
	}
	leaves := make([]crypto.Digest, len(utxos))
	for i, u := range utxos {
		leaves[i] = crypto.UTXOLeaf(u.TransactionID, u.OutputIndex)
	}
	return crypto.SortedMerkleRoot(leaves), nil
}

// GetOutputsFiltered lists the outputs paid to publicKey. A nil spent keeps
// every output, otherwise only the outputs whose spent state matches.
func (l *Ledger) GetOutputsFiltered(publicKey string, spent *bool) ([]transactions.TxLink, error) {
	links, err := l.GetOwnedOutputs(publicKey)
	if err != nil {
		return nil, err
	}
	if spent == nil {
		return links, nil
	}

	filtered := links[:0]
	for _, link := range links {
		_, isSpent, err := l.GetSpendingTransaction(link)
		if err != nil {
			return nil, err
		}
		if isSpent == *spent {
			filtered = append(filtered, link)
		}
	}
	return filtered, nil
}

// GetUnspentOutputsFor returns the unspent outputs paid to publicKey, ordered by link.
func (l *Ledger) GetUnspentOutputsFor(publicKey string) ([]ledgercore.UTXO, error) {
	utxos, err := l.GetUnspentOutputs()
	if err != nil {
		return nil, err
	}
	var out []ledgercore.UTXO
	for _, u := range utxos {
		for _, owner := range store.OutputOwners(u.Output) {
			if owner == publicKey {
				out = append(out, u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionID != out[j].TransactionID {
			return out[i].TransactionID < out[j].TransactionID
		}
		return out[i].OutputIndex < out[j].OutputIndex
	})
	return out, nil
}
