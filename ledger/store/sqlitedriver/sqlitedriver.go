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

// Package sqlitedriver implements the ledger store on sqlite.
package sqlitedriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/ledger/store"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/util/db"
)

type ledgerStore struct {
	pair db.Pair
	log  logging.Logger
}

// Open opens or creates the ledger database at filename.
func Open(filename string, inMem bool, log logging.Logger) (store.Store, error) {
	pair, err := db.OpenPair(filename, inMem)
	if err != nil {
		return nil, fmt.Errorf("sqlitedriver: cannot open %s: %w", filename, err)
	}
	err = pair.Wdb.Atomic("migrate", func(ctx context.Context, tx *sql.Tx) error {
		return db.Migrate(ctx, tx, migrations)
	})
	if err != nil {
		pair.Close()
		return nil, fmt.Errorf("sqlitedriver: schema migration failed: %w", err)
	}
	return &ledgerStore{pair: pair, log: log}, nil
}

// Close implements store.Store
func (s *ledgerStore) Close() {
	s.pair.Close()
}

func (s *ledgerStore) read(descr string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return s.pair.Rdb.Atomic(descr, fn)
}

func (s *ledgerStore) write(descr string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return s.pair.Wdb.Atomic(descr, fn)
}

func getTransaction(ctx context.Context, tx *sql.Tx, id string) (txn transactions.Transaction, ok bool, err error) {
	var body []byte
	err = tx.QueryRowContext(ctx, "SELECT body FROM transactions WHERE id=?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return txn, false, nil
	}
	if err != nil {
		return
	}
	err = protocol.DecodeJSON(body, &txn)
	return txn, err == nil, err
}

// GetTransaction implements store.Store
func (s *ledgerStore) GetTransaction(id string) (txn transactions.Transaction, ok bool, err error) {
	err = s.read("GetTransaction", func(ctx context.Context, tx *sql.Tx) error {
		txn, ok, err = getTransaction(ctx, tx, id)
		return err
	})
	return
}

// GetTransactions implements store.Store
func (s *ledgerStore) GetTransactions(ids []string) (txns []transactions.Transaction, err error) {
	err = s.read("GetTransactions", func(ctx context.Context, tx *sql.Tx) error {
		txns = nil
		for _, id := range ids {
			txn, ok, err := getTransaction(ctx, tx, id)
			if err != nil {
				return err
			}
			if ok {
				txns = append(txns, txn)
			}
		}
		return nil
	})
	return
}

// StoreBulkTransactions implements store.Store
func (s *ledgerStore) StoreBulkTransactions(txns []transactions.Transaction) error {
	if err := store.CheckBatch(txns); err != nil {
		return err
	}
	return s.write("StoreBulkTransactions", func(ctx context.Context, tx *sql.Tx) error {
		for _, txn := range txns {
			if err := insertTransaction(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn transactions.Transaction) error {
	_, exists, err := getTransaction(ctx, tx, txn.ID)
	if err != nil {
		return err
	}
	if exists {
		return ledgercore.CriticalDoubleSpendError{Txid: txn.ID}
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO transactions (id, operation, asset_id, body) VALUES (?, ?, ?, ?)",
		txn.ID, string(txn.Operation), txn.AssetID(), protocol.EncodeJSON(txn))
	if err != nil {
		if db.IsConstraintViolation(err) {
			return ledgercore.CriticalDoubleSpendError{Txid: txn.ID}
		}
		return err
	}

	for _, link := range txn.Links() {
		_, err = tx.ExecContext(ctx, "INSERT INTO spends (txid, idx, spender) VALUES (?, ?, ?)",
			link.TransactionID, link.OutputIndex, txn.ID)
		if err != nil {
			if db.IsConstraintViolation(err) {
				l := link
				return ledgercore.CriticalDoubleSpendError{Txid: txn.ID, Link: &l}
			}
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM utxos WHERE txid=? AND idx=?", link.TransactionID, link.OutputIndex)
		if err != nil {
			return err
		}
	}

	for i, out := range txn.Outputs {
		for _, pk := range store.OutputOwners(out) {
			_, err = tx.ExecContext(ctx, "INSERT OR IGNORE INTO owners (public_key, txid, idx) VALUES (?, ?, ?)", pk, txn.ID, i)
			if err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO utxos (txid, idx, body) VALUES (?, ?, ?)",
			txn.ID, i, protocol.EncodeJSON(out))
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteTransactions implements store.Store
func (s *ledgerStore) DeleteTransactions(ids []string) error {
	deleting := make(map[string]bool, len(ids))
	for _, id := range ids {
		deleting[id] = true
	}

	return s.write("DeleteTransactions", func(ctx context.Context, tx *sql.Tx) error {
		for _, id := range ids {
			txn, ok, err := getTransaction(ctx, tx, id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			for _, link := range txn.Links() {
				_, err = tx.ExecContext(ctx, "DELETE FROM spends WHERE txid=? AND idx=? AND spender=?",
					link.TransactionID, link.OutputIndex, txn.ID)
				if err != nil {
					return err
				}
				if deleting[link.TransactionID] {
					continue
				}
				src, ok, err := getTransaction(ctx, tx, link.TransactionID)
				if err != nil {
					return err
				}
				if !ok || int(link.OutputIndex) >= len(src.Outputs) {
					continue
				}
				_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO utxos (txid, idx, body) VALUES (?, ?, ?)",
					link.TransactionID, link.OutputIndex, protocol.EncodeJSON(src.Outputs[link.OutputIndex]))
				if err != nil {
					return err
				}
			}

			for _, stmt := range []string{
				"DELETE FROM owners WHERE txid=?",
				"DELETE FROM utxos WHERE txid=?",
				"DELETE FROM transactions WHERE id=?",
			} {
				if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetSpendingTransaction implements store.Store
func (s *ledgerStore) GetSpendingTransaction(link transactions.TxLink) (txn transactions.Transaction, ok bool, err error) {
	err = s.read("GetSpendingTransaction", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT spender FROM spends WHERE txid=? AND idx=?", link.TransactionID, link.OutputIndex)
		if err != nil {
			return err
		}
		var spenders []string
		for rows.Next() {
			var spender string
			if err = rows.Scan(&spender); err != nil {
				rows.Close()
				return err
			}
			spenders = append(spenders, spender)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}

		switch len(spenders) {
		case 0:
			ok = false
			return nil
		case 1:
			txn, ok, err = getTransaction(ctx, tx, spenders[0])
			return err
		default:
			l := link
			return ledgercore.CriticalDoubleSpendError{Txid: spenders[1], Link: &l}
		}
	})
	return
}

// GetAssetTokensForPublicKey implements store.Store
func (s *ledgerStore) GetAssetTokensForPublicKey(assetID string, publicKey string) (txns []transactions.Transaction, err error) {
	err = s.read("GetAssetTokensForPublicKey", func(ctx context.Context, tx *sql.Tx) error {
		txns = nil
		rows, err := tx.QueryContext(ctx, `SELECT t.body FROM transactions t
			WHERE t.asset_id=? AND EXISTS (SELECT 1 FROM owners o WHERE o.txid=t.id AND o.public_key=?)
			ORDER BY t.seq`, assetID, publicKey)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var body []byte
			if err = rows.Scan(&body); err != nil {
				return err
			}
			var txn transactions.Transaction
			if err = protocol.DecodeJSON(body, &txn); err != nil {
				return err
			}
			txns = append(txns, txn)
		}
		return rows.Err()
	})
	return
}

// GetOwnedOutputs implements store.Store
func (s *ledgerStore) GetOwnedOutputs(publicKey string) (links []transactions.TxLink, err error) {
	err = s.read("GetOwnedOutputs", func(ctx context.Context, tx *sql.Tx) error {
		links = nil
		rows, err := tx.QueryContext(ctx, `SELECT o.txid, o.idx FROM owners o JOIN transactions t ON t.id=o.txid
			WHERE o.public_key=? ORDER BY t.seq, o.idx`, publicKey)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var link transactions.TxLink
			if err = rows.Scan(&link.TransactionID, &link.OutputIndex); err != nil {
				return err
			}
			links = append(links, link)
		}
		return rows.Err()
	})
	return
}
