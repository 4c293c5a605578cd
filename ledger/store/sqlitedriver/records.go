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

package sqlitedriver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/protocol"
)

// scanBody decodes the single blob column of row into obj. A missing row
// reports ok false.
func scanBody(row *sql.Row, obj interface{}) (ok bool, err error) {
	var body []byte
	err = row.Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = protocol.DecodeJSON(body, obj); err != nil {
		return false, err
	}
	return true, nil
}

// StoreBlock implements store.Store
func (s *ledgerStore) StoreBlock(blk bookkeeping.Block) error {
	return s.write("StoreBlock", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO blocks (height, app_hash, body) VALUES (?, ?, ?)",
			blk.Height, blk.AppHash, protocol.EncodeJSON(blk))
		if err != nil {
			return err
		}
		for _, txid := range blk.Transactions {
			_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO blocktxns (txid, height) VALUES (?, ?)", txid, blk.Height)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetBlock implements store.Store
func (s *ledgerStore) GetBlock(height uint64) (blk bookkeeping.Block, ok bool, err error) {
	err = s.read("GetBlock", func(ctx context.Context, tx *sql.Tx) error {
		ok, err = scanBody(tx.QueryRowContext(ctx, "SELECT body FROM blocks WHERE height=?", height), &blk)
		return err
	})
	return
}

// GetLatestBlock implements store.Store
func (s *ledgerStore) GetLatestBlock() (blk bookkeeping.Block, ok bool, err error) {
	err = s.read("GetLatestBlock", func(ctx context.Context, tx *sql.Tx) error {
		ok, err = scanBody(tx.QueryRowContext(ctx, "SELECT body FROM blocks ORDER BY height DESC LIMIT 1"), &blk)
		return err
	})
	return
}

// GetBlockWithTransaction implements store.Store
func (s *ledgerStore) GetBlockWithTransaction(txid string) (blk bookkeeping.Block, ok bool, err error) {
	err = s.read("GetBlockWithTransaction", func(ctx context.Context, tx *sql.Tx) error {
		ok, err = scanBody(tx.QueryRowContext(ctx,
			"SELECT b.body FROM blocktxns bt JOIN blocks b ON b.height=bt.height WHERE bt.txid=?", txid), &blk)
		return err
	})
	return
}

// StoreValidatorSet implements store.Store
func (s *ledgerStore) StoreValidatorSet(vs ledgercore.ValidatorSet) error {
	return s.write("StoreValidatorSet", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO validatorsets (height, body) VALUES (?, ?)",
			vs.Height, protocol.EncodeJSON(vs))
		return err
	})
}

// GetValidatorSet implements store.Store
func (s *ledgerStore) GetValidatorSet(height uint64) (vs ledgercore.ValidatorSet, ok bool, err error) {
	if height == 0 {
		return s.GetLatestValidatorSetChange()
	}
	err = s.read("GetValidatorSet", func(ctx context.Context, tx *sql.Tx) error {
		ok, err = scanBody(tx.QueryRowContext(ctx,
			"SELECT body FROM validatorsets WHERE height<=? ORDER BY height DESC LIMIT 1", height), &vs)
		return err
	})
	return
}

// GetLatestValidatorSetChange implements store.Store
func (s *ledgerStore) GetLatestValidatorSetChange() (vs ledgercore.ValidatorSet, ok bool, err error) {
	err = s.read("GetLatestValidatorSetChange", func(ctx context.Context, tx *sql.Tx) error {
		ok, err = scanBody(tx.QueryRowContext(ctx, "SELECT body FROM validatorsets ORDER BY height DESC LIMIT 1"), &vs)
		return err
	})
	return
}

// DeleteValidatorSet implements store.Store
func (s *ledgerStore) DeleteValidatorSet(height uint64) error {
	return s.write("DeleteValidatorSet", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM validatorsets WHERE height=?", height)
		return err
	})
}

func putElection(ctx context.Context, tx *sql.Tx, e ledgercore.Election) error {
	_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO elections (election_id, height, is_concluded, concluded_at) VALUES (?, ?, ?, ?)",
		e.ElectionID, e.Height, e.IsConcluded, e.ConcludedAt)
	return err
}

// StoreElection implements store.Store
func (s *ledgerStore) StoreElection(e ledgercore.Election) error {
	return s.StoreElections([]ledgercore.Election{e})
}

// StoreElections implements store.Store
func (s *ledgerStore) StoreElections(es []ledgercore.Election) error {
	return s.write("StoreElections", func(ctx context.Context, tx *sql.Tx) error {
		for _, e := range es {
			if err := putElection(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetElection implements store.Store
func (s *ledgerStore) GetElection(id string) (e ledgercore.Election, ok bool, err error) {
	err = s.read("GetElection", func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT election_id, height, is_concluded, concluded_at FROM elections WHERE election_id=?", id).
			Scan(&e.ElectionID, &e.Height, &e.IsConcluded, &e.ConcludedAt)
		if errors.Is(err, sql.ErrNoRows) {
			ok = false
			return nil
		}
		ok = err == nil
		return err
	})
	return
}

// DeleteElections implements store.Store
func (s *ledgerStore) DeleteElections(height uint64) error {
	return s.write("DeleteElections", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM elections WHERE height=?", height)
		return err
	})
}

// GetElectionsConcludedAt implements store.Store
func (s *ledgerStore) GetElectionsConcludedAt(height uint64) (es []ledgercore.Election, err error) {
	err = s.read("GetElectionsConcludedAt", func(ctx context.Context, tx *sql.Tx) error {
		es = nil
		rows, err := tx.QueryContext(ctx, `SELECT election_id, height, is_concluded, concluded_at FROM elections
			WHERE is_concluded=1 AND concluded_at=? ORDER BY election_id`, height)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e ledgercore.Election
			if err = rows.Scan(&e.ElectionID, &e.Height, &e.IsConcluded, &e.ConcludedAt); err != nil {
				return err
			}
			es = append(es, e)
		}
		return rows.Err()
	})
	return
}

// StorePreCommitState implements store.Store
func (s *ledgerStore) StorePreCommitState(pc ledgercore.PreCommitState) error {
	return s.write("StorePreCommitState", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO precommit (id, height, body) VALUES (0, ?, ?)",
			pc.Height, protocol.EncodeJSON(pc))
		return err
	})
}

// GetPreCommitState implements store.Store
func (s *ledgerStore) GetPreCommitState() (pc ledgercore.PreCommitState, ok bool, err error) {
	err = s.read("GetPreCommitState", func(ctx context.Context, tx *sql.Tx) error {
		ok, err = scanBody(tx.QueryRowContext(ctx, "SELECT body FROM precommit WHERE id=0"), &pc)
		return err
	})
	return
}

// StoreABCIChain implements store.Store
func (s *ledgerStore) StoreABCIChain(c ledgercore.ABCIChain) error {
	return s.write("StoreABCIChain", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO abcichains (height, chain_id, is_synced) VALUES (?, ?, ?)",
			c.Height, c.ChainID, c.IsSynced)
		return err
	})
}

// GetLatestABCIChain implements store.Store
func (s *ledgerStore) GetLatestABCIChain() (c ledgercore.ABCIChain, ok bool, err error) {
	err = s.read("GetLatestABCIChain", func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT height, chain_id, is_synced FROM abcichains ORDER BY height DESC LIMIT 1").
			Scan(&c.Height, &c.ChainID, &c.IsSynced)
		if errors.Is(err, sql.ErrNoRows) {
			ok = false
			return nil
		}
		ok = err == nil
		return err
	})
	return
}

// DeleteABCIChain implements store.Store
func (s *ledgerStore) DeleteABCIChain(height uint64) error {
	return s.write("DeleteABCIChain", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM abcichains WHERE height=?", height)
		return err
	})
}

// GetUnspentOutputs implements store.Store
func (s *ledgerStore) GetUnspentOutputs() (utxos []ledgercore.UTXO, err error) {
	err = s.read("GetUnspentOutputs", func(ctx context.Context, tx *sql.Tx) error {
		utxos = nil
		rows, err := tx.QueryContext(ctx, "SELECT txid, idx, body FROM utxos ORDER BY txid, idx")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var u ledgercore.UTXO
			var body []byte
			if err = rows.Scan(&u.TransactionID, &u.OutputIndex, &body); err != nil {
				return err
			}
			if err = protocol.DecodeJSON(body, &u.Output); err != nil {
				return err
			}
			utxos = append(utxos, u)
		}
		return rows.Err()
	})
	return
}

// StoreUnspentOutputs implements store.Store
func (s *ledgerStore) StoreUnspentOutputs(utxos []ledgercore.UTXO) error {
	return s.write("StoreUnspentOutputs", func(ctx context.Context, tx *sql.Tx) error {
		for _, u := range utxos {
			_, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO utxos (txid, idx, body) VALUES (?, ?, ?)",
				u.TransactionID, u.OutputIndex, protocol.EncodeJSON(u.Output))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUnspentOutputs implements store.Store
func (s *ledgerStore) DeleteUnspentOutputs(links []transactions.TxLink) error {
	return s.write("DeleteUnspentOutputs", func(ctx context.Context, tx *sql.Tx) error {
		for _, l := range links {
			_, err := tx.ExecContext(ctx, "DELETE FROM utxos WHERE txid=? AND idx=?", l.TransactionID, l.OutputIndex)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
