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

package pebbledriver

import (
	"encoding/binary"

	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/ledger/store"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/util/kvstore"
)

func getStored(r reader, id string) (st storedTxn, ok bool, err error) {
	ok, err = getObj(r, txnKey(id), &st)
	return
}

// GetTransaction implements store.Store
func (s *ledgerStore) GetTransaction(id string) (transactions.Transaction, bool, error) {
	st, ok, err := getStored(s.kvs, id)
	return st.Txn, ok, err
}

// GetTransactions implements store.Store
func (s *ledgerStore) GetTransactions(ids []string) ([]transactions.Transaction, error) {
	var txns []transactions.Transaction
	for _, id := range ids {
		txn, ok, err := s.GetTransaction(id)
		if err != nil {
			return nil, err
		}
		if ok {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

func nextSequence(b kvstore.BatchWriter) (uint64, error) {
	v, err := b.Get([]byte(keyTxnSequence))
	if err == kvstore.ErrKeyNotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v) + 1, nil
}

// StoreBulkTransactions implements store.Store
func (s *ledgerStore) StoreBulkTransactions(txns []transactions.Transaction) error {
	if err := store.CheckBatch(txns); err != nil {
		return err
	}
	return s.mutate(func(b kvstore.BatchWriter) error {
		seq, err := nextSequence(b)
		if err != nil {
			return err
		}
		for _, txn := range txns {
			_, exists, err := getStored(b, txn.ID)
			if err != nil {
				return err
			}
			if exists {
				return ledgercore.CriticalDoubleSpendError{Txid: txn.ID}
			}

			for _, link := range txn.Links() {
				sk := linkKey(prefixSpend, link)
				_, err := b.Get(sk)
				if err == nil {
					l := link
					return ledgercore.CriticalDoubleSpendError{Txid: txn.ID, Link: &l}
				}
				if err != kvstore.ErrKeyNotFound {
					return err
				}
				if err = b.Set(sk, []byte(txn.ID)); err != nil {
					return err
				}
				if err = b.Delete(linkKey(prefixUTXO, link)); err != nil {
					return err
				}
			}

			if err = setObj(b, txnKey(txn.ID), storedTxn{Seq: seq, Txn: txn}); err != nil {
				return err
			}
			if err = b.Set(assetKey(txn.AssetID(), seq), []byte(txn.ID)); err != nil {
				return err
			}
			for i, out := range txn.Outputs {
				link := txn.OutputLink(i)
				for _, pk := range store.OutputOwners(out) {
					if err = setObj(b, ownerKey(pk, seq, uint32(i)), link); err != nil {
						return err
					}
				}
				if err = setObj(b, linkKey(prefixUTXO, link), out); err != nil {
					return err
				}
			}
			seq++
		}
		return b.Set([]byte(keyTxnSequence), be64(seq-1))
	})
}

// DeleteTransactions implements store.Store
func (s *ledgerStore) DeleteTransactions(ids []string) error {
	deleting := make(map[string]bool, len(ids))
	for _, id := range ids {
		deleting[id] = true
	}

	return s.mutate(func(b kvstore.BatchWriter) error {
		for _, id := range ids {
			st, ok, err := getStored(b, id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			txn := st.Txn

			for _, link := range txn.Links() {
				sk := linkKey(prefixSpend, link)
				spender, err := b.Get(sk)
				if err == nil && string(spender) == txn.ID {
					if err = b.Delete(sk); err != nil {
						return err
					}
				} else if err != nil && err != kvstore.ErrKeyNotFound {
					return err
				}

				if deleting[link.TransactionID] {
					continue
				}
				src, ok, err := getStored(b, link.TransactionID)
				if err != nil {
					return err
				}
				if !ok || int(link.OutputIndex) >= len(src.Txn.Outputs) {
					continue
				}
				if err = setObj(b, linkKey(prefixUTXO, link), src.Txn.Outputs[link.OutputIndex]); err != nil {
					return err
				}
			}

			for i, out := range txn.Outputs {
				for _, pk := range store.OutputOwners(out) {
					if err = b.Delete(ownerKey(pk, st.Seq, uint32(i))); err != nil {
						return err
					}
				}
				if err = b.Delete(linkKey(prefixUTXO, txn.OutputLink(i))); err != nil {
					return err
				}
			}
			if err = b.Delete(assetKey(txn.AssetID(), st.Seq)); err != nil {
				return err
			}
			if err = b.Delete(txnKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSpendingTransaction implements store.Store
func (s *ledgerStore) GetSpendingTransaction(link transactions.TxLink) (transactions.Transaction, bool, error) {
	spender, err := s.kvs.Get(linkKey(prefixSpend, link))
	if err == kvstore.ErrKeyNotFound {
		return transactions.Transaction{}, false, nil
	}
	if err != nil {
		return transactions.Transaction{}, false, err
	}
	return s.GetTransaction(string(spender))
}

// GetAssetTokensForPublicKey implements store.Store
func (s *ledgerStore) GetAssetTokensForPublicKey(assetID string, publicKey string) ([]transactions.Transaction, error) {
	var txns []transactions.Transaction
	err := s.scan(key(prefixAsset, []byte(assetID), nil), false, func(k, v []byte) (bool, error) {
		txn, ok, err := s.GetTransaction(string(v))
		if err != nil {
			return false, err
		}
		if ok && store.PaysPublicKey(txn, publicKey) {
			txns = append(txns, txn)
		}
		return true, nil
	})
	return txns, err
}

// GetOwnedOutputs implements store.Store
func (s *ledgerStore) GetOwnedOutputs(publicKey string) ([]transactions.TxLink, error) {
	var links []transactions.TxLink
	err := s.scan(key(prefixOwner, []byte(publicKey), nil), false, func(k, v []byte) (bool, error) {
		var link transactions.TxLink
		if err := protocol.DecodeReflect(v, &link); err != nil {
			return false, err
		}
		links = append(links, link)
		return true, nil
	})
	return links, err
}
