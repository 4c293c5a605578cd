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

// Package pebbledriver implements the ledger store on a pebble key-value store.
package pebbledriver

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/algorand/go-deadlock"

	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/store"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/util/kvstore"
)

// key prefixes
const (
	prefixTxn      = "tx/"
	prefixSpend    = "spend/"
	prefixAsset    = "asset/"
	prefixOwner    = "owner/"
	prefixUTXO     = "utxo/"
	prefixBlock    = "block/"
	prefixBlockTxn = "blocktx/"
	prefixVSet     = "vset/"
	prefixElection = "election/"
	prefixChain    = "chain/"
	keyPreCommit   = "precommit"
	keyTxnSequence = "meta/txseq"
	keySeparator   = '/'
)

// storedTxn keeps the commit sequence number alongside the transaction
// so that indexes can be ordered by commit and removed on rollback.
type storedTxn struct {
	Seq uint64                   `codec:"seq"`
	Txn transactions.Transaction `codec:"txn"`
}

type ledgerStore struct {
	kvs kvstore.KVStore
	log logging.Logger

	// writeMu serializes mutations so that existence checks and the batch
	// that follows them are atomic.
	writeMu deadlock.Mutex
}

// Open opens or creates the ledger database in dbdir.
func Open(dbdir string, inMem bool, log logging.Logger) (store.Store, error) {
	kvs, err := kvstore.NewPebbleDB(dbdir, inMem, log)
	if err != nil {
		return nil, fmt.Errorf("pebbledriver: cannot open %s: %w", dbdir, err)
	}
	return &ledgerStore{kvs: kvs, log: log}, nil
}

// Close implements store.Store
func (s *ledgerStore) Close() {
	if err := s.kvs.Close(); err != nil {
		s.log.Warnf("pebbledriver: close: %v", err)
	}
}

func be64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func be32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func key(prefix string, parts ...[]byte) []byte {
	k := []byte(prefix)
	for i, p := range parts {
		if i > 0 {
			k = append(k, keySeparator)
		}
		k = append(k, p...)
	}
	return k
}

func txnKey(id string) []byte { return key(prefixTxn, []byte(id)) }

func linkKey(prefix string, l transactions.TxLink) []byte {
	return key(prefix, []byte(l.TransactionID), be32(l.OutputIndex))
}

func assetKey(assetID string, seq uint64) []byte {
	return key(prefixAsset, []byte(assetID), be64(seq))
}

func ownerKey(pk string, seq uint64, idx uint32) []byte {
	return key(prefixOwner, []byte(pk), append(be64(seq), be32(idx)...))
}

type reader interface {
	Get(key []byte) ([]byte, error)
}

// getObj decodes the value at k into obj, reporting whether it exists.
func getObj(r reader, k []byte, obj interface{}) (bool, error) {
	v, err := r.Get(k)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = protocol.DecodeReflect(v, obj); err != nil {
		return false, fmt.Errorf("pebbledriver: cannot decode %q: %w", k, err)
	}
	return true, nil
}

// scan visits every value under prefix until fn returns false.
func (s *ledgerStore) scan(prefix []byte, reverse bool, fn func(k, v []byte) (bool, error)) error {
	return s.scanRange(prefix, kvstore.PrefixEnd(prefix), reverse, fn)
}

// scanRange visits every value in [low, high) until fn returns false.
func (s *ledgerStore) scanRange(low, high []byte, reverse bool, fn func(k, v []byte) (bool, error)) error {
	it := s.kvs.NewIterator(low, high, reverse)
	defer it.Close()
	for it.Next() {
		v, err := it.Value()
		if err != nil {
			return err
		}
		more, err := fn(it.Key(), v)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

// mutate runs fn on a fresh batch under the write lock and commits it
// when fn succeeds.
func (s *ledgerStore) mutate(fn func(b kvstore.BatchWriter) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	b := s.kvs.NewBatch()
	defer b.Cancel()
	if err := fn(b); err != nil {
		return err
	}
	return b.Commit()
}

func setObj(b kvstore.BatchWriter, k []byte, obj interface{}) error {
	return b.Set(k, protocol.EncodeReflect(obj))
}

func beUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func errCorruptKey(k []byte) error {
	return fmt.Errorf("pebbledriver: corrupt key %q", k)
}
