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
	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/util/kvstore"
)

// last decodes the value with the greatest key in [low, high) into obj.
func (s *ledgerStore) last(low, high []byte, obj interface{}) (ok bool, err error) {
	err = s.scanRange(low, high, true, func(k, v []byte) (bool, error) {
		ok = true
		return false, protocol.DecodeReflect(v, obj)
	})
	if err != nil {
		ok = false
	}
	return
}

// StoreBlock implements store.Store
func (s *ledgerStore) StoreBlock(blk bookkeeping.Block) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		for _, txid := range blk.Transactions {
			if err := b.Set(key(prefixBlockTxn, []byte(txid)), be64(blk.Height)); err != nil {
				return err
			}
		}
		return setObj(b, key(prefixBlock, be64(blk.Height)), blk)
	})
}

// GetBlock implements store.Store
func (s *ledgerStore) GetBlock(height uint64) (blk bookkeeping.Block, ok bool, err error) {
	ok, err = getObj(s.kvs, key(prefixBlock, be64(height)), &blk)
	return
}

// GetLatestBlock implements store.Store
func (s *ledgerStore) GetLatestBlock() (blk bookkeeping.Block, ok bool, err error) {
	prefix := []byte(prefixBlock)
	ok, err = s.last(prefix, kvstore.PrefixEnd(prefix), &blk)
	return
}

// GetBlockWithTransaction implements store.Store
func (s *ledgerStore) GetBlockWithTransaction(txid string) (bookkeeping.Block, bool, error) {
	v, err := s.kvs.Get(key(prefixBlockTxn, []byte(txid)))
	if err == kvstore.ErrKeyNotFound {
		return bookkeeping.Block{}, false, nil
	}
	if err != nil {
		return bookkeeping.Block{}, false, err
	}
	var blk bookkeeping.Block
	ok, err := getObj(s.kvs, key(prefixBlock, v), &blk)
	return blk, ok, err
}

// StoreValidatorSet implements store.Store
func (s *ledgerStore) StoreValidatorSet(vs ledgercore.ValidatorSet) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		return setObj(b, key(prefixVSet, be64(vs.Height)), vs)
	})
}

// GetValidatorSet implements store.Store
func (s *ledgerStore) GetValidatorSet(height uint64) (vs ledgercore.ValidatorSet, ok bool, err error) {
	if height == 0 {
		return s.GetLatestValidatorSetChange()
	}
	high := kvstore.PrefixEnd(key(prefixVSet, be64(height)))
	ok, err = s.last([]byte(prefixVSet), high, &vs)
	return
}

// GetLatestValidatorSetChange implements store.Store
func (s *ledgerStore) GetLatestValidatorSetChange() (vs ledgercore.ValidatorSet, ok bool, err error) {
	prefix := []byte(prefixVSet)
	ok, err = s.last(prefix, kvstore.PrefixEnd(prefix), &vs)
	return
}

// DeleteValidatorSet implements store.Store
func (s *ledgerStore) DeleteValidatorSet(height uint64) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		return b.Delete(key(prefixVSet, be64(height)))
	})
}

func electionKey(id string) []byte { return key(prefixElection, []byte(id)) }

// StoreElection implements store.Store
func (s *ledgerStore) StoreElection(e ledgercore.Election) error {
	return s.StoreElections([]ledgercore.Election{e})
}

// StoreElections implements store.Store
func (s *ledgerStore) StoreElections(es []ledgercore.Election) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		for _, e := range es {
			if err := setObj(b, electionKey(e.ElectionID), e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetElection implements store.Store
func (s *ledgerStore) GetElection(id string) (e ledgercore.Election, ok bool, err error) {
	ok, err = getObj(s.kvs, electionKey(id), &e)
	return
}

// elections visits every election record.
func (s *ledgerStore) elections(fn func(e ledgercore.Election) error) error {
	return s.scan([]byte(prefixElection), false, func(k, v []byte) (bool, error) {
		var e ledgercore.Election
		if err := protocol.DecodeReflect(v, &e); err != nil {
			return false, err
		}
		return true, fn(e)
	})
}

// DeleteElections implements store.Store
func (s *ledgerStore) DeleteElections(height uint64) error {
	var doomed []string
	err := s.elections(func(e ledgercore.Election) error {
		if e.Height == height {
			doomed = append(doomed, e.ElectionID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.mutate(func(b kvstore.BatchWriter) error {
		for _, id := range doomed {
			if err := b.Delete(electionKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetElectionsConcludedAt implements store.Store
func (s *ledgerStore) GetElectionsConcludedAt(height uint64) (es []ledgercore.Election, err error) {
	err = s.elections(func(e ledgercore.Election) error {
		if e.IsConcluded && e.ConcludedAt == height {
			es = append(es, e)
		}
		return nil
	})
	return
}

// StorePreCommitState implements store.Store
func (s *ledgerStore) StorePreCommitState(pc ledgercore.PreCommitState) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		return setObj(b, []byte(keyPreCommit), pc)
	})
}

// GetPreCommitState implements store.Store
func (s *ledgerStore) GetPreCommitState() (pc ledgercore.PreCommitState, ok bool, err error) {
	ok, err = getObj(s.kvs, []byte(keyPreCommit), &pc)
	return
}

// StoreABCIChain implements store.Store
func (s *ledgerStore) StoreABCIChain(c ledgercore.ABCIChain) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		return setObj(b, key(prefixChain, be64(c.Height)), c)
	})
}

// GetLatestABCIChain implements store.Store
func (s *ledgerStore) GetLatestABCIChain() (c ledgercore.ABCIChain, ok bool, err error) {
	prefix := []byte(prefixChain)
	ok, err = s.last(prefix, kvstore.PrefixEnd(prefix), &c)
	return
}

// DeleteABCIChain implements store.Store
func (s *ledgerStore) DeleteABCIChain(height uint64) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		return b.Delete(key(prefixChain, be64(height)))
	})
}

// GetUnspentOutputs implements store.Store
func (s *ledgerStore) GetUnspentOutputs() (utxos []ledgercore.UTXO, err error) {
	prefix := []byte(prefixUTXO)
	err = s.scan(prefix, false, func(k, v []byte) (bool, error) {
		// k is prefix, txid, separator, big endian output index
		rest := k[len(prefix):]
		if len(rest) < 5 {
			return false, errCorruptKey(k)
		}
		u := ledgercore.UTXO{
			TransactionID: string(rest[:len(rest)-5]),
			OutputIndex:   beUint32(rest[len(rest)-4:]),
		}
		if err := protocol.DecodeReflect(v, &u.Output); err != nil {
			return false, err
		}
		utxos = append(utxos, u)
		return true, nil
	})
	return
}

// StoreUnspentOutputs implements store.Store
func (s *ledgerStore) StoreUnspentOutputs(utxos []ledgercore.UTXO) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		for _, u := range utxos {
			if err := setObj(b, linkKey(prefixUTXO, u.Link()), u.Output); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUnspentOutputs implements store.Store
func (s *ledgerStore) DeleteUnspentOutputs(links []transactions.TxLink) error {
	return s.mutate(func(b kvstore.BatchWriter) error {
		for _, l := range links {
			if err := b.Delete(linkKey(prefixUTXO, l)); err != nil {
				return err
			}
		}
		return nil
	})
}
