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

package kvstore

import (
	"errors"
	"io"
	"runtime"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/algorand/go-abciledger/logging"
)

// PebbleDB implements KVstore
type PebbleDB struct {
	Pdb *pebble.DB
	wo  *pebble.WriteOptions
}

// NewPebbleDB opens a PebbleDB in the specified directory
func NewPebbleDB(dbdir string, inMem bool, log logging.Logger) (*PebbleDB, error) {
	cache := pebble.NewCache(64 << 20)
	defer cache.Unref()

	opts := &pebble.Options{
		Logger:                      log,
		Cache:                       cache,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
		LBaseMaxBytes:               64 << 20, // 64 MB
		Levels:                      make([]pebble.LevelOptions, 7),
		MaxConcurrentCompactions:    func() int { return runtime.NumCPU() },
		MemTableSize:                16 << 20, // 16 MB
		MemTableStopWritesThreshold: 2,
	}
	// Disable seek compaction
	opts.Experimental.ReadSamplingMultiplier = -1
	for i := 0; i < len(opts.Levels); i++ {
		l := &opts.Levels[i]
		l.BlockSize = 4 << 10 // 4 KB
		l.IndexBlockSize = l.BlockSize
		l.FilterPolicy = bloom.FilterPolicy(10)
		l.FilterType = pebble.TableFilter
		if i > 0 {
			l.TargetFileSize = opts.Levels[i-1].TargetFileSize * 2
		}
		l.EnsureDefaults()
	}
	if inMem {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dbdir+".pebbledb", opts)
	if err != nil {
		return nil, err
	}
	// block records must be durable before Commit returns
	wo := &pebble.WriteOptions{Sync: !inMem}
	return &PebbleDB{Pdb: db, wo: wo}, nil
}

func mapPebbleErrors(err error) error {
	if errors.Is(err, pebble.ErrNotFound) {
		return ErrKeyNotFound
	}
	return err
}

// Close closes the database
func (db *PebbleDB) Close() error { return db.Pdb.Close() }

// Get a key
func (db *PebbleDB) Get(key []byte) ([]byte, error) {
	return getCopy(db.Pdb, key)
}

type getter interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func getCopy(g getter, key []byte) ([]byte, error) {
	value, closer, err := g.Get(key)
	if err != nil {
		return nil, mapPebbleErrors(err)
	}
	ret := make([]byte, len(value))
	copy(ret, value)
	closer.Close()
	return ret, nil
}

// Set a key to value
func (db *PebbleDB) Set(key, value []byte) error { return db.Pdb.Set(key, value, db.wo) }

// Delete a key
func (db *PebbleDB) Delete(key []byte) error { return db.Pdb.Delete(key, db.wo) }

// pebbleBatch is an indexed batch, so reads observe pending writes
type pebbleBatch struct {
	wb *pebble.Batch
	wo *pebble.WriteOptions
}

// NewBatch creates a batch writer
func (db *PebbleDB) NewBatch() BatchWriter {
	return &pebbleBatch{wb: db.Pdb.NewIndexedBatch(), wo: db.wo}
}

func (b *pebbleBatch) Get(key []byte) ([]byte, error) { return getCopy(b.wb, key) }
func (b *pebbleBatch) Set(key, value []byte) error     { return b.wb.Set(key, value, nil) }
func (b *pebbleBatch) Delete(key []byte) error         { return b.wb.Delete(key, nil) }
func (b *pebbleBatch) Commit() error                   { return b.wb.Commit(b.wo) }
func (b *pebbleBatch) Cancel()                         { b.wb.Close() }

type pebbleIterator struct {
	iter      *pebble.Iterator
	reverse   bool
	firstCall bool
}

// NewIterator scans a range: low and high are optional (set to nil otherwise)
func (db *PebbleDB) NewIterator(low, high []byte, reverse bool) Iterator {
	iter := db.Pdb.NewIter(&pebble.IterOptions{
		LowerBound: low,
		UpperBound: high,
	})
	return &pebbleIterator{iter: iter, reverse: reverse, firstCall: true}
}

func (i *pebbleIterator) Next() bool {
	if i.firstCall {
		i.firstCall = false
		if i.reverse {
			return i.iter.Last()
		}
		return i.iter.First()
	}
	if i.reverse {
		return i.iter.Prev()
	}
	return i.iter.Next()
}

func (i *pebbleIterator) Valid() bool { return i.iter.Valid() }
func (i *pebbleIterator) Close()      { i.iter.Close() }

func (i *pebbleIterator) Key() []byte {
	k := i.iter.Key()
	ret := make([]byte, len(k))
	copy(ret, k)
	return ret
}

func (i *pebbleIterator) Value() ([]byte, error) {
	v := i.iter.Value()
	ret := make([]byte, len(v))
	copy(ret, v)
	return ret, nil
}
