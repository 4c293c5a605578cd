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

// Package db defines database utility functions.
//
// These functions currently work on a sqlite database.
// Other databases may not work with functions in this package.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/algorand/go-abciledger/logging"
)

// busy is the time to wait for a sqlite lock from another process, in ms.
// This causes sqlite to wait before returning SQLITE_BUSY. Conflicts between
// connections of the same process contend on the shared cache instead, which
// surfaces as SQLITE_LOCKED and is retried by Atomic.
const busy = 1000

// maxTxRetries bounds the number of times Atomic retries a contended transaction.
const maxTxRetries = 1000

// warnTxRetries is the retry interval at which Atomic logs a warning.
const warnTxRetries = 10

// An Accessor manages a sqlite database handle.
type Accessor struct {
	Handle   *sql.DB
	readOnly bool
	log      logging.Logger
}

// MakeAccessor creates a new Accessor.
func MakeAccessor(dbfilename string, readOnly bool, inMemory bool) (Accessor, error) {
	db := Accessor{readOnly: readOnly, log: logging.Base().With("db", dbfilename)}

	var err error
	uri := URI(dbfilename, readOnly, inMemory)
	if !inMemory {
		uri += "&_journal_mode=wal"
	}
	db.Handle, err = sql.Open("sqlite3", uri)
	if err != nil {
		return Accessor{}, err
	}
	if err = db.Handle.Ping(); err != nil {
		db.Handle.Close()
		return Accessor{}, err
	}
	return db, nil
}

// Close closes the connection.
func (db Accessor) Close() {
	db.Handle.Close()
}

// Retry executes a function repeatedly as long as it returns an error
// that indicates database contention that warrants a retry.
func Retry(fn func() error) (err error) {
	for i := 0; ; i++ {
		if i > 0 && i%warnTxRetries == 0 {
			if i >= maxTxRetries {
				logging.Base().Errorf("db.Retry: %d retries (last err: %v)", i, err)
				return
			}
			logging.Base().Warnf("db.Retry: %d retries (last err: %v)", i, err)
		}

		err = fn()
		if dbretry(err) {
			continue
		}

		return
	}
}

// Atomic executes fn atomically with respect to the database, retrying it
// while the database reports contention.
func (db Accessor) Atomic(fnDescription string, fn idemFn) (err error) {
	return db.AtomicContext(context.Background(), fnDescription, fn)
}

// AtomicContext is Atomic with a caller supplied context.
func (db Accessor) AtomicContext(ctx context.Context, fnDescription string, fn idemFn) (err error) {
	descr := "w"
	if db.readOnly {
		descr = "r"
	}
	log := db.log.With("description", fnDescription)

	start := time.Now()
	defer func() {
		delta := time.Since(start)
		if delta > time.Second {
			log.Warnf("dbatomic(%v): tx took %v", descr, delta)
		}
	}()

	// the sql library drops panics inside an active transaction
	guardedFn := func(tx *sql.Tx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				var ok bool
				err, ok = r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
			}
		}()

		err = fn(ctx, tx)
		return
	}

	conn, err := db.Handle.Conn(ctx)
	if err != nil {
		return
	}
	defer conn.Close()

	for i := 0; ; i++ {
		if i > 0 && i%warnTxRetries == 0 {
			if i >= maxTxRetries {
				log.Errorf("dbatomic(%v): %d retries (last err: %v)", descr, i, err)
				return
			}
			log.Warnf("dbatomic(%v): %d retries (last err: %v)", descr, i, err)
		}

		var tx *sql.Tx
		tx, err = conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: db.readOnly})
		if dbretry(err) {
			continue
		} else if err != nil {
			return
		}

		err = guardedFn(tx)
		if err != nil {
			tx.Rollback()
			if dbretry(err) {
				continue
			}
			return
		}

		err = tx.Commit()
		if err == nil || !dbretry(err) {
			return
		}
	}
}

// URI returns the sqlite URI given a db filename as an input.
func URI(filename string, readOnly bool, memory bool) string {
	uri := fmt.Sprintf("file:%s?_busy_timeout=%d&_synchronous=full", filename, busy)
	if !readOnly {
		uri += "&_txlock=immediate"
	}
	if memory {
		uri += "&mode=memory&cache=shared"
	}
	return uri
}

// dbretry returns true if the error might be temporary
func dbretry(obj error) bool {
	var err sqlite3.Error
	return errors.As(obj, &err) && (err.Code == sqlite3.ErrLocked || err.Code == sqlite3.ErrBusy)
}

// IsConstraintViolation returns true if err is a primary key or unique
// constraint failure.
func IsConstraintViolation(obj error) bool {
	var err sqlite3.Error
	if !errors.As(obj, &err) || err.Code != sqlite3.ErrConstraint {
		return false
	}
	return err.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || err.ExtendedCode == sqlite3.ErrConstraintUnique
}

type idemFn func(ctx context.Context, tx *sql.Tx) error
