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

	"github.com/algorand/go-abciledger/util/db"
)

var ledgerSchema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		seq integer primary key autoincrement,
		id text NOT NULL UNIQUE,
		operation text NOT NULL,
		asset_id text NOT NULL,
		body blob NOT NULL)`,
	`CREATE INDEX IF NOT EXISTS transactions_asset ON transactions (asset_id)`,
	`CREATE TABLE IF NOT EXISTS spends (
		txid text NOT NULL,
		idx integer NOT NULL,
		spender text NOT NULL,
		PRIMARY KEY (txid, idx)) WITHOUT ROWID`,
	`CREATE INDEX IF NOT EXISTS spends_spender ON spends (spender)`,
	`CREATE TABLE IF NOT EXISTS owners (
		public_key text NOT NULL,
		txid text NOT NULL,
		idx integer NOT NULL,
		PRIMARY KEY (public_key, txid, idx)) WITHOUT ROWID`,
	`CREATE INDEX IF NOT EXISTS owners_txid ON owners (txid)`,
	`CREATE TABLE IF NOT EXISTS utxos (
		txid text NOT NULL,
		idx integer NOT NULL,
		body blob NOT NULL,
		PRIMARY KEY (txid, idx)) WITHOUT ROWID`,
	`CREATE TABLE IF NOT EXISTS blocks (
		height integer primary key,
		app_hash text NOT NULL,
		body blob NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS blocktxns (
		txid text primary key,
		height integer NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS validatorsets (
		height integer primary key,
		body blob NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS elections (
		election_id text primary key,
		height integer NOT NULL,
		is_concluded integer NOT NULL,
		concluded_at integer NOT NULL)`,
	`CREATE INDEX IF NOT EXISTS elections_height ON elections (height)`,
	`CREATE TABLE IF NOT EXISTS precommit (
		id integer primary key CHECK (id = 0),
		height integer NOT NULL,
		body blob NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS abcichains (
		height integer primary key,
		chain_id text NOT NULL,
		is_synced integer NOT NULL)`,
}

func execAll(stmts []string) db.Migration {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// migrations lists the schema versions in order; the database's
// user_version is the number of entries applied.
var migrations = []db.Migration{
	execAll(ledgerSchema),
}
