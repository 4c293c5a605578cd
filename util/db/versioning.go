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

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// GetUserVersion returns the user version field stored in the sqlite database.
func GetUserVersion(ctx context.Context, tx *sql.Tx) (userVersion int32, err error) {
	err = tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&userVersion)
	if err != nil {
		return 0, err
	}
	return
}

// SetUserVersion sets the user version field of the sqlite database and
// returns the previous version.
func SetUserVersion(ctx context.Context, tx *sql.Tx, userVersion int32) (previousUserVersion int32, err error) {
	previousUserVersion, err = GetUserVersion(ctx, tx)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", userVersion))
	if err != nil {
		return 0, err
	}
	return
}

// Migration upgrades a schema by one version.
type Migration func(ctx context.Context, tx *sql.Tx) error

// Migrate runs the migrations a database at its stored user version has not
// seen yet, and records the new version.
func Migrate(ctx context.Context, tx *sql.Tx, migrations []Migration) error {
	version, err := GetUserVersion(ctx, tx)
	if err != nil {
		return err
	}
	if int(version) > len(migrations) {
		return fmt.Errorf("database version %d is newer than supported version %d", version, len(migrations))
	}
	for i := int(version); i < len(migrations); i++ {
		if err := migrations[i](ctx, tx); err != nil {
			return fmt.Errorf("migration to version %d: %w", i+1, err)
		}
	}
	_, err = SetUserVersion(ctx, tx, int32(len(migrations)))
	return err
}
