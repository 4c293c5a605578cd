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
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

func memName(t *testing.T) string {
	return fmt.Sprintf("%s.%d.db", t.Name(), crypto.RandUint64())
}

func TestInMemoryDisposal(t *testing.T) {
	partitiontest.PartitionTest(t)

	fn := memName(t)
	acc, err := MakeAccessor(fn, false, true)
	require.NoError(t, err)
	err = acc.Atomic("create", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.Exec("create table Service (data blob)")
		return err
	})
	require.NoError(t, err)

	err = acc.Atomic("insert", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.Exec("insert or replace into Service (rowid, data) values (1, ?)", []byte{0, 1, 2})
		return err
	})
	require.NoError(t, err)

	anotherAcc, err := MakeAccessor(fn, false, true)
	require.NoError(t, err)
	err = anotherAcc.Atomic("count", func(ctx context.Context, tx *sql.Tx) error {
		var nrows int
		return tx.QueryRow("select count(*) from Service").Scan(&nrows)
	})
	require.NoError(t, err)
	anotherAcc.Close()
	acc.Close()

	acc, err = MakeAccessor(fn, false, true)
	require.NoError(t, err)
	defer acc.Close()
	err = acc.Atomic("count", func(ctx context.Context, tx *sql.Tx) error {
		var nrows int
		if tx.QueryRow("select count(*) from Service").Scan(&nrows) == nil {
			return errors.New("table `Service` presents while it should not")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestPairSharesDatabase(t *testing.T) {
	partitiontest.PartitionTest(t)

	p, err := OpenPair(memName(t), true)
	require.NoError(t, err)
	defer p.Close()

	err = p.Wdb.Atomic("create", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.Exec("CREATE TABLE foo (a INTEGER PRIMARY KEY)"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO foo (a) VALUES (1), (2)")
		return err
	})
	require.NoError(t, err)

	var n int
	err = p.Rdb.Atomic("count", func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRow("SELECT COUNT(*) FROM foo").Scan(&n)
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	partitiontest.PartitionTest(t)

	fn := filepath.Join(t.TempDir(), "atomic.sqlite")
	acc, err := MakeAccessor(fn, false, false)
	require.NoError(t, err)
	defer acc.Close()

	err = acc.Atomic("create", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.Exec("CREATE TABLE foo (a INTEGER PRIMARY KEY)")
		return err
	})
	require.NoError(t, err)

	err = acc.Atomic("dup", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO foo (a) VALUES (1)"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO foo (a) VALUES (1)")
		return err
	})
	require.Error(t, err)
	require.True(t, IsConstraintViolation(err))
	require.False(t, IsConstraintViolation(errors.New("other")))

	err = acc.Atomic("panic", func(ctx context.Context, tx *sql.Tx) error {
		panic("boom")
	})
	require.EqualError(t, err, "boom")

	var n int
	err = acc.Atomic("count", func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRow("SELECT COUNT(*) FROM foo").Scan(&n)
	})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMigrate(t *testing.T) {
	partitiontest.PartitionTest(t)

	acc, err := MakeAccessor(memName(t), false, true)
	require.NoError(t, err)
	defer acc.Close()

	ran := 0
	migrations := []Migration{
		func(ctx context.Context, tx *sql.Tx) error {
			ran++
			_, err := tx.ExecContext(ctx, "CREATE TABLE a (x INTEGER)")
			return err
		},
		func(ctx context.Context, tx *sql.Tx) error {
			ran++
			_, err := tx.ExecContext(ctx, "CREATE TABLE b (x INTEGER)")
			return err
		},
	}

	migrate := func(ms []Migration) error {
		return acc.Atomic("migrate", func(ctx context.Context, tx *sql.Tx) error {
			return Migrate(ctx, tx, ms)
		})
	}
	require.NoError(t, migrate(migrations[:1]))
	require.Equal(t, 1, ran)
	require.NoError(t, migrate(migrations))
	require.Equal(t, 2, ran)
	require.NoError(t, migrate(migrations))
	require.Equal(t, 2, ran)
	require.Error(t, migrate(migrations[:1]))

	err = acc.Atomic("version", func(ctx context.Context, tx *sql.Tx) error {
		ver, err := GetUserVersion(ctx, tx)
		require.Equal(t, int32(2), ver)
		return err
	})
	require.NoError(t, err)
}
