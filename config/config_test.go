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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/test/partitiontest"
)

func TestDefaultsAreValid(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	c := GetDefaultLocal()
	require.NoError(t, c.Validate())
	require.Equal(t, SqliteEngine, c.StorageEngine)
	require.True(t, c.AcceptsConsensusVersion("0.34.24"))
	require.False(t, c.AcceptsConsensusVersion("0.37.0"))

	// defaults must not leak through the returned copy
	c.ConsensusVersions[0] = "mutated"
	require.Equal(t, "0.34.24", GetDefaultLocal().ConsensusVersions[0])
}

func TestSaveThenLoad(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	c1 := GetDefaultLocal()
	c1.StorageEngine = PebbleEngine
	c1.EnableMetrics = true
	c1.ConsensusVersions = []string{"0.34.20"}
	require.NoError(t, c1.SaveToDisk(dir))

	c2, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, c1, c2)
}

func TestLoadMissingConfigYieldsDefaults(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	c, err := LoadConfigFromDisk(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, GetDefaultLocal(), c)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	body := "StorageEngine: pebble\nStorageInMemory: true\nMetricsAddress: \":9200\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, YAMLConfigFilename), []byte(body), 0600))

	c, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, PebbleEngine, c.StorageEngine)
	require.True(t, c.StorageInMemory)
	require.Equal(t, ":9200", c.MetricsAddress)
	require.Equal(t, defaultLocal.ABCIListenAddress, c.ABCIListenAddress)
	require.Equal(t, filepath.Join(dir, "ledger.pebble"), c.LedgerPath(dir))
}

func TestLoadRejectsUnknownField(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(`{"NoSuchSetting": 1}`), 0600))
	_, err := LoadConfigFromDisk(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Local)
	}{
		{"engine", func(c *Local) { c.StorageEngine = "rocksdb" }},
		{"transport", func(c *Local) { c.ABCITransport = "http" }},
		{"listen", func(c *Local) { c.ABCIListenAddress = "" }},
		{"metrics", func(c *Local) { c.EnableMetrics = true; c.MetricsAddress = "" }},
		{"level", func(c *Local) { c.BaseLoggerDebugLevel = 9 }},
		{"versions", func(c *Local) { c.ConsensusVersions = nil }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := GetDefaultLocal()
			test.mutate(&c)
			require.Error(t, c.Validate())
		})
	}

	c := GetDefaultLocal()
	c.StorageEngine = "leveldb"
	require.ErrorIs(t, c.Validate(), ErrUnknownStorageEngine)
}
