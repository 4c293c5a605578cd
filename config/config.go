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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/algorand/go-codec/codec"
	"gopkg.in/yaml.v3"

	"github.com/algorand/go-abciledger/protocol"
)

// ConfigFilename is the name of the JSON config file kept in the data directory
const ConfigFilename = "config.json"

// YAMLConfigFilename is consulted when no ConfigFilename is present
const YAMLConfigFilename = "config.yaml"

// LedgerFilenamePrefix names the ledger database inside the data directory.
// The storage engine is appended as a suffix.
const LedgerFilenamePrefix = "ledger"

// LockFilename guards a data directory against concurrent daemons
const LockFilename = "ledgerd.lock"

// Storage engines understood by the ledger.
const (
	SqliteEngine = "sqlite"
	PebbleEngine = "pebble"
)

// Local holds the per-node configuration settings.
// Zero values are never meaningful; start from GetDefaultLocal.
type Local struct {
	// Version tracks the version of the defaults the file was written against.
	Version uint32 `yaml:"Version"`

	// StorageEngine selects the ledger backend, either "sqlite" or "pebble".
	StorageEngine string `yaml:"StorageEngine"`

	// StorageInMemory keeps the ledger in memory. Nothing survives a restart; meant for tests and local experiments.
	StorageInMemory bool `yaml:"StorageInMemory"`

	// ABCIListenAddress is where the ABCI socket server accepts the consensus engine, e.g. tcp://127.0.0.1:26658.
	ABCIListenAddress string `yaml:"ABCIListenAddress"`

	// ABCITransport is either "socket" or "grpc".
	ABCITransport string `yaml:"ABCITransport"`

	// EnableMetrics starts a prometheus /metrics endpoint on MetricsAddress.
	EnableMetrics bool `yaml:"EnableMetrics"`

	// MetricsAddress is the listen address of the metrics endpoint.
	MetricsAddress string `yaml:"MetricsAddress"`

	// BaseLoggerDebugLevel is the logrus level of the base logger: 0 panic, 1 fatal, 2 error, 3 warn, 4 info, 5 debug.
	BaseLoggerDebugLevel uint32 `yaml:"BaseLoggerDebugLevel"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `yaml:"LogJSON"`

	// ConsensusVersions lists the consensus engine versions Info accepts.
	ConsensusVersions []string `yaml:"ConsensusVersions"`
}

// currentConfigVersion is bumped whenever a default changes
const currentConfigVersion = 1

var defaultLocal = Local{
	Version:              currentConfigVersion,
	StorageEngine:        SqliteEngine,
	StorageInMemory:      false,
	ABCIListenAddress:    "tcp://127.0.0.1:26658",
	ABCITransport:        "socket",
	EnableMetrics:        false,
	MetricsAddress:       "127.0.0.1:9100",
	BaseLoggerDebugLevel: 4,
	LogJSON:              false,
	ConsensusVersions:    []string{"0.34.24", "0.34.15"},
}

// GetDefaultLocal returns a copy of the current defaultLocal config
func GetDefaultLocal() Local {
	c := defaultLocal
	c.ConsensusVersions = slices.Clone(defaultLocal.ConsensusVersions)
	return c
}

// LoadConfigFromDisk reads config.json, or config.yaml when the former is absent,
// from the given directory on top of the defaults. A directory holding neither
// yields the defaults.
func LoadConfigFromDisk(custom string) (c Local, err error) {
	c = GetDefaultLocal()

	jsonPath := filepath.Join(custom, ConfigFilename)
	c, err = mergeConfigFromFile(jsonPath, c, loadJSON)
	if err == nil || !os.IsNotExist(err) {
		return c, err
	}

	yamlPath := filepath.Join(custom, YAMLConfigFilename)
	c, err = mergeConfigFromFile(yamlPath, c, loadYAML)
	if err != nil && os.IsNotExist(err) {
		return GetDefaultLocal(), nil
	}
	return c, err
}

func mergeConfigFromFile(configpath string, source Local, decode func([]byte, *Local) error) (Local, error) {
	data, err := os.ReadFile(configpath)
	if err != nil {
		return source, err
	}
	if err = decode(data, &source); err != nil {
		return source, fmt.Errorf("config: %s: %w", configpath, err)
	}
	return source, nil
}

var prettyJSONHandle = &codec.JsonHandle{Indent: 1}

func loadJSON(data []byte, c *Local) error {
	return codec.NewDecoderBytes(data, protocol.JSONHandle).Decode(c)
}

func loadYAML(data []byte, c *Local) error {
	return yaml.Unmarshal(data, c)
}

// SaveToDisk writes the config as config.json in root
func (cfg Local) SaveToDisk(root string) error {
	return cfg.SaveToFile(filepath.Join(root, ConfigFilename))
}

// SaveToFile writes the config as indented JSON to filename
func (cfg Local) SaveToFile(filename string) error {
	var out []byte
	if err := codec.NewEncoderBytes(&out, prettyJSONHandle).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(filename, append(out, '\n'), 0600)
}

// ErrUnknownStorageEngine is returned by Validate for engines other than sqlite and pebble
var ErrUnknownStorageEngine = errors.New("unknown storage engine")

// Validate checks the settings that cannot be defaulted silently
func (cfg Local) Validate() error {
	switch cfg.StorageEngine {
	case SqliteEngine, PebbleEngine:
	default:
		return fmt.Errorf("%w %q", ErrUnknownStorageEngine, cfg.StorageEngine)
	}
	switch cfg.ABCITransport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("config: ABCITransport %q is neither socket nor grpc", cfg.ABCITransport)
	}
	if cfg.ABCIListenAddress == "" {
		return errors.New("config: ABCIListenAddress is empty")
	}
	if cfg.EnableMetrics && cfg.MetricsAddress == "" {
		return errors.New("config: EnableMetrics requires MetricsAddress")
	}
	if cfg.BaseLoggerDebugLevel > 6 {
		return fmt.Errorf("config: BaseLoggerDebugLevel %d out of range", cfg.BaseLoggerDebugLevel)
	}
	if len(cfg.ConsensusVersions) == 0 {
		return errors.New("config: ConsensusVersions is empty")
	}
	return nil
}

// AcceptsConsensusVersion reports whether the consensus engine version is listed in ConsensusVersions
func (cfg Local) AcceptsConsensusVersion(version string) bool {
	return slices.Contains(cfg.ConsensusVersions, version)
}

// LedgerPath returns the location of the ledger database within dataDir
func (cfg Local) LedgerPath(dataDir string) string {
	return filepath.Join(dataDir, LedgerFilenamePrefix+"."+cfg.StorageEngine)
}
