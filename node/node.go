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

package node

import (
	"context"
	"fmt"

	"github.com/algorand/go-deadlock"
	abciserver "github.com/tendermint/tendermint/abci/server"
	tmlog "github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/governance"
	"github.com/algorand/go-abciledger/ledger"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/util/metrics"
)

// LedgerNode owns the ledger and serves it over ABCI.
type LedgerNode struct {
	mu     deadlock.Mutex
	config config.Local
	log    logging.Logger

	ledger *ledger.Ledger
	engine *governance.Engine
	events *Events
	app    *Application

	abciServer    service.Service
	metricService *metrics.MetricService
	cancelCtx     context.CancelFunc
}

// MakeLedgerNode opens the ledger under rootDir and recovers it from an
// interrupted block.
func MakeLedgerNode(log logging.Logger, rootDir string, cfg config.Local) (*LedgerNode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l, err := ledger.OpenLedger(log, rootDir, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger in %s: %w", rootDir, err)
	}

	node := &LedgerNode{config: cfg, log: log, ledger: l}
	node.engine = governance.MakeEngine(l, log)

	rolledBack, err := Rollback(l, node.engine)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("crash recovery: %w", err)
	}
	if rolledBack {
		log.Warn("rolled back a block interrupted before commit")
	}

	node.events = MakeEvents()
	node.app, err = MakeApplication(cfg, l, node.engine, node.events, log)
	if err != nil {
		node.events.Close()
		l.Close()
		return nil, err
	}
	return node, nil
}

// Config returns a copy of the node's Local configuration
func (node *LedgerNode) Config() config.Local {
	return node.config
}

// Application returns the ABCI application of the node.
func (node *LedgerNode) Application() *Application {
	return node.app
}

// Ledger returns the node's ledger.
func (node *LedgerNode) Ledger() *ledger.Ledger {
	return node.ledger
}

// Engine returns the node's election engine.
func (node *LedgerNode) Engine() *governance.Engine {
	return node.engine
}

// Events returns the node's block event bus.
func (node *LedgerNode) Events() *Events {
	return node.events
}

// Start serves ABCI, and metrics when enabled, until ctx is done or Stop is called.
func (node *LedgerNode) Start(ctx context.Context) error {
	node.mu.Lock()
	defer node.mu.Unlock()

	ctx, node.cancelCtx = context.WithCancel(ctx)

	srv, err := abciserver.NewServer(node.config.ABCIListenAddress, node.config.ABCITransport, node.app)
	if err != nil {
		return err
	}
	srv.SetLogger(tendermintLogger{node.log.With("component", "abci-server")})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("cannot serve ABCI on %s: %w", node.config.ABCIListenAddress, err)
	}
	node.abciServer = srv
	node.log.Infof("serving ABCI (%s) on %s", node.config.ABCITransport, node.config.ABCIListenAddress)

	if node.config.EnableMetrics {
		node.metricService = metrics.MakeMetricService(&metrics.ServiceConfig{ListenAddress: node.config.MetricsAddress})
		if err := node.metricService.Start(ctx); err != nil {
			node.log.Errorf("metrics service failed to start, turning it off - %v", err)
			node.metricService = nil
		} else {
			node.log.Infof("serving metrics on %s", node.metricService.Addr())
		}
	}
	return nil
}

// Stop stops serving and closes the ledger. Once a node is stopped, it can never start again.
func (node *LedgerNode) Stop() {
	node.mu.Lock()
	defer node.mu.Unlock()

	if node.abciServer != nil {
		if err := node.abciServer.Stop(); err != nil {
			node.log.Warnf("stopping ABCI server: %v", err)
		}
	}
	if node.metricService != nil {
		node.metricService.Shutdown()
	}
	if node.cancelCtx != nil {
		node.cancelCtx()
	}
	node.events.Close()
	node.ledger.Close()
}

// tendermintLogger routes the consensus engine library logs to a Logger.
type tendermintLogger struct {
	log logging.Logger
}

func (tl tendermintLogger) fields(keyvals []interface{}) logging.Logger {
	fields := logging.Fields{}
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	return tl.log.WithFields(fields)
}

func (tl tendermintLogger) Debug(msg string, keyvals ...interface{}) {
	tl.fields(keyvals).Debug(msg)
}

func (tl tendermintLogger) Info(msg string, keyvals ...interface{}) {
	tl.fields(keyvals).Info(msg)
}

func (tl tendermintLogger) Error(msg string, keyvals ...interface{}) {
	tl.fields(keyvals).Error(msg)
}

func (tl tendermintLogger) With(keyvals ...interface{}) tmlog.Logger {
	return tendermintLogger{tl.fields(keyvals)}
}
