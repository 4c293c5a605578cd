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

// Package node runs the ledger as an ABCI application behind a consensus engine.
package node

import (
	"errors"
	"fmt"

	"github.com/algorand/go-deadlock"
	abcitypes "github.com/tendermint/tendermint/abci/types"

	"github.com/algorand/go-abciledger/config"
	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/bookkeeping"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/data/transactions/verify"
	"github.com/algorand/go-abciledger/governance"
	"github.com/algorand/go-abciledger/ledger"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/util/metrics"
)

// Response codes returned for CheckTx and DeliverTx.
const (
	CodeTypeOK    = abcitypes.CodeTypeOK
	CodeTypeError = uint32(1)
)

var (
	checkedTotal   = metrics.MakeCounter(metrics.TransactionsCheckedTotal, "operation", "result")
	deliveredTotal = metrics.MakeCounter(metrics.TransactionsDeliveredTotal, "operation", "result")
	committedTotal = metrics.MakeCounter(metrics.BlocksCommittedTotal)
	ledgerHeight   = metrics.MakeGauge(metrics.LedgerHeight)
)

// FatalHandler terminates the process on a ledger inconsistency. It is not
// expected to return.
type FatalHandler func(format string, args ...interface{})

// Application is the ABCI state machine. Consensus calls arrive one at a
// time; CheckTx may run alongside them.
type Application struct {
	abcitypes.BaseApplication

	cfg       config.Local
	ledger    *ledger.Ledger
	engine    *governance.Engine
	validator *verify.Validator
	events    *Events
	log       logging.Logger
	fatal     FatalHandler

	// mu guards chain
	mu    deadlock.Mutex
	chain *ledgercore.ABCIChain

	blockTxns []transactions.Transaction
	blockIDs  []string
	newHeight uint64
	appHash   string
}

// MakeApplication returns an application serving l. events may be nil.
func MakeApplication(cfg config.Local, l *ledger.Ledger, engine *governance.Engine, events *Events, log logging.Logger) (*Application, error) {
	app := &Application{
		cfg:       cfg,
		ledger:    l,
		engine:    engine,
		validator: verify.MakeValidator(l, engine),
		events:    events,
		log:       log.With("component", "abci"),
	}
	app.fatal = app.log.Fatalf

	if err := app.refreshChain(); err != nil {
		return nil, err
	}
	return app, nil
}

// SetFatalHandler replaces the handler called on fatal conditions.
func (app *Application) SetFatalHandler(fn FatalHandler) {
	app.fatal = fn
}

func (app *Application) refreshChain() error {
	chain, ok, err := app.ledger.GetLatestABCIChain()
	if err != nil {
		return err
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	if ok {
		app.chain = &chain
	} else {
		app.chain = nil
	}
	return nil
}

// currentChain returns a copy of the cached chain identity, if known.
func (app *Application) currentChain() (ledgercore.ABCIChain, bool) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.chain == nil {
		return ledgercore.ABCIChain{}, false
	}
	return *app.chain, true
}

// chainShift is the offset between consensus engine heights and ledger heights.
func (app *Application) chainShift() uint64 {
	chain, _ := app.currentChain()
	return chain.Height
}

// abortIfUnsynced stops the node while a chain migration awaits the
// InitChain handshake of the new chain. It reports whether it did.
func (app *Application) abortIfUnsynced() bool {
	chain, ok := app.currentChain()
	if !ok || chain.IsSynced {
		return false
	}
	validators, _ := app.ledger.GetValidators(0)
	gv, _ := governance.GenesisValidators(validators)
	app.fatal("chain %s awaits migration at height %d; restart the consensus engine with chain id %s and validators %v",
		chain.ChainID, chain.Height, chain.ChainID, gv)
	return true
}

// Info reports the latest committed height and app hash, in consensus engine heights.
func (app *Application) Info(req abcitypes.RequestInfo) abcitypes.ResponseInfo {
	if app.abortIfUnsynced() {
		return abcitypes.ResponseInfo{}
	}
	if !app.cfg.AcceptsConsensusVersion(req.Version) {
		app.fatal("unsupported consensus engine version %q, expected one of %v", req.Version, app.cfg.ConsensusVersions)
		return abcitypes.ResponseInfo{}
	}

	resp := abcitypes.ResponseInfo{Version: config.GetCurrentVersion().String()}
	blk, ok, err := app.ledger.GetLatestBlock()
	if err != nil {
		app.fatal("Info: %v", err)
		return resp
	}
	if ok {
		resp.LastBlockHeight = int64(blk.Height - app.chainShift())
		resp.LastBlockAppHash = blk.AppHashBytes()
	}
	return resp
}

// genesisValidators converts the validators of an InitChain request.
func genesisValidators(updates []abcitypes.ValidatorUpdate) ([]ledgercore.Validator, error) {
	out := make([]ledgercore.Validator, 0, len(updates))
	for _, u := range updates {
		pk, err := crypto.PublicKeyFromBytes(u.PubKey.GetEd25519())
		if err != nil {
			return nil, fmt.Errorf("genesis validator: %w", err)
		}
		if u.Power < 0 {
			return nil, fmt.Errorf("genesis validator %s has negative power %d", pk, u.Power)
		}
		out = append(out, ledgercore.Validator{PublicKey: pk.String(), VotingPower: uint64(u.Power)})
	}
	return out, nil
}

// sameValidators compares validator sets regardless of order.
func sameValidators(a, b []ledgercore.Validator) bool {
	if len(a) != len(b) {
		return false
	}
	powers := make(map[string]uint64, len(a))
	for _, v := range a {
		powers[v.PublicKey] = v.VotingPower
	}
	for _, v := range b {
		if p, ok := powers[v.PublicKey]; !ok || p != v.VotingPower {
			return false
		}
	}
	return true
}

// InitChain bootstraps a new chain, or completes the handshake of a
// migrated one. A mismatch with the pending migration is fatal.
func (app *Application) InitChain(req abcitypes.RequestInitChain) abcitypes.ResponseInitChain {
	var resp abcitypes.ResponseInitChain
	known, hasKnown := app.currentChain()
	if hasKnown && known.IsSynced {
		app.fatal("InitChain for %s on chain %s, which is already synced", req.ChainId, known.ChainID)
		return resp
	}

	var height uint64
	var appHash string
	if hasKnown {
		if known.ChainID != req.ChainId {
			app.fatal("InitChain for %s while migrating to %s", req.ChainId, known.ChainID)
			return resp
		}
		blk, ok, err := app.ledger.GetLatestBlock()
		if err != nil {
			app.fatal("InitChain: %v", err)
			return resp
		}
		if ok {
			height = blk.Height + 1
			appHash = blk.AppHash
		}
	}

	validators, err := genesisValidators(req.Validators)
	if err != nil {
		app.fatal("InitChain: %v", err)
		return resp
	}
	current, err := app.ledger.GetValidators(0)
	if err != nil {
		app.fatal("InitChain: %v", err)
		return resp
	}
	if len(current) > 0 && !sameValidators(current, validators) {
		app.fatal("InitChain for %s with validators %v, expected %v", req.ChainId, validators, current)
		return resp
	}

	chain := ledgercore.ABCIChain{Height: known.Height, ChainID: req.ChainId, IsSynced: true}
	err = app.ledger.StoreBlock(bookkeeping.Block{Height: height, AppHash: appHash})
	if err == nil {
		err = app.ledger.StoreValidatorSet(ledgercore.ValidatorSet{Height: height + 1, Validators: validators})
	}
	if err == nil {
		err = app.ledger.StoreABCIChain(chain)
	}
	if err != nil {
		app.fatal("InitChain: %v", err)
		return resp
	}

	app.mu.Lock()
	app.chain = &chain
	app.mu.Unlock()
	app.log.Infof("chain %s initialized at height %d with %d validators", chain.ChainID, height, len(validators))
	return resp
}

// validate runs the validator. A non-validation error is fatal and reported
// as handled.
func (app *Application) validate(call string, raw []byte, inBlock []transactions.Transaction) (transactions.Transaction, bool, error) {
	tx, err := transactions.DecodeTransaction(raw)
	if err == nil {
		tx, err = app.validator.Validate(tx, inBlock)
	}
	if verify.IsFatal(err) {
		app.fatal("%s: %v", call, err)
		return tx, true, err
	}
	return tx, false, err
}

func resultLabels(tx transactions.Transaction, err error) map[string]string {
	result := "ok"
	var ve *transactions.ValidationError
	if errors.As(err, &ve) {
		result = ve.Reason.String()
	}
	op := string(tx.Operation)
	if op == "" {
		op = "unknown"
	}
	return map[string]string{"operation": op, "result": result}
}

// CheckTx admits a transaction to the mempool.
func (app *Application) CheckTx(req abcitypes.RequestCheckTx) abcitypes.ResponseCheckTx {
	if app.abortIfUnsynced() {
		return abcitypes.ResponseCheckTx{Code: CodeTypeError}
	}
	tx, handled, err := app.validate("CheckTx", req.Tx, nil)
	if handled {
		return abcitypes.ResponseCheckTx{Code: CodeTypeError}
	}
	checkedTotal.Inc(resultLabels(tx, err))
	if err != nil {
		app.log.Debugf("CheckTx rejected %s: %v", tx.ID, err)
		return abcitypes.ResponseCheckTx{Code: CodeTypeError, Log: err.Error()}
	}
	return abcitypes.ResponseCheckTx{Code: CodeTypeOK}
}

// BeginBlock starts accumulating a new block.
func (app *Application) BeginBlock(req abcitypes.RequestBeginBlock) abcitypes.ResponseBeginBlock {
	if app.abortIfUnsynced() {
		return abcitypes.ResponseBeginBlock{}
	}
	app.log.Debugf("BeginBlock height %d, chain shift %d", req.Header.Height, app.chainShift())
	app.blockTxns = nil
	app.blockIDs = nil
	return abcitypes.ResponseBeginBlock{}
}

// DeliverTx validates a transaction against the ledger and the block so
// far, and adds it to the block when valid.
func (app *Application) DeliverTx(req abcitypes.RequestDeliverTx) abcitypes.ResponseDeliverTx {
	if app.abortIfUnsynced() {
		return abcitypes.ResponseDeliverTx{Code: CodeTypeError}
	}
	tx, handled, err := app.validate("DeliverTx", req.Tx, app.blockTxns)
	if handled {
		return abcitypes.ResponseDeliverTx{Code: CodeTypeError}
	}
	deliveredTotal.Inc(resultLabels(tx, err))
	if err != nil {
		app.log.Debugf("DeliverTx rejected %s: %v", tx.ID, err)
		return abcitypes.ResponseDeliverTx{Code: CodeTypeError, Log: err.Error()}
	}
	app.blockTxns = append(app.blockTxns, tx)
	app.blockIDs = append(app.blockIDs, tx.ID)
	return abcitypes.ResponseDeliverTx{Code: CodeTypeOK}
}

// EndBlock records the pre-commit state, chains the app hash and runs the
// election engine over the block.
func (app *Application) EndBlock(req abcitypes.RequestEndBlock) abcitypes.ResponseEndBlock {
	var resp abcitypes.ResponseEndBlock
	if app.abortIfUnsynced() {
		return resp
	}
	if req.Height < 0 {
		app.fatal("EndBlock: negative height %d", req.Height)
		return resp
	}
	app.newHeight = uint64(req.Height) + app.chainShift()

	err := app.ledger.StorePreCommitState(ledgercore.PreCommitState{Height: app.newHeight, Transactions: app.blockIDs})
	if err != nil {
		app.fatal("EndBlock: %v", err)
		return resp
	}

	prev, err := app.ledger.LatestAppHash()
	if err != nil {
		app.fatal("EndBlock: %v", err)
		return resp
	}
	app.appHash = bookkeeping.NextAppHash(prev, app.blockIDs)

	updates, err := app.engine.ProcessBlock(app.newHeight, app.blockTxns)
	if err != nil {
		app.fatal("EndBlock: %v", err)
		return resp
	}
	for _, u := range updates {
		resp.ValidatorUpdates = append(resp.ValidatorUpdates, abcitypes.Ed25519ValidatorUpdate(u.PublicKey[:], int64(u.Power)))
	}
	return resp
}

// Commit persists the block. The block record is written last: its
// presence marks the height as committed.
func (app *Application) Commit() abcitypes.ResponseCommit {
	if app.abortIfUnsynced() {
		return abcitypes.ResponseCommit{}
	}
	if len(app.blockTxns) > 0 {
		if err := app.ledger.StoreBulkTransactions(app.blockTxns); err != nil {
			app.fatal("Commit: %v", err)
			return abcitypes.ResponseCommit{}
		}
	}
	blk := bookkeeping.Block{Height: app.newHeight, AppHash: app.appHash, Transactions: app.blockIDs}
	if err := app.ledger.StoreBlock(blk); err != nil {
		app.fatal("Commit: %v", err)
		return abcitypes.ResponseCommit{}
	}
	committedTotal.Inc(nil)
	ledgerHeight.Set(blk.Height)
	app.log.Debugf("committed block %d with %d transactions, app hash %s", blk.Height, len(blk.Transactions), blk.AppHash)

	if app.events != nil {
		app.events.Publish(Event{Type: BlockValid, Height: blk.Height, AppHash: blk.AppHash, Transactions: app.blockTxns})
	}

	// a migration concluded in this block stops the node on the next call
	if err := app.refreshChain(); err != nil {
		app.fatal("Commit: %v", err)
	}
	return abcitypes.ResponseCommit{Data: blk.AppHashBytes()}
}
