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

package governance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/algorand/go-codec/codec"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
)

// MigrationSuffix joins a chain id and the height it was migrated at.
const MigrationSuffix = "-migrated-at-height-"

// MigratedChainID is the id of the chain that replaces chainID at height.
func MigratedChainID(chainID string, height uint64) string {
	base, _, _ := strings.Cut(chainID, MigrationSuffix)
	return base + MigrationSuffix + strconv.FormatUint(height, 10)
}

// MigrateABCIChain schedules a new, unsynced chain identity right after the
// latest block. Without a known chain it does nothing.
func (e *Engine) MigrateABCIChain() error {
	chain, ok, err := e.ledger.GetLatestABCIChain()
	if err != nil || !ok {
		return err
	}
	blk, ok, err := e.ledger.GetLatestBlock()
	if err != nil {
		return err
	}
	if !ok {
		return ledgercore.ErrNoEntry{What: "latest block", Key: chain.ChainID}
	}
	next := ledgercore.ABCIChain{
		Height:   blk.Height + 1,
		ChainID:  MigratedChainID(chain.ChainID, blk.Height),
		IsSynced: false,
	}
	e.log.Warnf("migrating chain %s to %s at height %d", chain.ChainID, next.ChainID, next.Height)
	return e.ledger.StoreABCIChain(next)
}

// migrationInFlight reports whether a migrated chain awaits its handshake.
func (e *Engine) migrationInFlight() (ledgercore.ABCIChain, bool, error) {
	chain, ok, err := e.ledger.GetLatestABCIChain()
	if err != nil || !ok {
		return chain, false, err
	}
	return chain, !chain.IsSynced, nil
}

type chainMigrationElection struct{}

func (chainMigrationElection) checkSchema(tx transactions.Transaction) error {
	return nil
}

func (chainMigrationElection) validate(e *Engine, tx transactions.Transaction, validators []ledgercore.Validator) error {
	_, pending, err := e.migrationInFlight()
	if err != nil {
		return err
	}
	if pending {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonGeneric,
			"a chain migration is already in progress")
	}
	return nil
}

func (chainMigrationElection) mayConclude(e *Engine) (bool, error) {
	_, pending, err := e.migrationInFlight()
	return !pending && err == nil, err
}

func (chainMigrationElection) onApproval(e *Engine, tx transactions.Transaction, height uint64) (*ValidatorUpdate, error) {
	return nil, e.MigrateABCIChain()
}

func (chainMigrationElection) onRollback(e *Engine, height uint64) error {
	return e.ledger.DeleteABCIChain(height)
}

// GenesisValidator is a validator as it appears in a consensus engine genesis file.
type GenesisValidator struct {
	PubKey GenesisPubKey `codec:"pub_key"`
	Power  uint64        `codec:"power"`
}

// GenesisPubKey is a typed consensus engine public key.
type GenesisPubKey struct {
	Type  string `codec:"type"`
	Value string `codec:"value"`
}

// GenesisValidators converts validators for a consensus engine genesis file.
func GenesisValidators(validators []ledgercore.Validator) ([]GenesisValidator, error) {
	out := make([]GenesisValidator, 0, len(validators))
	for _, v := range validators {
		pk, err := crypto.ParsePublicKey(v.PublicKey)
		if err != nil {
			return nil, err
		}
		out = append(out, GenesisValidator{
			PubKey: GenesisPubKey{Type: "tendermint/PubKeyEd25519", Value: pk.Base64()},
			Power:  v.VotingPower,
		})
	}
	return out, nil
}

var genesisJSONHandle = &codec.JsonHandle{Indent: 4}

// describe adds the new chain id, the app hash and the validators to start
// the migrated chain with, while the migration is pending.
func (chainMigrationElection) describe(e *Engine, tx transactions.Transaction) (string, error) {
	chain, pending, err := e.migrationInFlight()
	if err != nil || !pending {
		return "", err
	}
	appHash, err := e.ledger.LatestAppHash()
	if err != nil {
		return "", err
	}
	validators, err := e.ledger.GetValidators(0)
	if err != nil {
		return "", err
	}
	gv, err := GenesisValidators(validators)
	if err != nil {
		return "", err
	}
	var body []byte
	if err := codec.NewEncoderBytes(&body, genesisJSONHandle).Encode(gv); err != nil {
		return "", err
	}
	return fmt.Sprintf("\nchain_id=%s\napp_hash=%s\nvalidators=%s", chain.ChainID, appHash, body), nil
}
