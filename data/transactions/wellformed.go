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

package transactions

import (
	"fmt"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/protocol"
)

func schemaErrorf(format string, args ...interface{}) error {
	return MakeValidationError(ValidationErrorReasonSchema, format, args...)
}

// WellFormed checks that a transaction is internally consistent without
// consulting the ledger: shape, amounts, conditions and id.
func (tx Transaction) WellFormed() error {
	if !tx.Operation.Known() {
		return schemaErrorf("unknown operation %q", tx.Operation)
	}
	if tx.Version != protocol.TxnVersion {
		return schemaErrorf("unsupported version %q", tx.Version)
	}
	if len(tx.Inputs) == 0 {
		return schemaErrorf("transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return schemaErrorf("transaction has no outputs")
	}

	if err := tx.wellFormedAssets(); err != nil {
		return err
	}

	for i, in := range tx.Inputs {
		if len(in.OwnersBefore) == 0 {
			return schemaErrorf("input %d has no owners_before", i)
		}
		for _, owner := range in.OwnersBefore {
			if _, err := crypto.ParsePublicKey(owner); err != nil {
				return schemaErrorf("input %d: %v", i, err)
			}
		}
		if in.Fulfillment == nil {
			return schemaErrorf("input %d is not signed", i)
		}
		spends := in.Fulfills != nil
		if spends != tx.Operation.SpendsOutputs() && tx.Operation != protocol.CreateTx {
			if spends {
				return schemaErrorf("input %d of %s must not fulfill an output", i, tx.Operation)
			}
			return schemaErrorf("input %d of %s must fulfill an output", i, tx.Operation)
		}
	}

	for i, out := range tx.Outputs {
		if err := out.wellFormed(); err != nil {
			return schemaErrorf("output %d: %v", i, err)
		}
	}
	if _, err := tx.TotalOutput(); err != nil {
		return WrapValidationError(ValidationErrorReasonAmount, err)
	}

	id, err := tx.ComputeID()
	if err != nil {
		return schemaErrorf("cannot hash transaction: %v", err)
	}
	if id != tx.ID {
		return MakeValidationError(ValidationErrorReasonInvalidHash, "transaction id %s does not match body hash %s", tx.ID, id)
	}
	return nil
}

func (tx Transaction) wellFormedAssets() error {
	isData := func(a Asset) bool { return a.ID == "" && a.Data != nil }
	isRef := func(a Asset) bool { return a.ID != "" && a.Data == nil }

	switch tx.Operation {
	case protocol.CreateTx, protocol.ValidatorElectionTx, protocol.ChainMigrationElectionTx:
		if len(tx.Assets) != 1 || !isData(tx.Assets[0]) {
			return schemaErrorf("%s must carry exactly one asset with data", tx.Operation)
		}
		if tx.Operation.IsElection() {
			if _, ok := tx.Assets[0].Data.(map[string]interface{}); !ok {
				return schemaErrorf("%s asset data must be an object", tx.Operation)
			}
		}
	case protocol.TransferTx, protocol.VoteTx:
		if len(tx.Assets) != 1 || !isRef(tx.Assets[0]) {
			return schemaErrorf("%s must reference exactly one asset id", tx.Operation)
		}
	case protocol.ComposeTx:
		if len(tx.Assets) < 2 || !isData(tx.Assets[0]) {
			return schemaErrorf("COMPOSE must carry new asset data followed by consumed asset ids")
		}
		for i, a := range tx.Assets[1:] {
			if !isRef(a) {
				return schemaErrorf("COMPOSE asset %d must be an asset id", i+1)
			}
		}
	case protocol.DecomposeTx:
		refs := 0
		for i, a := range tx.Assets {
			switch {
			case isRef(a):
				refs++
			case isData(a):
			default:
				return schemaErrorf("DECOMPOSE asset %d must carry either an id or data", i)
			}
		}
		if refs != 1 {
			return schemaErrorf("DECOMPOSE must reference exactly one asset id, found %d", refs)
		}
		if len(tx.Assets) < len(tx.Outputs) {
			return schemaErrorf("DECOMPOSE has %d outputs but only %d assets", len(tx.Outputs), len(tx.Assets))
		}
	}
	return nil
}

func (out Output) wellFormed() error {
	if out.Amount == 0 || out.Amount > MaxAmount {
		return fmt.Errorf("amount %d out of range [1, %d]", out.Amount, MaxAmount)
	}
	if err := out.Condition.Details.wellFormed(0); err != nil {
		return err
	}
	uri, err := out.Condition.Details.URI()
	if err != nil {
		return err
	}
	if uri != out.Condition.URI {
		return fmt.Errorf("condition uri %s does not match details", out.Condition.URI)
	}

	if out.Condition.Details.Type == ScriptCondition {
		return nil
	}
	if len(out.PublicKeys) == 0 {
		return fmt.Errorf("no public keys")
	}
	listed := make(map[string]bool, len(out.PublicKeys))
	for _, pk := range out.PublicKeys {
		if _, err := crypto.ParsePublicKey(pk); err != nil {
			return err
		}
		listed[pk] = true
	}
	inCondition := make(map[string]bool)
	for _, pk := range out.Condition.Details.PublicKeys() {
		if !listed[pk] {
			return fmt.Errorf("condition key %s missing from public_keys", pk)
		}
		inCondition[pk] = true
	}
	if len(inCondition) != len(listed) {
		return fmt.Errorf("public_keys name keys outside the condition")
	}
	return nil
}
