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

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/protocol"

	tmtypes "github.com/tendermint/tendermint/types"
)

// ValidatorUpdate sets the voting power of one validator. Zero power removes it.
type ValidatorUpdate struct {
	PublicKey crypto.PublicKey
	Power     uint64
}

// proposedKey is the validator key of a proposal, in one of the
// crypto.PublicKeyEncoding forms.
type proposedKey struct {
	_struct struct{} `codec:",omitempty"`

	Type  string `codec:"type"`
	Value string `codec:"value"`
}

// validatorElectionData is the asset payload of a VALIDATOR_ELECTION.
type validatorElectionData struct {
	_struct struct{} `codec:",omitempty"`

	PublicKey proposedKey `codec:"public_key"`
	Power     uint64      `codec:"power"`
	NodeID    string      `codec:"node_id"`
	Seed      string      `codec:"seed"`
}

func (d validatorElectionData) update() (ValidatorUpdate, error) {
	pk, err := crypto.DecodePublicKey(crypto.PublicKeyEncoding(d.PublicKey.Type), d.PublicKey.Value)
	if err != nil {
		return ValidatorUpdate{}, err
	}
	return ValidatorUpdate{PublicKey: pk, Power: d.Power}, nil
}

func parseValidatorElectionData(tx transactions.Transaction) (validatorElectionData, error) {
	var d validatorElectionData
	if len(tx.Assets) != 1 {
		return d, transactions.MakeValidationError(transactions.ValidationErrorReasonSchema, "VALIDATOR_ELECTION must carry one asset")
	}
	body, err := protocol.EncodeCanonicalJSON(tx.Assets[0].Data)
	if err == nil {
		err = protocol.DecodeJSON(body, &d)
	}
	if err != nil {
		return d, transactions.WrapValidationError(transactions.ValidationErrorReasonSchema, fmt.Errorf("VALIDATOR_ELECTION asset: %w", err))
	}
	if d.NodeID == "" {
		return d, transactions.MakeValidationError(transactions.ValidationErrorReasonSchema, "VALIDATOR_ELECTION asset lacks node_id")
	}
	if _, err := d.update(); err != nil {
		return d, transactions.WrapValidationError(transactions.ValidationErrorReasonSchema, err)
	}
	return d, nil
}

// proposedKeyBase64 renders the public_key of a proposal payload as base64,
// or as-is when it does not parse.
func proposedKeyBase64(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	typ, _ := m["type"].(string)
	value, _ := m["value"].(string)
	pk, err := crypto.DecodePublicKey(crypto.PublicKeyEncoding(typ), value)
	if err != nil {
		return v
	}
	return pk.Base64()
}

// NewValidatorSet applies updates to validators: powers of known keys are
// replaced, new keys appended, and keys left with zero power dropped.
func NewValidatorSet(validators []ledgercore.Validator, updates []ValidatorUpdate) []ledgercore.Validator {
	merged := make([]ledgercore.Validator, len(validators))
	copy(merged, validators)
	index := make(map[string]int, len(merged))
	for i, v := range merged {
		index[v.PublicKey] = i
	}
	for _, u := range updates {
		pk := u.PublicKey.String()
		if i, ok := index[pk]; ok {
			merged[i].VotingPower = u.Power
			continue
		}
		index[pk] = len(merged)
		merged = append(merged, ledgercore.Validator{PublicKey: pk, VotingPower: u.Power})
	}

	out := merged[:0]
	for _, v := range merged {
		if v.VotingPower > 0 {
			out = append(out, v)
		}
	}
	return out
}

// maxTotalVotingPower is the ceiling the consensus engine puts on the sum of
// all voting power.
const maxTotalVotingPower = uint64(tmtypes.MaxTotalVotingPower)

type validatorElection struct{}

func (validatorElection) checkSchema(tx transactions.Transaction) error {
	_, err := parseValidatorElectionData(tx)
	return err
}

// validate refuses a change of a third of the total power or more in one step.
func (validatorElection) validate(e *Engine, tx transactions.Transaction, validators []ledgercore.Validator) error {
	d, err := parseValidatorElectionData(tx)
	if err != nil {
		return err
	}
	total := totalPower(validators)
	if !productLess(3, d.Power, 1, total) {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidPowerChange,
			"`power` change must be less than 1/3 of total power")
	}
	u, err := d.update()
	if err != nil {
		return err
	}
	if totalPower(NewValidatorSet(validators, []ValidatorUpdate{u})) > maxTotalVotingPower {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidPowerChange,
			"total voting power would exceed %d", maxTotalVotingPower)
	}
	return nil
}

// mayConclude defers the election while a validator change is already
// scheduled by an earlier conclusion in the block in progress.
func (validatorElection) mayConclude(e *Engine) (bool, error) {
	blk, ok, err := e.ledger.GetLatestBlock()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	change, ok, err := e.ledger.GetLatestValidatorSetChange()
	if err != nil {
		return false, err
	}
	return !ok || change.Height != blk.Height+2, nil
}

func (validatorElection) onApproval(e *Engine, tx transactions.Transaction, height uint64) (*ValidatorUpdate, error) {
	d, err := parseValidatorElectionData(tx)
	if err != nil {
		return nil, err
	}
	u, err := d.update()
	if err != nil {
		return nil, err
	}
	current, err := e.ledger.GetValidators(height)
	if err != nil {
		return nil, err
	}
	next := ledgercore.ValidatorSet{Height: height + 1, Validators: NewValidatorSet(current, []ValidatorUpdate{u})}
	if err := e.ledger.StoreValidatorSet(next); err != nil {
		return nil, err
	}
	e.refreshPowerGauge()
	return &u, nil
}

func (validatorElection) onRollback(e *Engine, height uint64) error {
	err := e.ledger.DeleteValidatorSet(height + 1)
	e.refreshPowerGauge()
	return err
}

func (validatorElection) describe(e *Engine, tx transactions.Transaction) (string, error) {
	return "", nil
}
