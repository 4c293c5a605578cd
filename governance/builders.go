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

	"github.com/google/uuid"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/protocol"
)

// electionOutputs pays every validator its voting power.
func electionOutputs(validators []ledgercore.Validator) ([]transactions.Output, error) {
	outs := make([]transactions.Output, 0, len(validators))
	for _, v := range validators {
		pk, err := crypto.ParsePublicKey(v.PublicKey)
		if err != nil {
			return nil, err
		}
		out, err := transactions.MakeOutput(transactions.Recipient{PublicKeys: []crypto.PublicKey{pk}, Amount: v.VotingPower})
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func makeElection(op protocol.TxOperation, proposer crypto.PublicKey, validators []ledgercore.Validator, data map[string]interface{}) (transactions.Transaction, error) {
	if len(validators) == 0 {
		return transactions.Transaction{}, fmt.Errorf("%s needs a validator set", op)
	}
	outs, err := electionOutputs(validators)
	if err != nil {
		return transactions.Transaction{}, err
	}
	// a random seed keeps identical proposals apart
	data["seed"] = uuid.NewString()
	in := transactions.Input{OwnersBefore: []string{proposer.String()}}
	return transactions.MakeTransaction(op, []transactions.Asset{{Data: data}}, []transactions.Input{in}, outs, nil), nil
}

// MakeValidatorElection builds an unsigned proposal to set the power of
// newValidator, to be signed by proposer.
func MakeValidatorElection(proposer crypto.PublicKey, validators []ledgercore.Validator, newValidator crypto.PublicKey, power uint64, nodeID string) (transactions.Transaction, error) {
	data := map[string]interface{}{
		"public_key": map[string]interface{}{
			"type":  string(crypto.Ed25519Base64),
			"value": newValidator.Base64(),
		},
		"power":   power,
		"node_id": nodeID,
	}
	return makeElection(protocol.ValidatorElectionTx, proposer, validators, data)
}

// MakeChainMigrationElection builds an unsigned chain migration proposal.
func MakeChainMigrationElection(proposer crypto.PublicKey, validators []ledgercore.Validator) (transactions.Transaction, error) {
	return makeElection(protocol.ChainMigrationElectionTx, proposer, validators, map[string]interface{}{})
}

// MakeVote builds an unsigned VOTE casting every input for electionID.
func MakeVote(inputs []transactions.Spendable, electionID string) (transactions.Transaction, error) {
	if len(inputs) == 0 {
		return transactions.Transaction{}, fmt.Errorf("VOTE needs at least one input")
	}
	pk, err := ElectionPublicKey(electionID)
	if err != nil {
		return transactions.Transaction{}, err
	}
	var votes uint64
	ins := make([]transactions.Input, len(inputs))
	for i, s := range inputs {
		ins[i] = transactions.SpendingInput(s)
		votes += s.Output.Amount
	}
	out, err := transactions.MakeOutput(transactions.Recipient{PublicKeys: []crypto.PublicKey{pk}, Amount: votes})
	if err != nil {
		return transactions.Transaction{}, err
	}
	return transactions.MakeTransaction(protocol.VoteTx, []transactions.Asset{{ID: electionID}}, ins, []transactions.Output{out}, nil), nil
}
