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

// Recipient describes one output to be built: Amount paid to PublicKeys,
// spendable by Threshold of them (zero means all).
type Recipient struct {
	PublicKeys []crypto.PublicKey
	Amount     uint64
	Threshold  uint32
}

// Spendable is an output that a new transaction can consume.
type Spendable struct {
	Link   TxLink
	Output Output
}

// MakeOutput builds the output for r.
func MakeOutput(r Recipient) (Output, error) {
	if len(r.PublicKeys) == 0 {
		return Output{}, fmt.Errorf("recipient without public keys")
	}
	details := DetailsForKeys(r.PublicKeys...)
	if r.Threshold != 0 && len(r.PublicKeys) > 1 {
		details.Threshold = r.Threshold
	}
	cond, err := MakeCondition(details)
	if err != nil {
		return Output{}, err
	}
	out := Output{Amount: r.Amount, Condition: cond}
	for _, pk := range r.PublicKeys {
		out.PublicKeys = append(out.PublicKeys, pk.String())
	}
	return out, nil
}

func makeOutputs(recipients []Recipient) ([]Output, error) {
	outs := make([]Output, 0, len(recipients))
	for _, r := range recipients {
		out, err := MakeOutput(r)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func issuingInput(owners []crypto.PublicKey) Input {
	in := Input{}
	for _, pk := range owners {
		in.OwnersBefore = append(in.OwnersBefore, pk.String())
	}
	return in
}

// SpendingInput builds an unsigned input consuming s.
func SpendingInput(s Spendable) Input {
	f := FulfillmentTemplate(s.Output.Condition.Details)
	link := s.Link
	return Input{
		OwnersBefore: append([]string(nil), s.Output.PublicKeys...),
		Fulfillment:  &f,
		Fulfills:     &link,
	}
}

// Spendables lists every output of tx as a Spendable.
func (tx Transaction) Spendables() []Spendable {
	out := make([]Spendable, len(tx.Outputs))
	for i, o := range tx.Outputs {
		out[i] = Spendable{Link: tx.OutputLink(i), Output: o}
	}
	return out
}

// MakeTransaction assembles an unsigned transaction.
func MakeTransaction(op protocol.TxOperation, assets []Asset, inputs []Input, outputs []Output, metadata interface{}) Transaction {
	return Transaction{
		Operation: op,
		Version:   protocol.TxnVersion,
		Assets:    assets,
		Metadata:  metadata,
		Inputs:    inputs,
		Outputs:   outputs,
	}
}

// MakeCreate builds an unsigned CREATE issuing assetData, signed later by issuers.
func MakeCreate(issuers []crypto.PublicKey, recipients []Recipient, assetData interface{}, metadata interface{}) (Transaction, error) {
	if len(issuers) == 0 {
		return Transaction{}, fmt.Errorf("CREATE needs at least one issuer")
	}
	outs, err := makeOutputs(recipients)
	if err != nil {
		return Transaction{}, err
	}
	return MakeTransaction(protocol.CreateTx, []Asset{{Data: assetData}}, []Input{issuingInput(issuers)}, outs, metadata), nil
}

// MakeTransfer builds an unsigned TRANSFER of assetID from inputs to recipients.
func MakeTransfer(inputs []Spendable, recipients []Recipient, assetID string, metadata interface{}) (Transaction, error) {
	return makeSpend(protocol.TransferTx, inputs, recipients, []Asset{{ID: assetID}}, metadata)
}

// MakeCompose builds an unsigned COMPOSE merging the assets of inputs into a new asset.
func MakeCompose(inputs []Spendable, recipients []Recipient, consumedAssetIDs []string, assetData interface{}, metadata interface{}) (Transaction, error) {
	assets := []Asset{{Data: assetData}}
	for _, id := range consumedAssetIDs {
		assets = append(assets, Asset{ID: id})
	}
	return makeSpend(protocol.ComposeTx, inputs, recipients, assets, metadata)
}

// MakeDecompose builds an unsigned DECOMPOSE of assetID; recipient k receives partsData[k].
func MakeDecompose(inputs []Spendable, recipients []Recipient, assetID string, partsData []interface{}, metadata interface{}) (Transaction, error) {
	if len(partsData) != len(recipients)-1 {
		return Transaction{}, fmt.Errorf("DECOMPOSE needs one part per recipient after the first")
	}
	assets := []Asset{{ID: assetID}}
	for _, d := range partsData {
		assets = append(assets, Asset{Data: d})
	}
	return makeSpend(protocol.DecomposeTx, inputs, recipients, assets, metadata)
}

func makeSpend(op protocol.TxOperation, inputs []Spendable, recipients []Recipient, assets []Asset, metadata interface{}) (Transaction, error) {
	if len(inputs) == 0 {
		return Transaction{}, fmt.Errorf("%s needs at least one input", op)
	}
	outs, err := makeOutputs(recipients)
	if err != nil {
		return Transaction{}, err
	}
	ins := make([]Input, len(inputs))
	for i, s := range inputs {
		ins[i] = SpendingInput(s)
	}
	return MakeTransaction(op, assets, ins, outs, metadata), nil
}
