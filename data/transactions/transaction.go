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
	"strconv"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/protocol"
)

// MaxAmount is the largest amount a single output may carry.
const MaxAmount uint64 = 9_000_000_000_000_000_000

// TxLink points at one output of a prior transaction.
type TxLink struct {
	TransactionID string `codec:"transaction_id"`
	OutputIndex   uint32 `codec:"output_index"`
}

func (l TxLink) String() string {
	return l.TransactionID + ":" + strconv.FormatUint(uint64(l.OutputIndex), 10)
}

// Input spends an output, or issues a new asset when Fulfills is nil.
type Input struct {
	OwnersBefore []string     `codec:"owners_before"`
	Fulfillment  *Fulfillment `codec:"fulfillment"`
	Fulfills     *TxLink      `codec:"fulfills"`
}

// Output assigns Amount units of the asset to the holders of Condition.
type Output struct {
	Amount     uint64    `codec:"amount"`
	PublicKeys []string  `codec:"public_keys"`
	Condition  Condition `codec:"condition"`
}

// Asset either carries the payload of a new asset or references one by id.
type Asset struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	ID   string      `codec:"id"`
	Data interface{} `codec:"data"`
}

// Transaction is the unit of ledger mutation.
type Transaction struct {
	ID        string               `codec:"id"`
	Operation protocol.TxOperation `codec:"operation"`
	Version   string               `codec:"version"`
	Assets    []Asset              `codec:"assets"`
	Metadata  interface{}          `codec:"metadata"`
	Script    interface{}          `codec:"script,omitempty"`
	Inputs    []Input              `codec:"inputs"`
	Outputs   []Output             `codec:"outputs"`
}

// canonicalBody renders tx as canonical JSON with the id nulled, and if
// stripFulfillments is set, every fulfillment nulled too.
func (tx Transaction) canonicalBody(stripFulfillments bool) ([]byte, error) {
	c := tx
	if stripFulfillments {
		c.Inputs = make([]Input, len(tx.Inputs))
		for i, in := range tx.Inputs {
			in.Fulfillment = nil
			c.Inputs[i] = in
		}
	}
	generic, err := protocol.ToGeneric(c)
	if err != nil {
		return nil, err
	}
	m, ok := generic.(map[string]interface{})
	if !ok {
		return nil, protocol.ErrInvalidObject
	}
	m["id"] = nil
	return protocol.EncodeCanonicalGeneric(m)
}

// ComputeID hashes the transaction body, fulfillments included.
func (tx Transaction) ComputeID() (string, error) {
	body, err := tx.canonicalBody(false)
	if err != nil {
		return "", err
	}
	return crypto.HashHex(body), nil
}

// SigningMessage is the message the fulfillment of input i signs.
func (tx Transaction) SigningMessage(i int) ([]byte, error) {
	if i < 0 || i >= len(tx.Inputs) {
		return nil, fmt.Errorf("input %d out of range", i)
	}
	body, err := tx.canonicalBody(true)
	if err != nil {
		return nil, err
	}
	in := tx.Inputs[i]
	if in.Fulfills == nil {
		return crypto.Hash(body).ToSlice(), nil
	}
	return crypto.HashStrings(string(body), in.Fulfills.TransactionID,
		strconv.FormatUint(uint64(in.Fulfills.OutputIndex), 10)).ToSlice(), nil
}

// Sign fills in the fulfillment of every input with the given keys, then
// sets the id. Inputs without a fulfillment get one derived from their
// owners_before.
func (tx *Transaction) Sign(keys ...crypto.SecretKey) error {
	ring := make(map[string]crypto.SecretKey, len(keys))
	for _, sk := range keys {
		ring[sk.PublicKey().String()] = sk
	}

	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if in.Fulfillment == nil {
			owners := make([]crypto.PublicKey, len(in.OwnersBefore))
			for j, s := range in.OwnersBefore {
				pk, err := crypto.ParsePublicKey(s)
				if err != nil {
					return fmt.Errorf("input %d: %w", i, err)
				}
				owners[j] = pk
			}
			if len(owners) == 0 {
				return fmt.Errorf("input %d has no owners", i)
			}
			f := FulfillmentTemplate(DetailsForKeys(owners...))
			in.Fulfillment = &f
		}
	}

	for i := range tx.Inputs {
		msg, err := tx.SigningMessage(i)
		if err != nil {
			return err
		}
		if tx.Inputs[i].Fulfillment.sign(msg, ring) == 0 {
			return fmt.Errorf("input %d: no signing key for owners %v", i, tx.Inputs[i].OwnersBefore)
		}
	}

	id, err := tx.ComputeID()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

// AssetID is the id of the asset the transaction creates or moves.
// CREATE-like transactions create the asset whose id is their own id.
func (tx Transaction) AssetID() string {
	if tx.Operation.CreatesAsset() {
		return tx.ID
	}
	for _, a := range tx.Assets {
		if a.ID != "" {
			return a.ID
		}
	}
	return ""
}

// ConsumedAssetIDs are the assets a COMPOSE transaction merges.
func (tx Transaction) ConsumedAssetIDs() []string {
	if tx.Operation != protocol.ComposeTx || len(tx.Assets) < 2 {
		return nil
	}
	ids := make([]string, 0, len(tx.Assets)-1)
	for _, a := range tx.Assets[1:] {
		ids = append(ids, a.ID)
	}
	return ids
}

// OutputAssetData is the asset payload associated with output i.
// DECOMPOSE outputs map to assets[i]; every other operation has one asset.
func (tx Transaction) OutputAssetData(i int) interface{} {
	if tx.Operation == protocol.DecomposeTx {
		if i >= 0 && i < len(tx.Assets) {
			return tx.Assets[i].Data
		}
		return nil
	}
	if len(tx.Assets) == 0 {
		return nil
	}
	return tx.Assets[0].Data
}

// Links returns the output links spent by the transaction, in input order.
func (tx Transaction) Links() []TxLink {
	var out []TxLink
	for _, in := range tx.Inputs {
		if in.Fulfills != nil {
			out = append(out, *in.Fulfills)
		}
	}
	return out
}

// OutputLink returns the link to output i of tx.
func (tx Transaction) OutputLink(i int) TxLink {
	return TxLink{TransactionID: tx.ID, OutputIndex: uint32(i)}
}

// TotalOutput sums the output amounts, failing on overflow.
func (tx Transaction) TotalOutput() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		next := total + out.Amount
		if next < total {
			return 0, fmt.Errorf("output amounts overflow")
		}
		total = next
	}
	return total, nil
}

// ToGeneric lowers tx to its schema-less JSON form.
func (tx Transaction) ToGeneric() (map[string]interface{}, error) {
	generic, err := protocol.ToGeneric(tx)
	if err != nil {
		return nil, err
	}
	m, ok := generic.(map[string]interface{})
	if !ok {
		return nil, protocol.ErrInvalidObject
	}
	return m, nil
}

// Encode returns the wire form of tx.
func (tx Transaction) Encode() []byte {
	return protocol.EncodeJSON(tx)
}

// DecodeTransaction parses the wire form of a transaction.
// A body that cannot be parsed is a schema failure.
func DecodeTransaction(raw []byte) (Transaction, error) {
	var tx Transaction
	err := protocol.DecodeJSON(raw, &tx)
	if err != nil {
		return Transaction{}, WrapValidationError(ValidationErrorReasonSchema, fmt.Errorf("cannot decode transaction: %w", err))
	}
	return tx, nil
}
