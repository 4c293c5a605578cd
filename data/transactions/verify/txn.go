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

// Package verify decides whether a transaction may be committed given the
// ledger and the transactions already accepted into the block in progress.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/util/metrics"
)

var validatedTotal = metrics.MakeCounter(metrics.TransactionsValidatedTotal, "operation", "result")

// LedgerForValidation is the read-only ledger view the validator consults.
type LedgerForValidation interface {
	GetTransaction(id string) (transactions.Transaction, bool, error)
	GetInputTransaction(txid string, inBlock []transactions.Transaction) (transactions.Transaction, bool, error)
	GetSpent(link transactions.TxLink, inBlock []transactions.Transaction) (transactions.Transaction, bool, error)
}

// ElectionValidator validates governance proposals.
type ElectionValidator interface {
	ValidateElection(tx transactions.Transaction, inBlock []transactions.Transaction) error
}

// Validator checks transactions against the ledger. It never writes.
type Validator struct {
	ledger    LedgerForValidation
	elections ElectionValidator
}

// MakeValidator returns a validator over l. Election proposals are handed to ev.
func MakeValidator(l LedgerForValidation, ev ElectionValidator) *Validator {
	return &Validator{ledger: l, elections: ev}
}

// Validate returns tx when it can be committed after inBlock. Rejections are
// *transactions.ValidationError; any other error comes from the ledger.
func (v *Validator) Validate(tx transactions.Transaction, inBlock []transactions.Transaction) (transactions.Transaction, error) {
	err := v.validate(tx, inBlock)
	result := "ok"
	if err != nil {
		result = "rejected"
		if reason, ok := transactions.ReasonOf(err); ok {
			result = reason.String()
		}
	}
	validatedTotal.Inc(map[string]string{"operation": string(tx.Operation), "result": result})
	if err != nil {
		return transactions.Transaction{}, err
	}
	return tx, nil
}

func (v *Validator) validate(tx transactions.Transaction, inBlock []transactions.Transaction) error {
	if err := tx.WellFormed(); err != nil {
		return err
	}

	if tx.Operation.IsElection() {
		if v.elections == nil {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonGeneric, "%s is not accepted by this node", tx.Operation)
		}
		return v.elections.ValidateElection(tx, inBlock)
	}

	if err := v.checkNotCommitted(tx, inBlock); err != nil {
		return err
	}

	switch tx.Operation {
	case protocol.CreateTx:
		return v.validateCreate(tx, inBlock)
	case protocol.TransferTx, protocol.VoteTx, protocol.DecomposeTx:
		_, err := v.validateSpend(tx, inBlock, sameAssetRule)
		return err
	case protocol.ComposeTx:
		_, err := v.validateSpend(tx, inBlock, composeAssetRule)
		return err
	}
	return transactions.MakeValidationError(transactions.ValidationErrorReasonSchema, "unknown operation %q", tx.Operation)
}

// CheckNotCommitted fails with DuplicateTransaction when tx is already in the
// ledger or in inBlock.
func CheckNotCommitted(l LedgerForValidation, tx transactions.Transaction, inBlock []transactions.Transaction) error {
	for _, btx := range inBlock {
		if btx.ID == tx.ID {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonDuplicateTransaction,
				"transaction %s is already in the block", tx.ID)
		}
	}
	_, committed, err := l.GetTransaction(tx.ID)
	if err != nil {
		return err
	}
	if committed {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonDuplicateTransaction,
			"transaction %s is already committed", tx.ID)
	}
	return nil
}

func (v *Validator) checkNotCommitted(tx transactions.Transaction, inBlock []transactions.Transaction) error {
	return CheckNotCommitted(v.ledger, tx, inBlock)
}

// CheckIssuerSignatures checks the inputs that do not fulfill an output:
// each fulfillment must be signed over the transaction by exactly the keys
// listed in owners_before.
func CheckIssuerSignatures(tx transactions.Transaction) error {
	for i, in := range tx.Inputs {
		if in.Fulfills != nil {
			continue
		}
		if in.Fulfillment == nil {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidSignature,
				"input %d is not signed", i)
		}
		if !sameKeys(in.Fulfillment.Details().PublicKeys(), in.OwnersBefore) {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidSignature,
				"input %d fulfillment keys do not match owners_before", i)
		}
		if err := checkFulfillment(tx, i, ""); err != nil {
			return err
		}
	}
	return nil
}

func checkFulfillment(tx transactions.Transaction, i int, wantURI string) error {
	f := tx.Inputs[i].Fulfillment
	if wantURI != "" {
		uri, err := f.ConditionURI()
		if err != nil || uri != wantURI {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidSignature,
				"input %d fulfillment does not match the condition it spends", i)
		}
	}
	msg, err := tx.SigningMessage(i)
	if err != nil {
		return transactions.WrapValidationError(transactions.ValidationErrorReasonInvalidSignature, err)
	}
	if !f.Validate(msg) {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidSignature,
			"input %d fulfillment is not valid", i)
	}
	return nil
}

func (v *Validator) validateCreate(tx transactions.Transaction, inBlock []transactions.Transaction) error {
	var fulfilling []int
	for i, in := range tx.Inputs {
		if in.Fulfills != nil {
			fulfilling = append(fulfilling, i)
		}
	}
	if len(fulfilling) == 0 {
		return CheckIssuerSignatures(tx)
	}

	// a CREATE spending outputs claims one part of a decomposed asset
	resolved, err := v.resolveInputs(tx, inBlock)
	if err != nil {
		return err
	}
	for _, r := range resolved {
		if r.tx.Operation != protocol.DecomposeTx {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonSchema,
				"CREATE can only consume DECOMPOSE outputs, %s is %s", r.tx.ID, r.tx.Operation)
		}
	}
	first := resolved[0]
	inputData := first.tx.OutputAssetData(int(first.link.OutputIndex))
	if !sameAssetData(inputData, tx.Assets[0].Data) {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonGeneric,
			"CREATE must have matching asset description with input transaction")
	}
	for _, r := range resolved {
		if err := checkFulfillment(tx, r.input, r.output.Condition.URI); err != nil {
			return err
		}
	}
	return CheckIssuerSignatures(tx)
}

func sameAssetData(a, b interface{}) bool {
	x, err := protocol.EncodeCanonicalJSON(a)
	if err != nil {
		return false
	}
	y, err := protocol.EncodeCanonicalJSON(b)
	return err == nil && bytes.Equal(x, y)
}

type resolvedInput struct {
	input  int
	link   transactions.TxLink
	tx     transactions.Transaction
	output transactions.Output
}

// resolveInputs looks up the output behind every input that fulfills one,
// failing when it does not exist or is already spent.
func (v *Validator) resolveInputs(tx transactions.Transaction, inBlock []transactions.Transaction) ([]resolvedInput, error) {
	var out []resolvedInput
	seen := make(map[transactions.TxLink]bool)
	for i, in := range tx.Inputs {
		if in.Fulfills == nil {
			continue
		}
		link := *in.Fulfills
		inputTx, ok, err := v.ledger.GetInputTransaction(link.TransactionID, inBlock)
		if err != nil {
			return nil, err
		}
		if !ok || int(link.OutputIndex) >= len(inputTx.Outputs) {
			return nil, transactions.MakeValidationError(transactions.ValidationErrorReasonInputDoesNotExist,
				"input %v does not exist", link)
		}

		_, spent, err := v.ledger.GetSpent(link, inBlock)
		if err != nil {
			return nil, err
		}
		if spent {
			return nil, transactions.MakeValidationError(transactions.ValidationErrorReasonDoubleSpend,
				"output %v is already spent", link)
		}
		if seen[link] {
			return nil, transactions.MakeValidationError(transactions.ValidationErrorReasonDoubleSpend,
				"output %v is spent twice by the same transaction", link)
		}
		seen[link] = true
		out = append(out, resolvedInput{input: i, link: link, tx: inputTx, output: inputTx.Outputs[link.OutputIndex]})
	}
	return out, nil
}

type assetRule func(tx transactions.Transaction, inputAssets []string) error

// sameAssetRule requires every input to carry the asset the transaction declares.
func sameAssetRule(tx transactions.Transaction, inputAssets []string) error {
	want := tx.AssetID()
	for _, id := range inputAssets {
		if id != want {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonAssetIDMismatch,
				"input asset %s does not match declared asset %s", id, want)
		}
	}
	return nil
}

// composeAssetRule requires the new asset to differ from every consumed asset
// and the declared consumed assets to be exactly those of the inputs.
func composeAssetRule(tx transactions.Transaction, inputAssets []string) error {
	created := tx.AssetID()
	distinct := make(map[string]bool)
	for _, id := range inputAssets {
		if id == created {
			return transactions.MakeValidationError(transactions.ValidationErrorReasonAssetIDMismatch,
				"COMPOSE asset id must differ from its input asset ids")
		}
		distinct[id] = true
	}
	have := make([]string, 0, len(distinct))
	for id := range distinct {
		have = append(have, id)
	}
	if !sameKeys(have, tx.ConsumedAssetIDs()) {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonAssetIDMismatch,
			"COMPOSE consumed assets do not match its inputs")
	}
	return nil
}

func (v *Validator) validateSpend(tx transactions.Transaction, inBlock []transactions.Transaction, rule assetRule) ([]resolvedInput, error) {
	resolved, err := v.resolveInputs(tx, inBlock)
	if err != nil {
		return nil, err
	}

	inputAssets := make([]string, len(resolved))
	for i, r := range resolved {
		inputAssets[i] = r.tx.AssetID()
	}
	if err := rule(tx, inputAssets); err != nil {
		return nil, err
	}

	var in uint64
	for _, r := range resolved {
		sum, carry := bits.Add64(in, r.output.Amount, 0)
		if carry != 0 {
			return nil, transactions.MakeValidationError(transactions.ValidationErrorReasonAmount, "input amounts overflow")
		}
		in = sum
	}
	out, err := tx.TotalOutput()
	if err != nil {
		return nil, transactions.WrapValidationError(transactions.ValidationErrorReasonAmount, err)
	}
	if in != out {
		return nil, transactions.WrapValidationError(transactions.ValidationErrorReasonAmount,
			fmt.Errorf("the amount used in the inputs `%d` needs to be same as the amount used in the outputs `%d`", in, out))
	}

	for _, r := range resolved {
		if err := checkFulfillment(tx, r.input, r.output.Condition.URI); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func sameKeys(a, b []string) bool {
	x := dedup(a)
	y := dedup(b)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func dedup(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[i-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}

// IsFatal reports whether err from Validate signals a ledger problem rather
// than a rejected transaction.
func IsFatal(err error) bool {
	var ve *transactions.ValidationError
	return err != nil && !errors.As(err, &ve)
}
