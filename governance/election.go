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

// Package governance runs on-chain elections: validator set changes and
// chain migrations, decided by a two thirds supermajority of voting power.
package governance

import (
	"encoding/hex"
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/data/transactions"
	"github.com/algorand/go-abciledger/data/transactions/verify"
	"github.com/algorand/go-abciledger/ledger"
	"github.com/algorand/go-abciledger/ledger/ledgercore"
	"github.com/algorand/go-abciledger/logging"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/util/metrics"
)

var concludedTotal = metrics.MakeCounter(metrics.ElectionsConcludedTotal, "operation")
var validatorPower = metrics.MakeGauge(metrics.ValidatorSetPower)

// Election statuses reported by Status.
const (
	StatusOngoing      = "ongoing"
	StatusConcluded    = "concluded"
	StatusInconclusive = "inconclusive"
)

// electionKind is the behavior particular to one election operation.
type electionKind interface {
	// checkSchema validates the asset payload of a proposal
	checkSchema(tx transactions.Transaction) error
	// validate applies the extra proposal rules of the kind
	validate(e *Engine, tx transactions.Transaction, validators []ledgercore.Validator) error
	// mayConclude vetoes a conclusion before votes are counted
	mayConclude(e *Engine) (bool, error)
	// onApproval applies a concluded election at height
	onApproval(e *Engine, tx transactions.Transaction, height uint64) (*ValidatorUpdate, error)
	// onRollback undoes onApproval at height
	onRollback(e *Engine, height uint64) error
	// describe adds kind-specific lines to the status report
	describe(e *Engine, tx transactions.Transaction) (string, error)
}

func kindOf(op protocol.TxOperation) electionKind {
	switch op {
	case protocol.ValidatorElectionTx:
		return validatorElection{}
	case protocol.ChainMigrationElectionTx:
		return chainMigrationElection{}
	}
	return nil
}

// Engine validates proposals and tallies votes against the ledger.
type Engine struct {
	ledger *ledger.Ledger
	log    logging.Logger
}

// MakeEngine returns an election engine over l.
func MakeEngine(l *ledger.Ledger, log logging.Logger) *Engine {
	return &Engine{ledger: l, log: log.With("component", "governance")}
}

// ElectionPublicKey is the key votes for electionID are paid to: the raw
// bytes of the election id read as an ed25519 public key.
func ElectionPublicKey(electionID string) (crypto.PublicKey, error) {
	raw, err := hex.DecodeString(electionID)
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("election id %q: %w", electionID, err)
	}
	return crypto.PublicKeyFromBytes(raw)
}

func validatorPowers(validators []ledgercore.Validator) map[string]uint64 {
	m := make(map[string]uint64, len(validators))
	for _, v := range validators {
		m[v.PublicKey] = v.VotingPower
	}
	return m
}

// productLess reports whether a*x < b*y, computed on 128 bits.
func productLess(a, x, b, y uint64) bool {
	xhi, xlo := bits.Mul64(a, x)
	yhi, ylo := bits.Mul64(b, y)
	return xhi < yhi || (xhi == yhi && xlo < ylo)
}

func totalPower(validators []ledgercore.Validator) uint64 {
	return ledgercore.ValidatorSet{Validators: validators}.TotalPower()
}

// sameTopology reports whether outputs pay every validator exactly its voting
// power, one single-key output each.
func sameTopology(validators []ledgercore.Validator, outputs []transactions.Output) bool {
	voters := make(map[string]uint64, len(outputs))
	for _, out := range outputs {
		if len(out.PublicKeys) != 1 {
			return false
		}
		voters[out.PublicKeys[0]] = out.Amount
	}
	current := validatorPowers(validators)
	if len(current) != len(voters) {
		return false
	}
	for pk, power := range current {
		if got, ok := voters[pk]; !ok || got != power {
			return false
		}
	}
	return true
}

// ValidateElection checks a proposal against the latest validator set.
// It satisfies verify.ElectionValidator.
func (e *Engine) ValidateElection(tx transactions.Transaction, inBlock []transactions.Transaction) error {
	kind := kindOf(tx.Operation)
	if kind == nil {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonSchema, "%s is not an election", tx.Operation)
	}
	if err := kind.checkSchema(tx); err != nil {
		return err
	}

	if err := verify.CheckNotCommitted(e.ledger, tx, inBlock); err != nil {
		return err
	}
	if err := verify.CheckIssuerSignatures(tx); err != nil {
		return err
	}

	validators, err := e.ledger.GetValidators(0)
	if err != nil {
		return err
	}

	if len(tx.Inputs) != 1 || len(tx.Inputs[0].OwnersBefore) != 1 {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonMultipleInputs,
			"`tx_signers` must be a list instance of length one")
	}
	proposer := tx.Inputs[0].OwnersBefore[0]
	if _, ok := validatorPowers(validators)[proposer]; !ok {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonInvalidProposer,
			"public key %s is not a part of the validator set", proposer)
	}
	if !sameTopology(validators, tx.Outputs) {
		return transactions.MakeValidationError(transactions.ValidationErrorReasonUnequalValidatorSet,
			"validator set must be exactly same to the outputs of election")
	}

	return kind.validate(e, tx, validators)
}

// CountVotes sums the VOTE outputs among txns paid to exactly electionPK.
// Outputs mixing in any other key are ignored.
func CountVotes(electionPK string, txns []transactions.Transaction) (votes uint64) {
	for _, tx := range txns {
		if tx.Operation != protocol.VoteTx {
			continue
		}
		for _, out := range tx.Outputs {
			if len(out.PublicKeys) == 1 && out.PublicKeys[0] == electionPK {
				votes += out.Amount
			}
		}
	}
	return
}

// GetCommittedVotes counts the committed votes for electionID.
func (e *Engine) GetCommittedVotes(electionID string) (uint64, error) {
	pk, err := ElectionPublicKey(electionID)
	if err != nil {
		return 0, err
	}
	txns, err := e.ledger.GetAssetTokensForPublicKey(electionID, pk.String())
	if err != nil {
		return 0, err
	}
	return CountVotes(pk.String(), txns), nil
}

func (e *Engine) getElectionRecord(electionID string) (ledgercore.Election, error) {
	rec, ok, err := e.ledger.GetElection(electionID)
	if err != nil {
		return ledgercore.Election{}, err
	}
	if !ok {
		return ledgercore.Election{}, ledgercore.ErrNoEntry{What: "election", Key: electionID}
	}
	return rec, nil
}

// hasValidatorSetChanged reports whether the validator set changed after the
// election was initiated.
func (e *Engine) hasValidatorSetChanged(rec ledgercore.Election) (bool, error) {
	latest, ok, err := e.ledger.GetLatestValidatorSetChange()
	if err != nil || !ok {
		return false, err
	}
	return latest.Height > rec.Height, nil
}

// HasElectionConcluded reports whether the votes in currentVotes are the
// ones that first carry election past two thirds of its voting power.
// An election already past the threshold, or initiated under a different
// validator set, does not conclude.
func (e *Engine) HasElectionConcluded(election transactions.Transaction, currentVotes []transactions.Transaction) (bool, error) {
	kind := kindOf(election.Operation)
	if kind == nil {
		return false, nil
	}
	ok, err := kind.mayConclude(e)
	if err != nil || !ok {
		return false, err
	}

	rec, err := e.getElectionRecord(election.ID)
	if err != nil {
		return false, err
	}
	if rec.IsConcluded {
		return false, nil
	}
	changed, err := e.hasValidatorSetChanged(rec)
	if err != nil || changed {
		return false, err
	}

	pk, err := ElectionPublicKey(election.ID)
	if err != nil {
		return false, err
	}
	committed, err := e.GetCommittedVotes(election.ID)
	if err != nil {
		return false, err
	}
	current := CountVotes(pk.String(), currentVotes)
	total, err := election.TotalOutput()
	if err != nil {
		return false, err
	}
	after, carry := bits.Add64(committed, current, 0)
	reached := carry != 0 || !productLess(3, after, 2, total)
	return productLess(3, committed, 2, total) && reached, nil
}

// initiatedElections lists the elections proposed in txns.
func initiatedElections(height uint64, txns []transactions.Transaction) (out []ledgercore.Election) {
	for _, tx := range txns {
		if tx.Operation.IsElection() {
			out = append(out, ledgercore.Election{ElectionID: tx.ID, Height: height})
		}
	}
	return
}

// votesByElection groups the votes in txns by election, in order of first vote.
func votesByElection(txns []transactions.Transaction) (order []string, votes map[string][]transactions.Transaction) {
	votes = make(map[string][]transactions.Transaction)
	for _, tx := range txns {
		if tx.Operation != protocol.VoteTx {
			continue
		}
		id := tx.AssetID()
		if _, seen := votes[id]; !seen {
			order = append(order, id)
		}
		votes[id] = append(votes[id], tx)
	}
	return
}

// ProcessBlock records the elections proposed in txns and concludes the
// elections their votes carry past the threshold, in order of first vote.
// Only the validator update of the last concluded validator election is
// returned.
func (e *Engine) ProcessBlock(height uint64, txns []transactions.Transaction) ([]ValidatorUpdate, error) {
	if initiated := initiatedElections(height, txns); len(initiated) > 0 {
		if err := e.ledger.StoreElections(initiated); err != nil {
			return nil, err
		}
	}

	var update *ValidatorUpdate
	order, votes := votesByElection(txns)
	for _, id := range order {
		election, ok, err := e.ledger.GetTransaction(id)
		if err != nil {
			return nil, err
		}
		if !ok || !election.Operation.IsElection() {
			continue
		}
		concluded, err := e.HasElectionConcluded(election, votes[id])
		if err != nil {
			return nil, err
		}
		if !concluded {
			continue
		}

		u, err := kindOf(election.Operation).onApproval(e, election, height)
		if err != nil {
			return nil, err
		}
		if u != nil {
			update = u
		}

		rec, err := e.getElectionRecord(id)
		if err != nil {
			return nil, err
		}
		rec.IsConcluded = true
		rec.ConcludedAt = height
		if err := e.ledger.StoreElection(rec); err != nil {
			return nil, err
		}
		concludedTotal.Inc(map[string]string{"operation": string(election.Operation)})
		e.log.Infof("election %s (%s) concluded at height %d", id, election.Operation, height)
	}

	if update == nil {
		return nil, nil
	}
	return []ValidatorUpdate{*update}, nil
}

// Rollback undoes what ProcessBlock did at height. txIDs are the
// transactions of the block being rolled back. Calling it twice is harmless.
func (e *Engine) Rollback(height uint64, txIDs []string) error {
	if err := e.ledger.DeleteElections(height); err != nil {
		return err
	}

	affected := make(map[string]bool)
	var order []string
	touch := func(id string) {
		if !affected[id] {
			affected[id] = true
			order = append(order, id)
		}
	}

	concluded, err := e.ledger.GetElectionsConcludedAt(height)
	if err != nil {
		return err
	}
	for i := range concluded {
		touch(concluded[i].ElectionID)
		concluded[i].IsConcluded = false
		concluded[i].ConcludedAt = 0
	}
	if len(concluded) > 0 {
		if err := e.ledger.StoreElections(concluded); err != nil {
			return err
		}
	}

	txns, err := e.ledger.GetTransactions(txIDs)
	if err != nil {
		return err
	}
	voted, _ := votesByElection(txns)
	for _, id := range voted {
		touch(id)
	}

	for _, id := range order {
		election, ok, err := e.ledger.GetTransaction(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		kind := kindOf(election.Operation)
		if kind == nil {
			continue
		}
		if err := kind.onRollback(e, height); err != nil {
			return err
		}
	}
	return nil
}

// Status returns ongoing, concluded or inconclusive for electionID.
func (e *Engine) Status(electionID string) (string, error) {
	rec, err := e.getElectionRecord(electionID)
	if err != nil {
		return "", err
	}
	if rec.IsConcluded {
		return StatusConcluded, nil
	}
	changed, err := e.hasValidatorSetChanged(rec)
	if err != nil {
		return "", err
	}
	if changed {
		return StatusInconclusive, nil
	}
	return StatusOngoing, nil
}

// ShowElection renders electionID as key=value lines: its proposal payload
// except the seed, its status, and the kind's details.
func (e *Engine) ShowElection(electionID string) (string, error) {
	election, ok, err := e.ledger.GetTransaction(electionID)
	if err != nil {
		return "", err
	}
	kind := kindOf(election.Operation)
	if !ok || kind == nil {
		return "", ledgercore.ErrNoEntry{What: "election", Key: electionID}
	}

	data, _ := election.Assets[0].Data.(map[string]interface{})
	keys := make([]string, 0, len(data))
	for k := range data {
		if k != "seed" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := data[k]
		if k == "public_key" {
			v = proposedKeyBase64(v)
		}
		fmt.Fprintf(&b, "%s=%v\n", k, v)
	}
	status, err := e.Status(electionID)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "status=%s", status)

	extra, err := kind.describe(e, election)
	if err != nil {
		return "", err
	}
	b.WriteString(extra)
	return b.String(), nil
}

// refreshPowerGauge reports the latest validator set power.
func (e *Engine) refreshPowerGauge() {
	vals, err := e.ledger.GetValidators(0)
	if err == nil {
		validatorPower.Set(totalPower(vals))
	}
}
