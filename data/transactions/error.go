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
	"errors"
	"fmt"
)

// ValidationErrorReason classifies a recoverable validation failure.
type ValidationErrorReason int

const (
	// ValidationErrorReasonGeneric is a catch-all for failures without a dedicated reason
	ValidationErrorReasonGeneric ValidationErrorReason = iota
	// ValidationErrorReasonSchema is a malformed transaction
	ValidationErrorReasonSchema
	// ValidationErrorReasonInvalidHash is a transaction whose id does not match its body
	ValidationErrorReasonInvalidHash
	// ValidationErrorReasonDuplicateTransaction is a transaction already committed or already in the block
	ValidationErrorReasonDuplicateTransaction
	// ValidationErrorReasonDoubleSpend is an input spending an already spent output
	ValidationErrorReasonDoubleSpend
	// ValidationErrorReasonAssetIDMismatch is a transfer moving a different asset than its inputs
	ValidationErrorReasonAssetIDMismatch
	// ValidationErrorReasonInvalidSignature is a fulfillment that does not satisfy its condition
	ValidationErrorReasonInvalidSignature
	// ValidationErrorReasonAmount is an amount out of range or unbalanced inputs and outputs
	ValidationErrorReasonAmount
	// ValidationErrorReasonInputDoesNotExist is an input pointing at an unknown output
	ValidationErrorReasonInputDoesNotExist
	// ValidationErrorReasonMultipleInputs is an election with more than one proposer
	ValidationErrorReasonMultipleInputs
	// ValidationErrorReasonInvalidProposer is an election proposed by a non-validator
	ValidationErrorReasonInvalidProposer
	// ValidationErrorReasonUnequalValidatorSet is an election whose outputs are not the current validator set
	ValidationErrorReasonUnequalValidatorSet
	// ValidationErrorReasonInvalidPowerChange is a validator election moving too much voting power
	ValidationErrorReasonInvalidPowerChange

	// ValidationErrorReasonNumValues is number of enum values
	ValidationErrorReasonNumValues
)

var validationErrorReasonNames = [ValidationErrorReasonNumValues]string{
	"ValidationError",
	"SchemaValidationError",
	"InvalidHash",
	"DuplicateTransaction",
	"DoubleSpend",
	"AssetIdMismatch",
	"InvalidSignature",
	"AmountError",
	"InputDoesNotExist",
	"MultipleInputsError",
	"InvalidProposer",
	"UnequalValidatorSet",
	"InvalidPowerChange",
}

func (r ValidationErrorReason) String() string {
	if r < 0 || r >= ValidationErrorReasonNumValues {
		return fmt.Sprintf("ValidationErrorReason(%d)", int(r))
	}
	return validationErrorReasonNames[r]
}

// ValidationError is an expected outcome of malformed or adversarial input.
// It rejects the transaction and never stops the node.
type ValidationError struct {
	err    error
	Reason ValidationErrorReason
}

// Error returns the reason and the underlying error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.err
}

// MakeValidationError returns a ValidationError with a formatted message.
func MakeValidationError(reason ValidationErrorReason, format string, args ...interface{}) *ValidationError {
	return &ValidationError{err: fmt.Errorf(format, args...), Reason: reason}
}

// WrapValidationError returns a ValidationError around err.
func WrapValidationError(reason ValidationErrorReason, err error) *ValidationError {
	return &ValidationError{err: err, Reason: reason}
}

// ReasonOf returns the validation reason carried by err, if any.
func ReasonOf(err error) (ValidationErrorReason, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return 0, false
}

// IsValidationError reports whether err is a recoverable validation failure.
func IsValidationError(err error) bool {
	_, ok := ReasonOf(err)
	return ok
}
