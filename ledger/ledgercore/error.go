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

package ledgercore

import (
	"errors"
	"fmt"

	"github.com/algorand/go-abciledger/data/transactions"
)

// CriticalDoubleSpendError means storage observed a transaction committed
// twice or an output with two spenders. The ledger is corrupt and the node
// must stop.
type CriticalDoubleSpendError struct {
	Txid string
	// Link is set when an output has more than one spender.
	Link *transactions.TxLink
}

// Error satisfies builtin interface `error`
func (cdse CriticalDoubleSpendError) Error() string {
	if cdse.Link != nil {
		return fmt.Sprintf("critical double spend: output %v spent again by %s", *cdse.Link, cdse.Txid)
	}
	return fmt.Sprintf("critical double spend: transaction %s already in ledger", cdse.Txid)
}

// IsCriticalDoubleSpend reports whether err carries a CriticalDoubleSpendError.
func IsCriticalDoubleSpend(err error) bool {
	var cdse CriticalDoubleSpendError
	return errors.As(err, &cdse)
}

// ErrNoEntry is returned when a record the caller relies on is missing.
type ErrNoEntry struct {
	What string
	Key  interface{}
}

// Error satisfies builtin interface `error`
func (err ErrNoEntry) Error() string {
	return fmt.Sprintf("ledger does not have %s %v", err.What, err.Key)
}
