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

// Package metrics wraps prometheus collectors behind the names the ledger reports.
package metrics

// MetricName describes the name and description of a single metric
type MetricName struct {
	Name        string
	Description string
}

var (
	// TransactionsCheckedTotal counts CheckTx outcomes per operation
	TransactionsCheckedTotal = MetricName{Name: "ledgerd_transactions_checked_total", Description: "Transactions submitted through CheckTx, by operation and result"}
	// TransactionsDeliveredTotal counts DeliverTx outcomes per operation
	TransactionsDeliveredTotal = MetricName{Name: "ledgerd_transactions_delivered_total", Description: "Transactions submitted through DeliverTx, by operation and result"}
	// TransactionsValidatedTotal counts validator outcomes per operation
	TransactionsValidatedTotal = MetricName{Name: "ledgerd_transactions_validated_total", Description: "Transactions run through the validator, by operation and result"}
	// BlocksCommittedTotal counts committed blocks
	BlocksCommittedTotal = MetricName{Name: "ledgerd_blocks_committed_total", Description: "Number of blocks committed"}
	// LedgerHeight is the height of the latest committed block
	LedgerHeight = MetricName{Name: "ledgerd_ledger_height", Description: "Height of the latest committed block"}
	// ElectionsConcludedTotal counts concluded elections per operation
	ElectionsConcludedTotal = MetricName{Name: "ledgerd_elections_concluded_total", Description: "Elections concluded, by operation"}
	// ValidatorSetPower is the total voting power of the latest validator set
	ValidatorSetPower = MetricName{Name: "ledgerd_validator_set_power", Description: "Total voting power of the latest validator set"}
)
