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

package bookkeeping

import (
	"encoding/hex"

	"github.com/algorand/go-abciledger/crypto"
)

// Block is the record of one committed consensus round.
// Its presence in the ledger marks the height as fully committed.
type Block struct {
	Height       uint64   `codec:"height"`
	AppHash      string   `codec:"app_hash"`
	Transactions []string `codec:"transactions"`
}

// BlockTxnHash hashes the transaction ids of a block in block order.
func BlockTxnHash(txIDs []string) crypto.Digest {
	return crypto.HashStrings(txIDs...)
}

// NextAppHash chains the app hash of a block onto its predecessor.
// A block without transactions keeps the previous app hash.
func NextAppHash(prevAppHash string, txIDs []string) string {
	if len(txIDs) == 0 {
		return prevAppHash
	}
	return crypto.HashStrings(prevAppHash, BlockTxnHash(txIDs).String()).String()
}

// AppHashBytes returns the app hash in the raw form handed to the consensus engine.
func (b Block) AppHashBytes() []byte {
	return AppHashBytes(b.AppHash)
}

// AppHashBytes decodes a hex app hash. Values that are not hex are
// returned as their bytes.
func AppHashBytes(appHash string) []byte {
	raw, err := hex.DecodeString(appHash)
	if err != nil {
		return []byte(appHash)
	}
	return raw
}
