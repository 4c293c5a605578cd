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

package crypto

import (
	"bytes"
	"encoding/hex"
	"sort"
	"strconv"

	"golang.org/x/crypto/sha3"
)

// UTXOLeaf is the merkle leaf of an unspent output: SHA3-256(txid || output_index).
func UTXOLeaf(txid string, outputIndex uint32) Digest {
	return HashStrings(txid, strconv.FormatUint(uint64(outputIndex), 10))
}

// MerkleRoot folds the leaves pairwise with SHA3-256, duplicating the last leaf
// of any level with an odd number of nodes. The caller decides leaf order.
// An empty set hashes to SHA3-256("") and a single leaf is its own root.
func MerkleRoot(leaves []Digest) string {
	if len(leaves) == 0 {
		return HashHex(nil)
	}
	level := make([][]byte, len(leaves))
	for i := range leaves {
		leaf := leaves[i]
		level[i] = leaf[:]
	}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		parents := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			h := sha3.New256()
			h.Write(level[i])
			h.Write(level[i+1])
			parents = append(parents, h.Sum(nil))
		}
		level = parents
	}
	return hex.EncodeToString(level[0])
}

// SortedMerkleRoot sorts the leaves lexicographically before folding them, which
// makes the root a function of the leaf multiset only.
func SortedMerkleRoot(leaves []Digest) string {
	sorted := make([]Digest, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})
	return MerkleRoot(sorted)
}
