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
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the number of bytes in the preferred hash Digest used here.
const DigestSize = 32

// Digest represents a 32-byte SHA3-256 value.
type Digest [DigestSize]byte

// String returns the lowercase hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero return true if the digest contains only zeros, false otherwise
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ToSlice converts Digest to slice, is used by bookkeeping and merkle code
func (d Digest) ToSlice() []byte {
	return d[:]
}

// DigestFromString converts a hex string into a Digest.
func DigestFromString(str string) (d Digest, err error) {
	decoded, err := hex.DecodeString(str)
	if err != nil {
		return d, err
	}
	if len(decoded) != len(d) {
		return d, fmt.Errorf("attempted to decode a string which was not a Digest: %v", str)
	}
	copy(d[:], decoded)
	return d, err
}

// Hash computes the SHA3-256 digest of data.
func Hash(data []byte) Digest {
	return sha3.Sum256(data)
}

// HashHex computes the SHA3-256 digest of data and returns it hex encoded.
func HashHex(data []byte) string {
	return Hash(data).String()
}

// HashStrings hashes the concatenation of parts, in the order given.
func HashStrings(parts ...string) Digest {
	h := sha3.New256()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	var d Digest
	h.Sum(d[:0])
	return d
}
