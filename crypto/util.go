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
	"crypto/rand"
	"encoding/binary"
)

// RandBytes fills the provided structure with a set of random bytes
func RandBytes(buf []byte) {
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
}

// RandUint64 returns a random 64-bit unsigned integer
func RandUint64() uint64 {
	var buf [8]byte
	RandBytes(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// RandSecretKey generates a new random key pair, mostly for tests and tooling.
func RandSecretKey() (PublicKey, SecretKey) {
	var seed [32]byte
	RandBytes(seed[:])
	return SecretKeyFromSeed(seed)
}
