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
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/test/partitiontest"
)

func TestSignVerify(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	pk, sk := RandSecretKey()
	require.Equal(t, pk, sk.PublicKey())

	msg := []byte("transfer 10 units")
	sig := sk.Sign(msg)
	require.True(t, pk.Verify(msg, sig))
	require.False(t, pk.Verify([]byte("transfer 11 units"), sig))

	other, _ := RandSecretKey()
	require.False(t, other.Verify(msg, sig))
}

func TestPublicKeyText(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	pk, sk := RandSecretKey()
	parsed, err := ParsePublicKey(pk.String())
	require.NoError(t, err)
	require.Equal(t, pk, parsed)

	sig := sk.Sign([]byte("x"))
	parsedSig, err := ParseSignature(sig.String())
	require.NoError(t, err)
	require.Equal(t, sig, parsedSig)

	_, err = ParsePublicKey("0OIl")
	require.Error(t, err)
	_, err = ParsePublicKey("3mJr7AoUXx2Wqd")
	require.Error(t, err)
}

func TestDecodePublicKeyEncodings(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	pk, _ := RandSecretKey()
	for enc, value := range map[PublicKeyEncoding]string{
		Ed25519Base16: hex.EncodeToString(pk[:]),
		Ed25519Base32: base32.StdEncoding.EncodeToString(pk[:]),
		Ed25519Base64: base64.StdEncoding.EncodeToString(pk[:]),
	} {
		decoded, err := DecodePublicKey(enc, value)
		require.NoError(t, err, enc)
		require.Equal(t, pk, decoded, enc)
	}
	require.Equal(t, base64.StdEncoding.EncodeToString(pk[:]), pk.Base64())

	_, err := DecodePublicKey("rsa-base64", "AAAA")
	require.Error(t, err)
	_, err = DecodePublicKey(Ed25519Base16, "abcd")
	require.Error(t, err)
}

func TestDigestFromString(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	d := Hash([]byte("block"))
	parsed, err := DigestFromString(d.String())
	require.NoError(t, err)
	require.Equal(t, d, parsed)
	require.False(t, d.IsZero())

	_, err = DigestFromString("abcd")
	require.Error(t, err)
	require.Equal(t, Hash([]byte("ab")), HashStrings("a", "b"))
}
