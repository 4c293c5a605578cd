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
	"crypto/ed25519"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/hdevalence/ed25519consensus"
	"github.com/mr-tron/base58"
)

// PublicKeySize is the size of an ed25519 public key in bytes.
const PublicKeySize = ed25519.PublicKeySize

// SignatureSize is the size of an ed25519 signature in bytes.
const SignatureSize = ed25519.SignatureSize

var errWrongKeySize = errors.New("wrong public key size")

// PublicKey is an ed25519 public key. Its text form is base58.
type PublicKey [PublicKeySize]byte

// Signature is an ed25519 signature. Its text form is base58.
type Signature [SignatureSize]byte

// SecretKey holds the private half of a signing key pair.
type SecretKey struct {
	priv ed25519.PrivateKey
}

// String returns the base58 form of the key, as it appears in transactions.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Base64 returns the base64 form used by the consensus engine's validator updates.
func (pk PublicKey) Base64() string {
	return base64.StdEncoding.EncodeToString(pk[:])
}

// String returns the base58 form of the signature.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// PublicKeyFromBytes copies a raw 32-byte key.
func PublicKeyFromBytes(b []byte) (pk PublicKey, err error) {
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("%w: %d", errWrongKeySize, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// ParsePublicKey decodes a base58 public key.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key %q: %w", s, err)
	}
	return PublicKeyFromBytes(b)
}

// ParseSignature decodes a base58 signature.
func ParseSignature(s string) (sig Signature, err error) {
	b, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("signature: %w", err)
	}
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("signature has %d bytes", len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

// PublicKeyEncoding is the textual encoding of a validator key inside an election proposal.
type PublicKeyEncoding string

// Encodings accepted for validator public keys.
const (
	Ed25519Base16 PublicKeyEncoding = "ed25519-base16"
	Ed25519Base32 PublicKeyEncoding = "ed25519-base32"
	Ed25519Base64 PublicKeyEncoding = "ed25519-base64"
)

// DecodePublicKey decodes value according to the named encoding.
func DecodePublicKey(encoding PublicKeyEncoding, value string) (PublicKey, error) {
	var raw []byte
	var err error
	switch encoding {
	case Ed25519Base16:
		raw, err = hex.DecodeString(value)
	case Ed25519Base32:
		raw, err = base32.StdEncoding.DecodeString(value)
	case Ed25519Base64:
		raw, err = base64.StdEncoding.DecodeString(value)
	default:
		return PublicKey{}, fmt.Errorf("unsupported public key encoding %q", encoding)
	}
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key (%s): %w", encoding, err)
	}
	return PublicKeyFromBytes(raw)
}

// EncodePublicKey is the inverse of DecodePublicKey.
func EncodePublicKey(encoding PublicKeyEncoding, pk PublicKey) (string, error) {
	switch encoding {
	case Ed25519Base16:
		return hex.EncodeToString(pk[:]), nil
	case Ed25519Base32:
		return base32.StdEncoding.EncodeToString(pk[:]), nil
	case Ed25519Base64:
		return base64.StdEncoding.EncodeToString(pk[:]), nil
	}
	return "", fmt.Errorf("unsupported public key encoding %q", encoding)
}

// GenerateKey creates a fresh key pair from rand.
func GenerateKey(rand io.Reader) (PublicKey, SecretKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return PublicKey{}, SecretKey{}, err
	}
	var pk PublicKey
	copy(pk[:], pub)
	return pk, SecretKey{priv: priv}, nil
}

// SecretKeyFromSeed derives a key pair from a 32-byte seed.
func SecretKeyFromSeed(seed [32]byte) (PublicKey, SecretKey) {
	priv := ed25519.NewKeyFromSeed(seed[:])
	var pk PublicKey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return pk, SecretKey{priv: priv}
}

// PublicKey returns the public half of the key pair.
func (sk SecretKey) PublicKey() (pk PublicKey) {
	copy(pk[:], sk.priv.Public().(ed25519.PublicKey))
	return
}

// Sign signs message.
func (sk SecretKey) Sign(message []byte) (sig Signature) {
	copy(sig[:], ed25519.Sign(sk.priv, message))
	return
}

// Verify checks sig over message with the consensus-safe ed25519 rules, so every
// node accepts exactly the same set of signatures.
func (pk PublicKey) Verify(message []byte, sig Signature) bool {
	return ed25519consensus.Verify(ed25519.PublicKey(pk[:]), message, sig[:])
}
