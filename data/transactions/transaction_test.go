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
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/algorand/go-abciledger/crypto"
	"github.com/algorand/go-abciledger/protocol"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

func signedCreate(t *testing.T, amount uint64) (Transaction, crypto.PublicKey, crypto.SecretKey) {
	pk, sk := crypto.RandSecretKey()
	tx, err := MakeCreate([]crypto.PublicKey{pk}, []Recipient{{PublicKeys: []crypto.PublicKey{pk}, Amount: amount}},
		map[string]interface{}{"name": "bike"}, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(sk))
	return tx, pk, sk
}

func requireReason(t *testing.T, err error, reason ValidationErrorReason) {
	t.Helper()
	require.Error(t, err)
	got, ok := ReasonOf(err)
	require.True(t, ok, "not a validation error: %v", err)
	require.Equal(t, reason, got, "%v", err)
}

func TestCreateSignAndValidate(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	tx, _, _ := signedCreate(t, 10)
	require.NoError(t, tx.WellFormed())
	require.Equal(t, tx.ID, tx.AssetID())

	msg, err := tx.SigningMessage(0)
	require.NoError(t, err)
	require.True(t, tx.Inputs[0].Fulfillment.Validate(msg))

	tx.Metadata = map[string]interface{}{"changed": true}
	msg2, err := tx.SigningMessage(0)
	require.NoError(t, err)
	require.NotEqual(t, msg, msg2)
	require.False(t, tx.Inputs[0].Fulfillment.Validate(msg2))
}

func TestIDSurvivesWireRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		pk, sk := crypto.RandSecretKey()
		meta := map[string]interface{}{
			rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "key"): rapid.String().Draw(rt, "value"),
		}
		amount := rapid.Uint64Range(1, MaxAmount).Draw(rt, "amount")
		tx, err := MakeCreate([]crypto.PublicKey{pk}, []Recipient{{PublicKeys: []crypto.PublicKey{pk}, Amount: amount}},
			map[string]interface{}{"serial": rapid.Int().Draw(rt, "serial")}, meta)
		require.NoError(rt, err)
		require.NoError(rt, tx.Sign(sk))

		decoded, err := DecodeTransaction(tx.Encode())
		require.NoError(rt, err)
		id, err := decoded.ComputeID()
		require.NoError(rt, err)
		require.Equal(rt, tx.ID, id)
		require.NoError(rt, decoded.WellFormed())
	})
}

func TestSigningMessageCoversLink(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	create, pk, sk := signedCreate(t, 10)
	transfer, err := MakeTransfer(create.Spendables(), []Recipient{{PublicKeys: []crypto.PublicKey{pk}, Amount: 10}}, create.ID, nil)
	require.NoError(t, err)
	require.NoError(t, transfer.Sign(sk))
	require.NoError(t, transfer.WellFormed())
	require.Equal(t, create.ID, transfer.AssetID())

	msg, err := transfer.SigningMessage(0)
	require.NoError(t, err)
	require.True(t, transfer.Inputs[0].Fulfillment.Validate(msg))

	transfer.Inputs[0].Fulfills.OutputIndex = 1
	msg2, err := transfer.SigningMessage(0)
	require.NoError(t, err)
	require.False(t, transfer.Inputs[0].Fulfillment.Validate(msg2))
}

func TestThresholdOutput(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	issuer, issuerSK := crypto.RandSecretKey()
	a, askey := crypto.RandSecretKey()
	b, bskey := crypto.RandSecretKey()
	c, _ := crypto.RandSecretKey()

	create, err := MakeCreate([]crypto.PublicKey{issuer},
		[]Recipient{{PublicKeys: []crypto.PublicKey{a, b, c}, Amount: 3, Threshold: 2}}, "shared", nil)
	require.NoError(t, err)
	require.NoError(t, create.Sign(issuerSK))
	require.NoError(t, create.WellFormed())
	require.Equal(t, ThresholdCondition, create.Outputs[0].Condition.Details.Type)
	require.ElementsMatch(t, create.Outputs[0].PublicKeys, create.Outputs[0].Condition.Details.PublicKeys())

	transfer, err := MakeTransfer(create.Spendables(), []Recipient{{PublicKeys: []crypto.PublicKey{a}, Amount: 3}}, create.ID, nil)
	require.NoError(t, err)
	one := transfer
	one.Inputs = []Input{SpendingInput(create.Spendables()[0])}
	require.NoError(t, one.Sign(askey))
	msg, err := one.SigningMessage(0)
	require.NoError(t, err)
	require.False(t, one.Inputs[0].Fulfillment.Validate(msg))

	require.NoError(t, transfer.Sign(askey, bskey))
	msg, err = transfer.SigningMessage(0)
	require.NoError(t, err)
	require.True(t, transfer.Inputs[0].Fulfillment.Validate(msg))

	uri, err := transfer.Inputs[0].Fulfillment.ConditionURI()
	require.NoError(t, err)
	require.Equal(t, create.Outputs[0].Condition.URI, uri)
}

func TestConditionURI(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	pk, _ := crypto.RandSecretKey()
	uri, err := Ed25519Details(pk).URI()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "ni:///sha-256;"))
	require.True(t, strings.HasSuffix(uri, "?fpt=ed25519-sha-256&cost=131072"))

	other, _ := crypto.RandSecretKey()
	th := ThresholdDetails(1, Ed25519Details(pk), Ed25519Details(other))
	require.Equal(t, uint64(131072+2*1024), th.Cost())
	thURI, err := th.URI()
	require.NoError(t, err)
	require.NotEqual(t, uri, thURI)
}

func TestConditionDER(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	raw1, err := hex.DecodeString("d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a")
	require.NoError(t, err)
	raw2, err := hex.DecodeString("3d4017c3e843895a92b70aa74d1b7ebc9c982ccf2ec4968cc0cd55f12af4660c")
	require.NoError(t, err)
	pk1, err := crypto.PublicKeyFromBytes(raw1)
	require.NoError(t, err)
	pk2, err := crypto.PublicKeyFromBytes(raw2)
	require.NoError(t, err)

	ed := Ed25519Details(pk1)
	enc, err := ed.encodeCondition()
	require.NoError(t, err)
	require.Equal(t, "a4278020799239aba8fc4ff7eabfbc4c44e69e8bdfed993324e12ed64792abe289cf1d5f8103020000", hex.EncodeToString(enc))
	uri, err := ed.URI()
	require.NoError(t, err)
	require.Equal(t, "ni:///sha-256;eZI5q6j8T_fqv7xMROaei9_tmTMk4S7WR5Kr4onPHV8?fpt=ed25519-sha-256&cost=131072", uri)

	// subconditions are a DER set, so their order does not matter
	for _, th := range []ConditionDetails{
		ThresholdDetails(1, Ed25519Details(pk1), Ed25519Details(pk2)),
		ThresholdDetails(1, Ed25519Details(pk2), Ed25519Details(pk1)),
	} {
		uri, err := th.URI()
		require.NoError(t, err)
		require.Equal(t, "ni:///sha-256;DuXOIwACvtoPXYQ4svbI9kP9xkUD3ZCfq6HVL5lH4GU?fpt=threshold-sha-256&cost=133120&subtypes=ed25519-sha-256", uri)
	}

	nested := ThresholdDetails(1, ThresholdDetails(1, Ed25519Details(pk1)), Ed25519Details(pk2))
	require.Equal(t, []ConditionType{Ed25519Condition}, nested.Subtypes())
	require.Equal(t, []byte{3, 0x08}, subtypeBits(nested.Subtypes()))
	require.Equal(t, []byte{3, 0x28}, subtypeBits([]ConditionType{ThresholdCondition, Ed25519Condition}))

	script := ThresholdDetails(1, ConditionDetails{Type: ScriptCondition, Script: "s"})
	require.Error(t, script.wellFormed(0))
}

func TestWellFormedRejects(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	base, _, _ := signedCreate(t, 10)
	other, _ := crypto.RandSecretKey()

	tests := []struct {
		name   string
		mutate func(tx *Transaction)
		reason ValidationErrorReason
	}{
		{"unknown operation", func(tx *Transaction) { tx.Operation = "MINT" }, ValidationErrorReasonSchema},
		{"bad version", func(tx *Transaction) { tx.Version = "1.0" }, ValidationErrorReasonSchema},
		{"no inputs", func(tx *Transaction) { tx.Inputs = nil }, ValidationErrorReasonSchema},
		{"no outputs", func(tx *Transaction) { tx.Outputs = nil }, ValidationErrorReasonSchema},
		{"zero amount", func(tx *Transaction) { tx.Outputs[0].Amount = 0 }, ValidationErrorReasonSchema},
		{"amount above ceiling", func(tx *Transaction) { tx.Outputs[0].Amount = MaxAmount + 1 }, ValidationErrorReasonSchema},
		{"total overflows", func(tx *Transaction) {
			tx.Outputs[0].Amount = MaxAmount
			tx.Outputs = append(tx.Outputs, tx.Outputs[0], tx.Outputs[0])
		}, ValidationErrorReasonAmount},
		{"uri mismatch", func(tx *Transaction) { tx.Outputs[0].Condition.URI = "ni:///sha-256;AAAA?fpt=ed25519-sha-256&cost=131072" }, ValidationErrorReasonSchema},
		{"public keys mismatch", func(tx *Transaction) { tx.Outputs[0].PublicKeys = []string{other.String()} }, ValidationErrorReasonSchema},
		{"asset id on create", func(tx *Transaction) { tx.Assets[0].ID = "abc" }, ValidationErrorReasonSchema},
		{"unsigned input", func(tx *Transaction) { tx.Inputs[0].Fulfillment = nil }, ValidationErrorReasonSchema},
		{"tampered id", func(tx *Transaction) { tx.ID = crypto.HashHex([]byte("x")) }, ValidationErrorReasonInvalidHash},
		{"tampered metadata", func(tx *Transaction) { tx.Metadata = "m" }, ValidationErrorReasonInvalidHash},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			tx := base
			tx.Assets = append([]Asset(nil), base.Assets...)
			tx.Inputs = append([]Input(nil), base.Inputs...)
			tx.Outputs = append([]Output(nil), base.Outputs...)
			test.mutate(&tx)
			requireReason(t, tx.WellFormed(), test.reason)
		})
	}
}

func TestTransferShape(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	create, pk, sk := signedCreate(t, 10)
	transfer, err := MakeTransfer(create.Spendables(), []Recipient{{PublicKeys: []crypto.PublicKey{pk}, Amount: 10}}, create.ID, nil)
	require.NoError(t, err)
	transfer.Inputs[0].Fulfills = nil
	require.NoError(t, transfer.Sign(sk))
	requireReason(t, transfer.WellFormed(), ValidationErrorReasonSchema)
}

func TestDecomposeAssets(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	create, pk, sk := signedCreate(t, 3)
	dec, err := MakeDecompose(create.Spendables(), []Recipient{
		{PublicKeys: []crypto.PublicKey{pk}, Amount: 1},
		{PublicKeys: []crypto.PublicKey{pk}, Amount: 1},
		{PublicKeys: []crypto.PublicKey{pk}, Amount: 1},
	}, create.ID, []interface{}{"wheel", "frame"}, nil)
	require.NoError(t, err)
	require.NoError(t, dec.Sign(sk))
	require.NoError(t, dec.WellFormed())
	require.Equal(t, create.ID, dec.AssetID())
	require.Nil(t, dec.OutputAssetData(0))
	require.Equal(t, "frame", dec.OutputAssetData(2))

	_, err = MakeDecompose(create.Spendables(), []Recipient{{PublicKeys: []crypto.PublicKey{pk}, Amount: 3}}, create.ID, []interface{}{"x"}, nil)
	require.Error(t, err)
}

func TestValidationErrorUnwrap(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	inner := errors.New("boom")
	err := WrapValidationError(ValidationErrorReasonDoubleSpend, inner)
	require.ErrorIs(t, err, inner)
	require.Equal(t, "DoubleSpend: boom", err.Error())
	require.True(t, IsValidationError(err))
	require.False(t, IsValidationError(inner))
	require.Equal(t, "ValidationErrorReason(99)", ValidationErrorReason(99).String())
	require.Equal(t, protocol.CreateTx, MakeTransaction(protocol.CreateTx, nil, nil, nil, nil).Operation)
}
