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
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/algorand/go-abciledger/crypto"
)

// ConditionType names the crypto-condition an output is locked with.
type ConditionType string

const (
	// Ed25519Condition is satisfied by one ed25519 signature.
	Ed25519Condition ConditionType = "ed25519-sha-256"
	// ThresholdCondition is satisfied by Threshold of its subconditions.
	ThresholdCondition ConditionType = "threshold-sha-256"
	// ScriptCondition binds an output to a script. Scripts are not executed,
	// so these outputs can never be spent.
	ScriptCondition ConditionType = "script-sha-256"
)

const (
	ed25519Cost               = 131072
	scriptCost                = 65536
	thresholdSubconditionCost = 1024

	// maxConditionDepth bounds threshold nesting.
	maxConditionDepth = 8
)

// conditionTypeIDs are the tags of the DER Condition choice. They also number
// the bits of a subtypes BIT STRING.
var conditionTypeIDs = map[ConditionType]uint8{
	ThresholdCondition: 2,
	Ed25519Condition:   4,
}

// ConditionDetails is the structured form of a condition.
type ConditionDetails struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Type          ConditionType      `codec:"type"`
	PublicKey     string             `codec:"public_key"`
	Threshold     uint32             `codec:"threshold"`
	Subconditions []ConditionDetails `codec:"subconditions"`
	Script        string             `codec:"script"`
}

// Condition locks an output: the details and the URI derived from them.
type Condition struct {
	Details ConditionDetails `codec:"details"`
	URI     string           `codec:"uri"`
}

// Ed25519Details returns a single-key condition.
func Ed25519Details(pk crypto.PublicKey) ConditionDetails {
	return ConditionDetails{Type: Ed25519Condition, PublicKey: pk.String()}
}

// ThresholdDetails returns a threshold-of-len(subs) condition.
func ThresholdDetails(threshold uint32, subs ...ConditionDetails) ConditionDetails {
	return ConditionDetails{Type: ThresholdCondition, Threshold: threshold, Subconditions: subs}
}

// DetailsForKeys returns the condition used when an output is paid to keys:
// a single-key condition, or an all-of-n threshold.
func DetailsForKeys(keys ...crypto.PublicKey) ConditionDetails {
	if len(keys) == 1 {
		return Ed25519Details(keys[0])
	}
	subs := make([]ConditionDetails, len(keys))
	for i, k := range keys {
		subs[i] = Ed25519Details(k)
	}
	return ThresholdDetails(uint32(len(keys)), subs...)
}

// MakeCondition derives the URI of d.
func MakeCondition(d ConditionDetails) (Condition, error) {
	uri, err := d.URI()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Details: d, URI: uri}, nil
}

// Cost is the fulfillment cost carried in the URI.
func (d ConditionDetails) Cost() uint64 {
	switch d.Type {
	case Ed25519Condition:
		return ed25519Cost
	case ThresholdCondition:
		costs := make([]uint64, len(d.Subconditions))
		for i, sub := range d.Subconditions {
			costs[i] = sub.Cost()
		}
		sort.Slice(costs, func(i, j int) bool { return costs[i] > costs[j] })
		var total uint64
		for i := 0; i < len(costs) && i < int(d.Threshold); i++ {
			total += costs[i]
		}
		return total + thresholdSubconditionCost*uint64(len(d.Subconditions))
	default:
		return scriptCost
	}
}

// Fingerprint is the sha-256 of the DER fingerprint contents of the condition.
func (d ConditionDetails) Fingerprint() (crypto.Digest, error) {
	contents, err := d.fingerprintContents()
	if err != nil {
		return crypto.Digest{}, err
	}
	return crypto.Digest(sha256.Sum256(contents)), nil
}

func (d ConditionDetails) fingerprintContents() ([]byte, error) {
	var b cryptobyte.Builder
	switch d.Type {
	case Ed25519Condition:
		pk, err := crypto.ParsePublicKey(d.PublicKey)
		if err != nil {
			return nil, err
		}
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1(asn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
				b.AddBytes(pk[:])
			})
		})
	case ThresholdCondition:
		subs := make([][]byte, len(d.Subconditions))
		for i, sub := range d.Subconditions {
			enc, err := sub.encodeCondition()
			if err != nil {
				return nil, err
			}
			subs[i] = enc
		}
		// DER orders a SET OF by encoding
		sort.Slice(subs, func(i, j int) bool { return bytes.Compare(subs[i], subs[j]) < 0 })
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1Int64WithTag(int64(d.Threshold), asn1.Tag(0).ContextSpecific())
			b.AddASN1(asn1.Tag(1).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
				for _, sub := range subs {
					b.AddBytes(sub)
				}
			})
		})
	case ScriptCondition:
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1(asn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
				b.AddBytes([]byte(d.Script))
			})
		})
	default:
		return nil, fmt.Errorf("unknown condition type %q", d.Type)
	}
	return b.Bytes()
}

// encodeCondition is the DER Condition of d, as listed inside a threshold.
func (d ConditionDetails) encodeCondition() ([]byte, error) {
	typeID, ok := conditionTypeIDs[d.Type]
	if !ok {
		return nil, fmt.Errorf("%s cannot be a subcondition", d.Type)
	}
	fp, err := d.Fingerprint()
	if err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.Tag(typeID).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddBytes(fp[:])
		})
		b.AddASN1Int64WithTag(int64(d.Cost()), asn1.Tag(1).ContextSpecific())
		if d.Type == ThresholdCondition {
			b.AddASN1(asn1.Tag(2).ContextSpecific(), func(b *cryptobyte.Builder) {
				b.AddBytes(subtypeBits(d.Subtypes()))
			})
		}
	})
	return b.Bytes()
}

// subtypeBits renders types as a DER named-bit BIT STRING body: the unused
// bit count followed by the bits, trailing zero bits dropped.
func subtypeBits(types []ConditionType) []byte {
	var bits uint8
	last := -1
	for _, t := range types {
		id := int(conditionTypeIDs[t])
		bits |= 0x80 >> id
		if id > last {
			last = id
		}
	}
	if last < 0 {
		return []byte{0}
	}
	return []byte{uint8(7 - last), bits}
}

// Subtypes lists the condition types used below d, other than d's own type.
func (d ConditionDetails) Subtypes() []ConditionType {
	seen := make(map[ConditionType]bool)
	var walk func(ConditionDetails)
	walk = func(c ConditionDetails) {
		for _, sub := range c.Subconditions {
			seen[sub.Type] = true
			walk(sub)
		}
	}
	walk(d)
	delete(seen, d.Type)
	out := make([]ConditionType, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// URI renders the condition as a named-information URI.
func (d ConditionDetails) URI() (string, error) {
	fp, err := d.Fingerprint()
	if err != nil {
		return "", err
	}
	uri := fmt.Sprintf("ni:///sha-256;%s?fpt=%s&cost=%d",
		base64.RawURLEncoding.EncodeToString(fp[:]), d.Type, d.Cost())
	if subtypes := d.Subtypes(); len(subtypes) > 0 {
		names := make([]string, len(subtypes))
		for i, t := range subtypes {
			names[i] = string(t)
		}
		uri += "&subtypes=" + strings.Join(names, ",")
	}
	return uri, nil
}

// PublicKeys lists every key named in the condition tree, in tree order.
func (d ConditionDetails) PublicKeys() []string {
	var out []string
	d.walkKeys(func(pk string) { out = append(out, pk) })
	return out
}

func (d ConditionDetails) walkKeys(fn func(string)) {
	if d.Type == Ed25519Condition {
		fn(d.PublicKey)
		return
	}
	for _, sub := range d.Subconditions {
		sub.walkKeys(fn)
	}
}

func (d ConditionDetails) wellFormed(depth int) error {
	if depth > maxConditionDepth {
		return fmt.Errorf("condition nested deeper than %d", maxConditionDepth)
	}
	switch d.Type {
	case Ed25519Condition:
		if _, err := crypto.ParsePublicKey(d.PublicKey); err != nil {
			return err
		}
		if d.Threshold != 0 || len(d.Subconditions) != 0 || d.Script != "" {
			return fmt.Errorf("ed25519 condition carries threshold fields")
		}
	case ThresholdCondition:
		if d.PublicKey != "" || d.Script != "" {
			return fmt.Errorf("threshold condition carries a public key")
		}
		if d.Threshold == 0 || int(d.Threshold) > len(d.Subconditions) {
			return fmt.Errorf("threshold %d out of range for %d subconditions", d.Threshold, len(d.Subconditions))
		}
		for _, sub := range d.Subconditions {
			if sub.Type == ScriptCondition {
				return fmt.Errorf("script condition inside a threshold")
			}
			if err := sub.wellFormed(depth + 1); err != nil {
				return err
			}
		}
	case ScriptCondition:
		if d.Script == "" {
			return fmt.Errorf("script condition without script hash")
		}
	default:
		return fmt.Errorf("unknown condition type %q", d.Type)
	}
	return nil
}

// Fulfillment is a condition tree carrying signatures.
type Fulfillment struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Type            ConditionType `codec:"type"`
	PublicKey       string        `codec:"public_key"`
	Signature       string        `codec:"signature"`
	Threshold       uint32        `codec:"threshold"`
	Subfulfillments []Fulfillment `codec:"subfulfillments"`
	Script          string        `codec:"script"`
}

// FulfillmentTemplate returns an unsigned fulfillment for d.
func FulfillmentTemplate(d ConditionDetails) Fulfillment {
	f := Fulfillment{Type: d.Type, PublicKey: d.PublicKey, Threshold: d.Threshold, Script: d.Script}
	for _, sub := range d.Subconditions {
		f.Subfulfillments = append(f.Subfulfillments, FulfillmentTemplate(sub))
	}
	return f
}

// Details strips the signatures off f.
func (f Fulfillment) Details() ConditionDetails {
	d := ConditionDetails{Type: f.Type, PublicKey: f.PublicKey, Threshold: f.Threshold, Script: f.Script}
	for _, sub := range f.Subfulfillments {
		d.Subconditions = append(d.Subconditions, sub.Details())
	}
	return d
}

// ConditionURI is the URI of the condition f fulfills.
func (f Fulfillment) ConditionURI() (string, error) {
	return f.Details().URI()
}

// Validate reports whether f is a satisfied fulfillment over message.
// Any signature present must be valid.
func (f Fulfillment) Validate(message []byte) bool {
	ok, _ := f.validate(message, 0)
	return ok
}

// validate returns whether f is satisfied, and whether f is free of bad signatures.
func (f Fulfillment) validate(message []byte, depth int) (satisfied bool, clean bool) {
	if depth > maxConditionDepth {
		return false, false
	}
	switch f.Type {
	case Ed25519Condition:
		if f.Signature == "" {
			return false, true
		}
		pk, err := crypto.ParsePublicKey(f.PublicKey)
		if err != nil {
			return false, false
		}
		sig, err := crypto.ParseSignature(f.Signature)
		if err != nil {
			return false, false
		}
		if !pk.Verify(message, sig) {
			return false, false
		}
		return true, true
	case ThresholdCondition:
		if f.Threshold == 0 || int(f.Threshold) > len(f.Subfulfillments) {
			return false, false
		}
		var count uint32
		for _, sub := range f.Subfulfillments {
			ok, clean := sub.validate(message, depth+1)
			if !clean {
				return false, false
			}
			if ok {
				count++
			}
		}
		return count >= f.Threshold, true
	default:
		return false, true
	}
}

// sign fills in the signature of every ed25519 leaf whose key is in keys,
// and returns the number of leaves signed.
func (f *Fulfillment) sign(message []byte, keys map[string]crypto.SecretKey) int {
	switch f.Type {
	case Ed25519Condition:
		sk, ok := keys[f.PublicKey]
		if !ok {
			return 0
		}
		f.Signature = sk.Sign(message).String()
		return 1
	case ThresholdCondition:
		n := 0
		for i := range f.Subfulfillments {
			n += f.Subfulfillments[i].sign(message, keys)
		}
		return n
	default:
		return 0
	}
}
