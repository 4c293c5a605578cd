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

package protocol

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/algorand/go-codec/codec"
)

// ErrInvalidObject is used to state that an object decoding has failed because it's invalid.
var ErrInvalidObject = errors.New("unmarshalled object is invalid")

// CodecHandle is used to instantiate msgpack encoders and decoders
// with our settings (canonical, paranoid about decoding errors)
var CodecHandle *codec.MsgpackHandle

// JSONHandle is used to instantiate JSON encoders and decoders
// for the wire and storage representations.
var JSONHandle *codec.JsonHandle

// CanonicalJSONHandle encodes schema-less values with sorted map keys and
// compact separators. It is the only handle used for hashing and signing.
var CanonicalJSONHandle *codec.JsonHandle

func init() {
	CodecHandle = new(codec.MsgpackHandle)
	CodecHandle.ErrorIfNoField = true
	CodecHandle.ErrorIfNoArrayExpand = true
	CodecHandle.Canonical = true
	CodecHandle.RecursiveEmptyCheck = true
	CodecHandle.WriteExt = true
	CodecHandle.PositiveIntUnsigned = true
	CodecHandle.RawToString = true
	CodecHandle.MapType = reflect.TypeOf(map[string]interface{}(nil))

	JSONHandle = new(codec.JsonHandle)
	JSONHandle.ErrorIfNoField = true
	JSONHandle.ErrorIfNoArrayExpand = true
	JSONHandle.Canonical = true
	JSONHandle.RecursiveEmptyCheck = true
	JSONHandle.HTMLCharsAsIs = true
	JSONHandle.MapType = reflect.TypeOf(map[string]interface{}(nil))

	CanonicalJSONHandle = new(codec.JsonHandle)
	CanonicalJSONHandle.Canonical = true
	CanonicalJSONHandle.HTMLCharsAsIs = true
	CanonicalJSONHandle.MapType = reflect.TypeOf(map[string]interface{}(nil))
}

// EncodeReflect returns a msgpack-encoded byte buffer for a given object,
// using reflection.
func EncodeReflect(obj interface{}) []byte {
	var b []byte
	enc := codec.NewEncoderBytes(&b, CodecHandle)
	enc.MustEncode(obj)
	return b
}

// DecodeReflect attempts to decode a msgpack-encoded byte buffer
// into an object instance pointed to by objptr, using reflection.
func DecodeReflect(b []byte, objptr interface{}) error {
	dec := codec.NewDecoderBytes(b, CodecHandle)
	return dec.Decode(objptr)
}

// EncodeJSON returns a JSON-encoded byte buffer for a given object
func EncodeJSON(obj interface{}) []byte {
	var b []byte
	enc := codec.NewEncoderBytes(&b, JSONHandle)
	enc.MustEncode(obj)
	return b
}

// DecodeJSON attempts to decode a JSON-encoded byte buffer into an
// object instance pointed to by objptr
func DecodeJSON(b []byte, objptr interface{}) error {
	dec := codec.NewDecoderBytes(b, JSONHandle)
	return dec.Decode(objptr)
}

// ToGeneric converts obj into its schema-less JSON form: maps, slices,
// strings, numbers, booleans and nils.
func ToGeneric(obj interface{}) (interface{}, error) {
	var generic interface{}
	err := DecodeJSON(EncodeJSON(obj), &generic)
	if err != nil {
		return nil, fmt.Errorf("ToGeneric: %w", err)
	}
	return generic, nil
}

// EncodeCanonicalJSON renders obj as canonical JSON: keys sorted at every
// nesting level, no whitespace, HTML characters unescaped. The result does not
// depend on struct field order since obj is first lowered to its generic form.
func EncodeCanonicalJSON(obj interface{}) ([]byte, error) {
	generic, err := ToGeneric(obj)
	if err != nil {
		return nil, err
	}
	return EncodeCanonicalGeneric(generic)
}

// EncodeCanonicalGeneric is EncodeCanonicalJSON for values already in generic form.
func EncodeCanonicalGeneric(generic interface{}) (b []byte, err error) {
	enc := codec.NewEncoderBytes(&b, CanonicalJSONHandle)
	err = enc.Encode(generic)
	return
}
