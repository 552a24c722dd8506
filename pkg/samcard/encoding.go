package samcard

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	// Core Deterministic Encoding: sorted map keys, shortest integers.
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if cborDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// EncodeCBOR encodes d deterministically: equal values give equal bytes.
func EncodeCBOR(d *SecureCardData) ([]byte, error) {
	out, err := cborEnc.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("cbor encode: %w", err)
	}
	return out, nil
}

// DecodeCBOR is the inverse of EncodeCBOR.
func DecodeCBOR(data []byte) (*SecureCardData, error) {
	var d SecureCardData
	if err := cborDec.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("cbor decode: %w", err)
	}
	return &d, nil
}

// EncodeJSON encodes d with two-space indentation.
func EncodeJSON(d *SecureCardData) ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return out, nil
}
