// Package signature provides helper functions for handling the blockchain
// hashing needs.
package signature

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Hash returns a unique string for the value. The value is hashed over its
// canonical JSON encoding so any two nodes agree on the hash of the same
// content, no matter the order the fields were produced in.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Canonical returns the JSON encoding of the value with the keys of every
// object sorted. Numbers are carried through untouched.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// CORE NOTE: Decoding into generic maps and encoding again gives us the
	// key sorting for free since encoding/json writes map keys in sorted
	// order. UseNumber keeps 1 from turning into 1.0e+00 on the way back.

	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var generic any
	if err := d.Decode(&generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
