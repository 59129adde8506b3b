// Package pow implements the proof of work puzzle used to mine blocks.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Difficulty represents the number of leading 0's the puzzle hash needs.
const Difficulty = 4

// checkEvery is how many attempts run between checks for cancellation.
const checkEvery = 1024

// =============================================================================

// ValidProof reports whether the candidate solves the puzzle for the prior
// proof. The puzzle is solved when the hex hash of the two numbers written
// back to back starts with Difficulty 0's.
func ValidProof(prior uint64, candidate uint64) bool {
	buf := make([]byte, 0, 40)
	buf = strconv.AppendUint(buf, prior, 10)
	buf = strconv.AppendUint(buf, candidate, 10)

	hash := sha256.Sum256(buf)
	return isHashSolved(Difficulty, hex.EncodeToString(hash[:]))
}

// FindProof searches for the smallest proof that solves the puzzle for the
// prior proof. The search can be cancelled through the context.
func FindProof(ctx context.Context, prior uint64) (uint64, error) {
	var candidate uint64
	for {
		if candidate%checkEvery == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if ValidProof(prior, candidate) {
			return candidate, nil
		}

		candidate++
	}
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	const match = "00000000000000000"

	if len(hash) != 64 {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
