package database

import (
	"errors"
	"fmt"
)

// ChainError is returned when a chain fails validation. Index is the index
// field of the first block that does not link to its parent.
type ChainError struct {
	Index uint64
	Err   error
}

// Error implements the error interface.
func (ce *ChainError) Error() string {
	return fmt.Sprintf("block %d: %s", ce.Index, ce.Err)
}

// Unwrap returns the underlying validation failure.
func (ce *ChainError) Unwrap() error {
	return ce.Err
}

// IsChainError checks if an error of type ChainError exists.
func IsChainError(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce)
}

// =============================================================================

// ValidateChain walks the chain from the second block on and checks every
// block links to its parent by index, hash and proof. A chain must start at
// index 1. Empty chains are valid.
func ValidateChain(chain []Block) error {
	if len(chain) > 0 && chain[0].Index != 1 {
		return &ChainError{Index: chain[0].Index, Err: ErrOutOfOrder}
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i-1].ValidateNext(chain[i]); err != nil {
			return &ChainError{Index: chain[i].Index, Err: err}
		}
	}

	return nil
}

// IsValidChain is the boolean form of ValidateChain.
func IsValidChain(chain []Block) bool {
	return ValidateChain(chain) == nil
}
