package database

import (
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together. The json
// names are part of the peer protocol since every node hashes the
// canonical form of these fields.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain starting at 1.
	TimeStamp    float64 `json:"timestamp"`     // Unix seconds the block was created. Not validated.
	Transactions []Tx    `json:"transactions"`  // Transactions pending when the block was mined.
	Proof        uint64  `json:"proof"`         // Solution to the puzzle using the previous block's proof.
	PrevHash     string  `json:"previous_hash"` // Hash of the previous block or the genesis sentinel.
}

// NewBlock constructs a block at the specified index. The transactions
// slice is owned by the block after this call.
func NewBlock(index uint64, proof uint64, prevHash string, trans []Tx) Block {
	if trans == nil {
		trans = []Tx{}
	}

	return Block{
		Index:        index,
		TimeStamp:    float64(time.Now().UTC().UnixMicro()) / 1e6,
		Transactions: trans,
		Proof:        proof,
		PrevHash:     prevHash,
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return signature.Hash(b)
}

// ValidateNext checks that next can follow this block in a chain.
func (b Block) ValidateNext(next Block) error {
	if next.Index != b.Index+1 {
		return fmt.Errorf("index %d does not follow parent index %d: %w", next.Index, b.Index, ErrOutOfOrder)
	}

	if hash := b.Hash(); next.PrevHash != hash {
		return fmt.Errorf("previous hash doesn't match parent block, got %s, exp %s", next.PrevHash, hash)
	}

	if !pow.ValidProof(b.Proof, next.Proof) {
		return fmt.Errorf("proof %d does not solve the puzzle for parent proof %d", next.Proof, b.Proof)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d] proof[%d] trans[%d]", b.Index, b.Proof, len(b.Transactions))
}
