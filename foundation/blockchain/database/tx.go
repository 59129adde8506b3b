package database

import (
	"fmt"
)

// RewardSender is the sender used for the transaction that pays a miner
// for a new block.
const RewardSender = "0"

// =============================================================================

// Tx is the transactional information between two parties. The sender and
// recipient are opaque identifiers.
type Tx struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount float64) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// NewRewardTx constructs the transaction that pays the miner of a block.
func NewRewardTx(recipient string, amount float64) Tx {
	return NewTx(RewardSender, recipient, amount)
}

// IsReward reports whether this transaction pays a miner.
func (tx Tx) IsReward() bool {
	return tx.Sender == RewardSender
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v", tx.Sender, tx.Recipient, tx.Amount)
}
