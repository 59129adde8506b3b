package state

import (
	"errors"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ErrInvalidTransaction is returned when a submitted transaction is missing
// one of its required fields.
var ErrInvalidTransaction = errors.New("invalid transaction")

// SubmitTransaction accepts a transaction for inclusion in the next mined
// block. The index of the block the transaction is expected to land in is
// returned.
func (s *State) SubmitTransaction(tx database.Tx) (uint64, error) {
	if tx.Sender == "" || tx.Recipient == "" {
		return 0, ErrInvalidTransaction
	}

	// The pending block index is computed under the same lock the miner
	// holds while draining, so the answer can't skip a block.
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.mempool.Append(tx)
	index := uint64(s.db.Length() + 1)

	s.evHandler("state: SubmitTransaction: tx[%s] pending[%d] blk[%d]", tx, n, index)

	return index, nil
}

// RetrieveMempool returns a copy of the pending transactions in the order
// they were submitted.
func (s *State) RetrieveMempool() []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Copy()
}

// QueryMempoolLength returns the number of pending transactions.
func (s *State) QueryMempoolLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Count()
}
