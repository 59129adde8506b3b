package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
)

// errChainMoved is used internally when the tip of the chain changed while
// a proof was being searched for.
var errChainMoved = errors.New("chain moved while mining")

// MineNewBlock finds the proof for the next block, rewards this node and
// forges the block with every pending transaction. The search stops when
// the context is cancelled or the node is shutting down.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: started")
	defer s.evHandler("state: MineNewBlock: completed")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(s.shut, cancel)
	defer stop()

	for {
		latest := s.RetrieveLatestBlock()

		s.evHandler("state: MineNewBlock: MINING: find proof: prior[%d]", latest.Proof)

		// The proof search runs without holding the lock so submissions and
		// reads are served while mining.
		proof, err := pow.FindProof(ctx, latest.Proof)
		if err != nil {
			s.evHandler("state: MineNewBlock: MINING: CANCELLED")
			return database.Block{}, err
		}

		s.evHandler("state: MineNewBlock: MINING: SOLVED: proof[%d]", proof)

		block, err := s.forgeBlock(latest, proof)
		if err != nil {
			if errors.Is(err, errChainMoved) {
				s.evHandler("state: MineNewBlock: MINING: tip moved, restarting")
				continue
			}
			return database.Block{}, err
		}

		s.evHandler("viewer: block[%d] mined proof[%d] trans[%d]", block.Index, block.Proof, len(block.Transactions))

		return block, nil
	}
}

// forgeBlock appends the reward, drains the mempool and writes the new
// block, provided the chain still ends with the block the proof was found
// for.
func (s *State) forgeBlock(latest database.Block, proof uint64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.db.LatestBlock()
	if tip.Index != latest.Index || tip.Proof != latest.Proof || tip.PrevHash != latest.PrevHash {
		return database.Block{}, errChainMoved
	}

	pending := s.mempool.Drain()

	trans := make([]database.Tx, 0, len(pending)+1)
	trans = append(trans, pending...)
	trans = append(trans, database.NewRewardTx(s.nodeID, s.genesis.MiningReward))

	block := s.newBlock(proof, tip.Hash(), trans)

	if err := s.db.Write(block); err != nil {

		// Put the transactions back so they are not lost.
		for _, tx := range pending {
			s.mempool.Append(tx)
		}
		return database.Block{}, fmt.Errorf("write block: %w", err)
	}

	s.evHandler("state: MineNewBlock: wrote %s", block)

	return block, nil
}
