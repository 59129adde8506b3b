// Package genesis maintains access to the genesis settings.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
)

// Genesis represents the settings every node on the network must share.
type Genesis struct {
	Proof        uint64  `json:"proof"`         // Proof stored in the first block, the seed for the first puzzle.
	PreviousHash string  `json:"previous_hash"` // Sentinel used in place of a parent hash for the first block.
	MiningReward float64 `json:"mining_reward"` // Reward paid to the miner of every block.
}

// Default returns the genesis settings used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Proof:        100,
		PreviousHash: "1",
		MiningReward: 1,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields the file leaves out
// keep their default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if genesis.PreviousHash == "" {
		return Genesis{}, fmt.Errorf("genesis previous_hash can't be empty")
	}

	return genesis, nil
}
