package public

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// newTx is the transaction submitted by a client. Amount is a pointer so
// a zero amount can be told apart from a missing one.
type newTx struct {
	Sender    string   `json:"sender" validate:"required"`
	Recipient string   `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required"`
}

func (n newTx) toTx() database.Tx {
	return database.NewTx(n.Sender, n.Recipient, *n.Amount)
}

type newNodes struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
}

type message struct {
	Message string `json:"message"`
}

type minedBlock struct {
	Message      string        `json:"message"`
	Index        uint64        `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        uint64        `json:"proof"`
	PrevHash     string        `json:"previous_hash"`
}

type nodes struct {
	Message    string   `json:"message,omitempty"`
	TotalNodes []string `json:"total_nodes"`
}

type resolved struct {
	Message  string           `json:"message"`
	NewChain []database.Block `json:"new_chain,omitempty"`
	Chain    []database.Block `json:"chain,omitempty"`
}

func toHosts(peers []peer.Peer) []string {
	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}
	return hosts
}
