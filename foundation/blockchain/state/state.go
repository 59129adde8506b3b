// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// defaultPeerTimeout is used when the configuration doesn't provide a
// timeout for querying a single peer.
const defaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background operations like periodic
// consensus.
type Worker interface {
	Shutdown()
	SignalResolve()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID      string
	Host        string
	Storage     database.Storage
	Genesis     genesis.Genesis
	KnownPeers  *peer.PeerSet
	PeerTimeout time.Duration
	EvHandler   EventHandler
}

// State manages the blockchain database.
type State struct {
	nodeID      string
	host        string
	peerTimeout time.Duration
	evHandler   EventHandler

	// mu guards the chain and the mempool as one unit. The chain is only
	// changed with mu held for writing.
	mu sync.RWMutex

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	db         *database.Database

	shut     context.Context
	shutdown context.CancelFunc
	shutOnce sync.Once

	Worker Worker
}

// New constructs a new blockchain for data management. The chain is
// loaded from storage and the genesis block is written if storage is empty.
func New(cfg Config) (*State, error) {
	if cfg.NodeID == "" {
		return nil, errors.New("node id is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = defaultPeerTimeout
	}

	gen := cfg.Genesis
	if gen.PreviousHash == "" {
		gen = genesis.Default()
	}

	// Load and validate the chain that exists in storage.
	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, fmt.Errorf("loading chain: %w", err)
	}

	shut, shutdown := context.WithCancel(context.Background())

	state := State{
		nodeID:      cfg.NodeID,
		host:        cfg.Host,
		peerTimeout: peerTimeout,
		evHandler:   ev,

		knownPeers: knownPeers,
		genesis:    gen,
		mempool:    mempool.New(),
		db:         db,

		shut:     shut,
		shutdown: shutdown,
	}

	// A new chain starts with the genesis block.
	if db.Length() == 0 {
		block := state.newBlock(gen.Proof, gen.PreviousHash, nil)
		if err := db.Write(block); err != nil {
			shutdown()
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}
		ev("state: New: genesis: %s", block)
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down. Any mining in progress is
// cancelled. Only the first call does any work.
func (s *State) Shutdown() error {
	var err error
	s.shutOnce.Do(func() {
		s.evHandler("state: shutdown: started")
		defer s.evHandler("state: shutdown: completed")

		// Cancel any work that is using the shutdown context.
		s.shutdown()

		// Stop all background activity.
		if s.Worker != nil {
			s.Worker.Shutdown()
		}

		// Make sure the storage is properly closed.
		err = s.db.Close()
	})

	return err
}

// SignalResolve asks the worker to run consensus in the background. It
// does nothing when no worker is running.
func (s *State) SignalResolve() {
	if s.Worker != nil {
		s.Worker.SignalResolve()
	}
}

// ShutdownContext returns a context that is cancelled when the node
// shuts down.
func (s *State) ShutdownContext() context.Context {
	return s.shut
}

// =============================================================================

// newBlock constructs the next block for the chain using the specified
// transactions. When previousHash is empty the hash of the latest block
// is used.
func (s *State) newBlock(proof uint64, previousHash string, trans []database.Tx) database.Block {
	if previousHash == "" {
		previousHash = s.db.LatestBlock().Hash()
	}

	return database.NewBlock(uint64(s.db.Length()+1), proof, previousHash, trans)
}
