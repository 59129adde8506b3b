// Package database handles all the lower level support for maintaining the
// blockchain in memory and keeping a copy in the configured storage.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfOrder is returned when a block is written that is not the next
// block for the chain.
var ErrOutOfOrder = errors.New("block is out of order")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Replacer is implemented by storage that can swap the whole chain in one
// atomic step. Database.Replace uses it when the storage provides it.
type Replacer interface {
	Replace(chain []Block) error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks and keeps storage in step with it.
type Database struct {
	mu      sync.RWMutex
	chain   []Block
	storage Storage
}

// New constructs a new database and reads the existing blockchain from
// storage. The chain read from storage must validate.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	var chain []Block

	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", len(chain)+1, err)
		}

		if block.Index != uint64(len(chain)+1) {
			return nil, fmt.Errorf("reading block %d: %w", block.Index, ErrOutOfOrder)
		}

		if len(chain) > 0 {
			evHandler("database: New: validate: blk[%d]", block.Index)
			if err := chain[len(chain)-1].ValidateNext(block); err != nil {
				return nil, &ChainError{Index: block.Index, Err: err}
			}
		}

		chain = append(chain, block)
	}

	evHandler("database: New: loaded blocks[%d]", len(chain))

	db := Database{
		chain:   chain,
		storage: storage,
	}

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Write adds the next block to the chain. The block is only added in
// memory once storage accepted it.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if block.Index != uint64(len(db.chain)+1) {
		return fmt.Errorf("write blk[%d], chain length[%d]: %w", block.Index, len(db.chain), ErrOutOfOrder)
	}

	if err := db.storage.Write(block); err != nil {
		return fmt.Errorf("write blk[%d]: %w", block.Index, err)
	}

	db.chain = append(db.chain, block)

	return nil
}

// Replace swaps the entire chain for the one provided. Storage that
// implements Replacer swaps the chain itself. Otherwise storage is reset and
// rewritten, and if the new chain can't be stored the previous chain is
// written back. Either way the database is left as it was on failure.
func (db *Database) Replace(chain []Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if rp, ok := db.storage.(Replacer); ok {
		if err := rp.Replace(chain); err != nil {
			return fmt.Errorf("replace: %w", err)
		}

		db.chain = append([]Block(nil), chain...)
		return nil
	}

	if err := db.rewrite(chain); err != nil {
		if rbErr := db.rewrite(db.chain); rbErr != nil {
			return fmt.Errorf("replace: %w: restore: %s", err, rbErr)
		}
		return fmt.Errorf("replace: %w", err)
	}

	db.chain = append([]Block(nil), chain...)

	return nil
}

// Chain returns a copy of the chain.
func (db *Database) Chain() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]Block(nil), db.chain...)
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.chain)
}

// LatestBlock returns the latest block. The zero block is returned for an
// empty chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.chain) == 0 {
		return Block{}
	}

	return db.chain[len(db.chain)-1]
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num == 0 || num > uint64(len(db.chain)) {
		return Block{}, fmt.Errorf("block %d does not exist", num)
	}

	return db.chain[num-1], nil
}

// =============================================================================

// rewrite resets storage and writes the chain from the first block.
func (db *Database) rewrite(chain []Block) error {
	if err := db.storage.Reset(); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}

	for _, block := range chain {
		if err := db.storage.Write(block); err != nil {
			return fmt.Errorf("write blk[%d]: %w", block.Index, err)
		}
	}

	return nil
}
