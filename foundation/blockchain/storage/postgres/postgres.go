// Package postgres implements the ability to read and write blocks to a
// Postgres database with each block stored as a row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sysdb "github.com/ardanlabs/powchain/business/sys/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// queryTimeout is the time any single statement is given to complete.
const queryTimeout = 5 * time.Second

// Postgres represents the serialization implementation for reading and
// storing blocks in Postgres. This implements the database.Storage interface.
type Postgres struct {
	db *sql.DB
}

// New constructs a Postgres value for use and makes sure the schema exists.
func New(db *sql.DB) (*Postgres, error) {
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}

	return &Postgres{db: db}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Write takes the specified database block and stores it as the next row.
// The insert only happens when the block is the next index in the table.
func (p *Postgres) Write(block database.Block) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return insertBlock(ctx, p.db, block)
}

// Replace swaps every row in the table for the specified chain inside one
// transaction. The table is left as it was when any block can't be stored.
func (p *Postgres) Replace(chain []database.Block) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transaction begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return sysdb.CastError(err)
	}

	for _, block := range chain {
		if err := insertBlock(ctx, tx, block); err != nil {
			return fmt.Errorf("write blk[%d]: %w", block.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit: %w", err)
	}

	return nil
}

// GetBlock locates and returns the contents of the specified block by index.
func (p *Postgres) GetBlock(num uint64) (database.Block, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const q = `
	SELECT block_index, previous_hash, proof, block_time, transactions
	FROM blocks
	WHERE block_index = $1`

	var (
		index int64
		proof int64
		trans string
		block database.Block
	)

	row := p.db.QueryRowContext(ctx, q, int64(num))
	if err := row.Scan(&index, &block.PrevHash, &proof, &block.TimeStamp, &trans); err != nil {
		return database.Block{}, sysdb.CastError(err)
	}

	if err := json.Unmarshal([]byte(trans), &block.Transactions); err != nil {
		return database.Block{}, fmt.Errorf("decode transactions: %w", err)
	}

	block.Index = uint64(index)
	block.Proof = uint64(proof)
	if block.Transactions == nil {
		block.Transactions = []database.Tx{}
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block index 1.
func (p *Postgres) ForEach() database.Iterator {
	return &postgresIterator{storage: p}
}

// Reset removes every block from the table.
func (p *Postgres) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := p.db.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return sysdb.CastError(err)
	}

	return nil
}

// =============================================================================

// postgresIterator represents the iteration implementation for walking
// through and reading blocks from the table. This implements the database
// Iterator interface.
type postgresIterator struct {
	storage *Postgres // Access to the storage API.
	current uint64    // Current block index being iterated over.
	eoc     bool      // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the table.
func (pi *postgresIterator) Next() (database.Block, error) {
	if pi.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	pi.current++
	block, err := pi.storage.GetBlock(pi.current)
	if errors.Is(err, sysdb.ErrNotFound) {
		pi.eoc = true
	}

	return block, err
}

// Done returns the end of chain value.
func (pi *postgresIterator) Done() bool {
	return pi.eoc
}

// =============================================================================

// execer is the part of sql.DB and sql.Tx used to insert blocks.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertBlock stores the block as the next row. Zero rows are inserted
// when the block doesn't follow the highest index in the table.
func insertBlock(ctx context.Context, ex execer, block database.Block) error {
	trans, err := json.Marshal(block.Transactions)
	if err != nil {
		return err
	}

	const q = `
	INSERT INTO blocks (block_index, block_hash, previous_hash, proof, block_time, transactions)
	SELECT $1::BIGINT, $2::TEXT, $3::TEXT, $4::BIGINT, $5::DOUBLE PRECISION, $6::JSONB
	WHERE (SELECT COALESCE(MAX(block_index), 0) FROM blocks) = $1::BIGINT - 1`

	res, err := ex.ExecContext(ctx, q, int64(block.Index), block.Hash(), block.PrevHash, int64(block.Proof), block.TimeStamp, string(trans))
	if err != nil {
		err = sysdb.CastError(err)
		if errors.Is(err, sysdb.ErrConflict) {
			return fmt.Errorf("%w: %s", database.ErrOutOfOrder, err)
		}
		return fmt.Errorf("insert block: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrOutOfOrder
	}

	return nil
}

// =============================================================================

// EnsureSchema creates the tables the storage needs when they don't exist.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transaction begin: %w", err)
	}
	defer tx.Rollback()

	for _, query := range strings.Split(schema, "\n---\n") {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("query error: %w: %q", err, query)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit: %w", err)
	}

	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	block_index BIGINT NOT NULL PRIMARY KEY,
	block_hash TEXT NOT NULL,
	previous_hash TEXT NOT NULL,
	proof BIGINT NOT NULL,
	block_time DOUBLE PRECISION NOT NULL,
	transactions JSONB NOT NULL
);
---
CREATE INDEX IF NOT EXISTS blocks_hash_idx ON blocks (block_hash);
`
