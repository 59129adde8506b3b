package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func noopEv(v string, args ...any) {}

// makeChain builds a linked chain with the specified number of blocks.
func makeChain(t *testing.T, blocks int) []database.Block {
	return makeChainFrom(t, 1, blocks)
}

// makeChainFrom builds a chain linked by hash and proof whose first block
// carries the specified index.
func makeChainFrom(t *testing.T, first uint64, blocks int) []database.Block {
	t.Helper()

	chain := []database.Block{database.NewBlock(first, 100, "1", nil)}
	for i := 1; i < blocks; i++ {
		prev := chain[len(chain)-1]

		proof, err := pow.FindProof(context.Background(), prev.Proof)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to find a proof: %s", failed, err)
		}

		trans := []database.Tx{database.NewTx("A", "B", float64(i))}
		chain = append(chain, database.NewBlock(prev.Index+1, proof, prev.Hash(), trans))
	}

	return chain
}

// =============================================================================

func Test_ValidateChain(t *testing.T) {
	type table struct {
		name   string
		chain  func(t *testing.T, chain []database.Block) []database.Block
		valid  bool
		failAt uint64
	}

	tt := []table{
		{
			name:  "empty",
			chain: func(t *testing.T, chain []database.Block) []database.Block { return nil },
			valid: true,
		},
		{
			name:  "single",
			chain: func(t *testing.T, chain []database.Block) []database.Block { return chain[:1] },
			valid: true,
		},
		{
			name:  "linked",
			chain: func(t *testing.T, chain []database.Block) []database.Block { return chain },
			valid: true,
		},
		{
			name: "tampered-hash",
			chain: func(t *testing.T, chain []database.Block) []database.Block {
				chain[2].PrevHash = "bad"
				return chain
			},
			failAt: 3,
		},
		{
			name: "tampered-proof",
			chain: func(t *testing.T, chain []database.Block) []database.Block {
				chain[1].Proof++
				return chain
			},
			failAt: 2,
		},
		{
			name: "index-gap",
			chain: func(t *testing.T, chain []database.Block) []database.Block {
				chain[3].Index = 5
				return chain
			},
			failAt: 5,
		},
		{
			name: "index-offset",
			chain: func(t *testing.T, chain []database.Block) []database.Block {
				return makeChainFrom(t, 10, 4)
			},
			failAt: 10,
		},
		{
			name: "single-offset",
			chain: func(t *testing.T, chain []database.Block) []database.Block {
				return makeChainFrom(t, 10, 1)
			},
			failAt: 10,
		},
		{
			name: "tampered-transaction",
			chain: func(t *testing.T, chain []database.Block) []database.Block {
				chain[1].Transactions[0].Amount = 1000
				return chain
			},
			failAt: 3,
		},
	}

	t.Log("Given the need to validate chains.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				chain := tst.chain(t, makeChain(t, 4))

				err := database.ValidateChain(chain)
				if tst.valid {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be a valid chain: %s", failed, testID, err)
					}
					if !database.IsValidChain(chain) {
						t.Fatalf("\t%s\tTest %d:\tShould report a valid chain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be a valid chain.", success, testID)
					return
				}

				var ce *database.ChainError
				if !errors.As(err, &ce) {
					t.Fatalf("\t%s\tTest %d:\tShould get back a chain error: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get back a chain error.", success, testID)

				if ce.Index != tst.failAt {
					t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, ce.Index)
					t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.failAt)
					t.Fatalf("\t%s\tTest %d:\tShould fail at the right block.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould fail at the right block.", success, testID)

				if database.IsValidChain(chain) {
					t.Fatalf("\t%s\tTest %d:\tShould report an invalid chain.", failed, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_BlockHash(t *testing.T) {
	block := database.NewBlock(2, 35293, "abc", []database.Tx{database.NewTx("A", "B", 10)})

	cpy := block
	cpy.Transactions = []database.Tx{{Amount: 10, Recipient: "B", Sender: "A"}}

	if block.Hash() != cpy.Hash() {
		t.Fatalf("\t%s\tShould get the same hash for the same content.", failed)
	}
	t.Logf("\t%s\tShould get the same hash for the same content.", success)

	cpy.Transactions[0].Amount = 11
	if block.Hash() == cpy.Hash() {
		t.Fatalf("\t%s\tShould get a different hash for different content.", failed)
	}
	t.Logf("\t%s\tShould get a different hash for different content.", success)
}

func Test_Database(t *testing.T) {
	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %s", failed, err)
	}

	chain := makeChain(t, 3)
	for _, block := range chain[:2] {
		if err := strg.Write(block); err != nil {
			t.Fatalf("\t%s\tShould be able to seed storage: %s", failed, err)
		}
	}

	t.Log("Given the need to manage a chain of blocks.")
	{
		db, err := database.New(strg, noopEv)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the chain from storage: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the chain from storage.", success)

		if db.Length() != 2 {
			t.Fatalf("\t%s\tShould have 2 blocks, got %d.", failed, db.Length())
		}

		if err := db.Write(chain[0]); !errors.Is(err, database.ErrOutOfOrder) {
			t.Fatalf("\t%s\tShould not be able to write a block out of order: %v", failed, err)
		}
		t.Logf("\t%s\tShould not be able to write a block out of order.", success)

		if err := db.Write(chain[2]); err != nil {
			t.Fatalf("\t%s\tShould be able to write the next block: %s", failed, err)
		}
		if db.LatestBlock().Hash() != chain[2].Hash() {
			t.Fatalf("\t%s\tShould have the new block as the latest block.", failed)
		}
		t.Logf("\t%s\tShould be able to write the next block.", success)

		longer := makeChain(t, 5)
		if err := db.Replace(longer); err != nil {
			t.Fatalf("\t%s\tShould be able to replace the chain: %s", failed, err)
		}
		if db.Length() != 5 {
			t.Fatalf("\t%s\tShould have 5 blocks after replace, got %d.", failed, db.Length())
		}
		t.Logf("\t%s\tShould be able to replace the chain.", success)

		stored, err := strg.GetBlock(5)
		if err != nil || stored.Hash() != longer[4].Hash() {
			t.Fatalf("\t%s\tShould have the new chain in storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould have the new chain in storage.", success)

		cpy := db.Chain()
		cpy[0].Proof = 1
		if first, _ := db.GetBlock(1); first.Proof != 100 {
			t.Fatalf("\t%s\tShould not be able to change the chain through a copy.", failed)
		}
		t.Logf("\t%s\tShould not be able to change the chain through a copy.", success)
	}
}

// replacerStorage records the chains swapped in through Replace and can be
// told to reject them.
type replacerStorage struct {
	*memory.Memory
	replaced int
	fail     error
}

func (rs *replacerStorage) Replace(chain []database.Block) error {
	if rs.fail != nil {
		return rs.fail
	}
	rs.replaced++

	if err := rs.Memory.Reset(); err != nil {
		return err
	}
	for _, block := range chain {
		if err := rs.Memory.Write(block); err != nil {
			return err
		}
	}

	return nil
}

func (rs *replacerStorage) Reset() error {
	return errors.New("reset should not be called on a replacer")
}

func Test_DatabaseReplacer(t *testing.T) {
	mem, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %s", failed, err)
	}
	strg := replacerStorage{Memory: mem}

	t.Log("Given the need to swap a chain in storage that replaces atomically.")
	{
		db, err := database.New(&strg, noopEv)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the database: %s", failed, err)
		}
		if err := db.Write(database.NewBlock(1, 100, "1", nil)); err != nil {
			t.Fatalf("\t%s\tShould be able to write the genesis block: %s", failed, err)
		}

		longer := makeChain(t, 3)
		if err := db.Replace(longer); err != nil {
			t.Fatalf("\t%s\tShould be able to replace the chain: %s", failed, err)
		}
		if strg.replaced != 1 || db.Length() != 3 {
			t.Fatalf("\t%s\tShould replace through the storage, got calls %d length %d.", failed, strg.replaced, db.Length())
		}
		t.Logf("\t%s\tShould replace through the storage.", success)

		strg.fail = errors.New("commit failed")
		if err := db.Replace(makeChain(t, 4)); !errors.Is(err, strg.fail) {
			t.Fatalf("\t%s\tShould get back the storage error: %v", failed, err)
		}
		if db.Length() != 3 || db.LatestBlock().Hash() != longer[2].Hash() {
			t.Fatalf("\t%s\tShould keep the chain when storage rejects the replace, got length %d.", failed, db.Length())
		}
		t.Logf("\t%s\tShould keep the chain when storage rejects the replace.", success)
	}
}

func Test_DatabaseInvalidStorage(t *testing.T) {
	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %s", failed, err)
	}

	chain := makeChain(t, 3)
	chain[2].PrevHash = "bad"
	for _, block := range chain {
		if err := strg.Write(block); err != nil {
			t.Fatalf("\t%s\tShould be able to seed storage: %s", failed, err)
		}
	}

	if _, err := database.New(strg, noopEv); !database.IsChainError(err) {
		t.Fatalf("\t%s\tShould not load a broken chain from storage: %v", failed, err)
	}
	t.Logf("\t%s\tShould not load a broken chain from storage.", success)
}
