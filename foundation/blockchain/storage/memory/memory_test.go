package memory_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_CRUD(t *testing.T) {
	m, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct memory storage: %s", failed, err)
	}
	defer m.Close()

	t.Log("Given the need to store blocks in memory.")
	{
		for i := uint64(1); i <= 3; i++ {
			block := database.NewBlock(i, i*10, "prev", []database.Tx{database.NewTx("A", "B", float64(i))})
			if err := m.Write(block); err != nil {
				t.Fatalf("\t%s\tShould be able to write block %d: %s", failed, i, err)
			}
		}
		t.Logf("\t%s\tShould be able to write blocks in order.", success)

		if err := m.Write(database.NewBlock(5, 0, "prev", nil)); !errors.Is(err, database.ErrOutOfOrder) {
			t.Fatalf("\t%s\tShould not be able to write a block out of order: %v", failed, err)
		}
		t.Logf("\t%s\tShould not be able to write a block out of order.", success)

		block, err := m.GetBlock(2)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to get block 2: %s", failed, err)
		}
		if block.Index != 2 || block.Proof != 20 {
			t.Logf("\t%s\tgot: %s", failed, block)
			t.Fatalf("\t%s\tShould get back the right block.", failed)
		}
		t.Logf("\t%s\tShould get back the right block.", success)

		if _, err := m.GetBlock(0); err == nil {
			t.Fatalf("\t%s\tShould not be able to get block 0.", failed)
		}
		t.Logf("\t%s\tShould not be able to get block 0.", success)

		var count int
		iter := m.ForEach()
		for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
			if err != nil {
				t.Fatalf("\t%s\tShould be able to iterate: %s", failed, err)
			}
			count++
			if block.Index != uint64(count) {
				t.Fatalf("\t%s\tShould iterate in order, got %d exp %d.", failed, block.Index, count)
			}
		}
		if count != 3 {
			t.Fatalf("\t%s\tShould iterate over 3 blocks, got %d.", failed, count)
		}
		t.Logf("\t%s\tShould iterate over all blocks in order.", success)

		if err := m.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset: %s", failed, err)
		}
		if _, err := m.GetBlock(1); err == nil {
			t.Fatalf("\t%s\tShould have no blocks after reset.", failed)
		}
		t.Logf("\t%s\tShould have no blocks after reset.", success)
	}
}
