package pow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_ValidProof(t *testing.T) {
	type table struct {
		name      string
		prior     uint64
		candidate uint64
		valid     bool
	}

	tt := []table{
		{name: "solved", prior: 100, candidate: 35293, valid: true},
		{name: "one-short", prior: 100, candidate: 35292, valid: false},
		{name: "chained", prior: 35293, candidate: 35089, valid: true},
		{name: "zero", prior: 0, candidate: 0, valid: false},
	}

	t.Log("Given the need to validate proofs.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := pow.ValidProof(tst.prior, tst.candidate)
				if got != tst.valid {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.valid)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right answer for %d%d.", failed, testID, tst.prior, tst.candidate)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right answer for %d%d.", success, testID, tst.prior, tst.candidate)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_FindProof(t *testing.T) {
	type table struct {
		name  string
		prior uint64
		proof uint64
	}

	tt := []table{
		{name: "genesis", prior: 100, proof: 35293},
		{name: "second", prior: 35293, proof: 35089},
		{name: "zero", prior: 0, proof: 69732},
		{name: "one", prior: 1, proof: 72608},
	}

	t.Log("Given the need to find the smallest proof.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				proof, err := pow.FindProof(context.Background(), tst.prior)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to find a proof: %s", failed, testID, err)
				}

				if proof != tst.proof {
					t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, proof)
					t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.proof)
					t.Fatalf("\t%s\tTest %d:\tShould get back the smallest proof.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the smallest proof.", success, testID)

				for q := uint64(0); q < proof; q++ {
					if pow.ValidProof(tst.prior, q) {
						t.Fatalf("\t%s\tTest %d:\tShould not have a smaller valid proof: %d", failed, testID, q)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould not have a smaller valid proof.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_FindProofCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pow.FindProof(ctx, 100); !errors.Is(err, context.Canceled) {
		t.Fatalf("\t%s\tShould get back a cancelled error: %v", failed, err)
	}
	t.Logf("\t%s\tShould get back a cancelled error.", success)
}
