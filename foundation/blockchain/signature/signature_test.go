package signature_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	value := struct {
		Name string `json:"name"`
	}{
		Name: "Bill",
	}

	// sha256 of {"name":"Bill"}
	const hash = "7de0701e03cd8189be810d048e5de6a9229e3b268608f8c396745e754c9bdbcf"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("\t%s\tgot: %s", failed, h)
		t.Logf("\t%s\texp: %s", failed, hash)
		t.Fatalf("\t%s\tShould get back the right hash.", failed)
	}
	t.Logf("\t%s\tShould get back the right hash: %s", success, h[:6])

	h = signature.Hash(value)
	if h != hash {
		t.Logf("\t%s\tgot: %s", failed, h)
		t.Logf("\t%s\texp: %s", failed, hash)
		t.Fatalf("\t%s\tShould get back the same hash twice.", failed)
	}
	t.Logf("\t%s\tShould get back the same hash twice.", success)
}

func Test_HashFieldOrder(t *testing.T) {
	type table struct {
		name string
		a    any
		b    any
	}

	tt := []table{
		{
			name: "struct",
			a: struct {
				Index  uint64 `json:"index"`
				Proof  uint64 `json:"proof"`
				Sender string `json:"sender"`
			}{1, 100, "A"},
			b: struct {
				Sender string `json:"sender"`
				Proof  uint64 `json:"proof"`
				Index  uint64 `json:"index"`
			}{"A", 100, 1},
		},
		{
			name: "nested",
			a: map[string]any{
				"index":        1,
				"transactions": []any{map[string]any{"sender": "A", "recipient": "B", "amount": 10}},
			},
			b: struct {
				Transactions []struct {
					Amount    int    `json:"amount"`
					Recipient string `json:"recipient"`
					Sender    string `json:"sender"`
				} `json:"transactions"`
				Index int `json:"index"`
			}{
				Transactions: []struct {
					Amount    int    `json:"amount"`
					Recipient string `json:"recipient"`
					Sender    string `json:"sender"`
				}{{10, "B", "A"}},
				Index: 1,
			},
		},
	}

	t.Log("Given the need to hash values independent of field order.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				ha := signature.Hash(tst.a)
				hb := signature.Hash(tst.b)

				if ha != hb {
					t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, hb)
					t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, ha)
					t.Fatalf("\t%s\tTest %d:\tShould get the same hash.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the same hash.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Canonical(t *testing.T) {
	value := map[string]any{
		"b": 2,
		"a": []any{map[string]any{"z": 1.5, "y": "x"}},
	}

	data, err := signature.Canonical(value)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to encode the value: %s", failed, err)
	}

	const exp = `{"a":[{"y":"x","z":1.5}],"b":2}`
	if string(data) != exp {
		t.Logf("\t%s\tgot: %s", failed, data)
		t.Logf("\t%s\texp: %s", failed, exp)
		t.Fatalf("\t%s\tShould get keys back in sorted order.", failed)
	}
	t.Logf("\t%s\tShould get keys back in sorted order.", success)
}
