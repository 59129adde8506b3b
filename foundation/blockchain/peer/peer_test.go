package peer_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				if !ps.Add(peer) {
					t.Fatalf("Test %s:\tShould be able to add a new peer.", tst.name)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add a known peer twice.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			if ps.Len() != len(tst.peers) {
				t.Fatalf("Test %s:\tShould count every peer once.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Parse(t *testing.T) {
	type table struct {
		name    string
		address string
		host    string
		fail    bool
	}

	tt := []table{
		{name: "url", address: "http://192.168.0.5:5000", host: "192.168.0.5:5000"},
		{name: "url-path", address: "https://node.example.com:443/chain?x=1", host: "node.example.com:443"},
		{name: "bare", address: "192.168.0.5:5000", host: "192.168.0.5:5000"},
		{name: "bare-name", address: "localhost:5001", host: "localhost:5001"},
		{name: "spaces", address: "  http://localhost:5002  ", host: "localhost:5002"},
		{name: "empty", address: "", fail: true},
		{name: "no-host", address: "http://", fail: true},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			p, err := peer.Parse(tst.address)
			if tst.fail {
				if !errors.Is(err, peer.ErrInvalidAddress) {
					t.Fatalf("Test %s:\tShould get back an invalid address error: %v", tst.name, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Test %s:\tShould be able to parse the address: %s", tst.name, err)
			}

			if p.Host != tst.host {
				t.Logf("Test %s:\tgot: %s", tst.name, p.Host)
				t.Logf("Test %s:\texp: %s", tst.name, tst.host)
				t.Fatalf("Test %s:\tShould get back the right host.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Idempotent(t *testing.T) {
	ps := peer.NewPeerSet()

	for _, address := range []string{"http://192.168.0.5:5000", "192.168.0.5:5000", "http://192.168.0.5:5000/"} {
		p, err := peer.Parse(address)
		if err != nil {
			t.Fatalf("Should be able to parse %q: %s", address, err)
		}
		ps.Add(p)
	}

	if ps.Len() != 1 {
		t.Fatalf("Should have exactly one peer, got %d.", ps.Len())
	}
}
