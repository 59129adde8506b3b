package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

const baseURL = "http://%s"

// RegisterPeer adds the address to the set of known peers. It reports
// false when the peer was already known or is this node.
func (s *State) RegisterPeer(address string) (bool, error) {
	pr, err := peer.Parse(address)
	if err != nil {
		return false, err
	}

	if pr.Match(s.host) {
		return false, nil
	}

	added := s.knownPeers.Add(pr)
	if added {
		s.evHandler("state: RegisterPeer: added peer[%s]", pr)
	}

	return added, nil
}

// RegisterPeers adds every address to the set of known peers. No peer is
// added unless every address is valid. The number of known peers is
// returned.
func (s *State) RegisterPeers(addresses []string) (int, error) {
	peers := make([]peer.Peer, 0, len(addresses))
	for _, address := range addresses {
		pr, err := peer.Parse(address)
		if err != nil {
			return 0, err
		}
		peers = append(peers, pr)
	}

	for _, pr := range peers {
		if pr.Match(s.host) {
			continue
		}
		if s.knownPeers.Add(pr) {
			s.evHandler("state: RegisterPeers: added peer[%s]", pr)
		}
	}

	return s.knownPeers.Len(), nil
}

// Resolve queries every known peer for its chain and replaces this node's
// chain with the longest valid one, provided it is strictly longer. Peers
// that can't be reached or report an invalid chain are skipped. When a
// chain can't be stored the next longest is tried, and an error is only
// returned when none of them could be. The chain held after resolution is
// returned.
func (s *State) Resolve(ctx context.Context) (bool, []database.Block, error) {
	s.evHandler("state: Resolve: started")
	defer s.evHandler("state: Resolve: completed")

	peers := s.RetrieveKnownPeers()

	// Every peer is queried at the same time and writes only to its own
	// slot so the decision below sees the results in peer order.
	results := make([][]database.Block, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))
	for i, pr := range peers {
		i, pr := i, pr
		go func() {
			defer wg.Done()

			chain, err := s.NetRequestPeerChain(ctx, pr)
			if err != nil {
				s.evHandler("state: Resolve: peer[%s]: skipped: %s", pr, err)
				return
			}

			if err := database.ValidateChain(chain); err != nil {
				s.evHandler("state: Resolve: peer[%s]: invalid chain: %s", pr, err)
				return
			}

			results[i] = chain
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The local length is read after all peers answered since the chain
	// may have grown while waiting. Candidates are tried longest first and
	// peers reporting the same length keep their peer order.
	length := s.db.Length()

	var candidates []int
	for i, chain := range results {
		if len(chain) > length {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return len(results[candidates[a]]) > len(results[candidates[b]])
	})

	var replaceErr error
	for _, i := range candidates {
		s.evHandler("state: Resolve: candidate peer[%s] length[%d]", peers[i], len(results[i]))

		if err := s.db.Replace(results[i]); err != nil {
			s.evHandler("state: Resolve: peer[%s]: replace: %s", peers[i], err)
			replaceErr = err
			continue
		}

		s.evHandler("viewer: chain replaced length[%d]", len(results[i]))
		return true, s.db.Chain(), nil
	}

	if replaceErr != nil {
		return false, nil, fmt.Errorf("replace chain: %w", replaceErr)
	}

	return false, s.db.Chain(), nil
}

// NetRequestPeerChain asks the peer for its full chain. The chain is only
// returned when the reported length matches the blocks sent.
func (s *State) NetRequestPeerChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var pc peer.PeerChain
	if err := send(ctx, http.MethodGet, url, nil, &pc); err != nil {
		return nil, err
	}

	if pc.Length != len(pc.Chain) {
		return nil, fmt.Errorf("reported length[%d] does not match chain length[%d]", pc.Length, len(pc.Chain))
	}

	s.evHandler("state: NetRequestPeerChain: peer[%s]: length[%d]", pr, pc.Length)

	return pc.Chain, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %w", resp.StatusCode, errors.New(string(msg)))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
