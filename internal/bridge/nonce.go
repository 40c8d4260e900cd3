package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// nonceCache hands out EVM transaction nonces optimistically: the
// first request for an address fetches the pending nonce from the
// chain, later requests increment locally so back-to-back submissions
// don't race the mempool.
type nonceCache struct {
	client *ethclient.Client

	mu     sync.Mutex
	nonces map[common.Address]uint64
}

func newNonceCache(client *ethclient.Client) *nonceCache {
	return &nonceCache{
		client: client,
		nonces: make(map[common.Address]uint64),
	}
}

// Next returns the nonce to use for the address's next transaction and
// advances the local counter.
func (n *nonceCache) Next(ctx context.Context, addr common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	nonce, ok := n.nonces[addr]
	if !ok {
		// PendingNonceAt accounts for transactions already in the mempool.
		fetched, err := n.client.PendingNonceAt(ctx, addr)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch pending nonce: %w", err)
		}
		nonce = fetched
	}

	n.nonces[addr] = nonce + 1
	return nonce, nil
}

// Reset drops the cached nonce so the next call refetches from chain.
// Call after a submission error leaves the local counter suspect.
func (n *nonceCache) Reset(addr common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.nonces, addr)
}
