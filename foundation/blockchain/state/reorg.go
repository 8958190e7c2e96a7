package state

import (
	"context"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
)

// AskBlockchain replies to a peer resolving a conflict with this node's
// chain. The asker's chain is only logged.
func (s *State) AskBlockchain(ctx context.Context, asker database.ChainData) (database.ChainData, error) {
	var data database.ChainData
	err := s.query(ctx, func() {
		s.evHandler("state: AskBlockchain: asker blocks[%d]: own blocks[%d]", len(asker.Blocks), s.chain.Len())
		data = s.chain.Data()
	})

	return data, err
}

// resolveConflict polls every peer for its chain. Each reply is considered
// on the coordinator in the order it arrives.
func (s *State) resolveConflict() {
	s.evHandler("state: resolveConflict: started")

	own := s.chain.Data()

	for _, p := range s.contacts.Others(s.id) {
		s.spawn(func() {
			var data database.ChainData
			if err := s.transport.Send(s.ctx, p.Host, RouteAskBlockchain, own, &data); err != nil {
				s.evHandler("state: resolveConflict: peer[%d]: WARNING: %s", p.ID, err)
				return
			}

			s.post(func() { s.considerChain(p.ID, data) })
		})
	}
}

// considerChain adopts the peer's chain when it is valid and preferred over
// the current one.
func (s *State) considerChain(peerID int, data database.ChainData) {
	cur := s.chain.Len()
	got := len(data.Blocks)

	if !s.preferred(data) {
		s.evHandler("state: considerChain: peer[%d]: keep own: blocks[%d]: peer blocks[%d]", peerID, cur, got)
		return
	}

	if err := s.chain.ValidateCandidate(data); err != nil {
		s.evHandler("state: considerChain: peer[%d]: WARNING: invalid chain: %s", peerID, err)
		return
	}

	replaced := s.chain.Data()

	if err := s.chain.Import(data); err != nil {
		s.evHandler("state: considerChain: peer[%d]: ERROR: %s", peerID, err)
		return
	}

	s.rebuildLedger()
	s.restoreOrphans(replaced, data)

	s.evHandler("state: considerChain: peer[%d]: adopted: blocks[%d]", peerID, got)
	s.evHandler("viewer: chain: adopted: from[%d]: blocks[%d]", peerID, got)
}

// preferred reports if the peer chain wins over the current chain. Longer
// chains win. Between chains of equal length the lower head hash wins so
// every node settles on the same block, unless configured to let any
// equal length chain overwrite.
func (s *State) preferred(data database.ChainData) bool {
	cur := s.chain.Len()
	got := len(data.Blocks)

	switch {
	case got > cur:
		return true
	case got < cur || got == 0:
		return false
	case s.adoptEqualLength:
		return true
	}

	head, err := s.chain.LatestBlock()
	if err != nil {
		return false
	}

	return data.Blocks[got-1].Hash < head.Hash
}

// restoreOrphans re-applies the transactions this node executed that the
// adopted chain does not hold yet. They were already acknowledged to their
// originator and will not be delivered again.
func (s *State) restoreOrphans(replaced database.ChainData, adopted database.ChainData) {
	known := make(map[string]struct{})
	for _, block := range adopted.Blocks {
		for _, tx := range block.Trans {
			known[tx.ID] = struct{}{}
		}
	}

	for _, block := range replaced.Blocks {
		for _, tx := range block.Trans {
			if _, exists := known[tx.ID]; exists {
				continue
			}

			if err := tx.Validate(s.utxos); err != nil {
				s.evHandler("state: restoreOrphans: tx[%s]: dropped: %s", tx, err)
				continue
			}

			senderID := s.contacts.IndexOf(tx.ChangeOutput().Recipient)
			receiverID := s.contacts.IndexOf(tx.ReceiverOutput().Recipient)

			if _, err := s.applyTransaction(tx, senderID, receiverID); err != nil {
				s.evHandler("state: restoreOrphans: tx[%s]: ERROR: %s", tx, err)
				continue
			}

			s.evHandler("state: restoreOrphans: tx[%s]: restored", tx)
		}
	}
}
