package state

import (
	"context"
	"fmt"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
	"golang.org/x/sync/errgroup"
)

// RegisterSelf announces this node to the bootstrap node. It is called
// repeatedly by the worker until it succeeds.
func (s *State) RegisterSelf(ctx context.Context) error {
	req := RegisterRequest{
		ID:      s.id,
		Contact: peer.New(s.host, s.wallet.PublicKey),
	}

	if err := s.transport.Send(ctx, s.bootstrapHost, RouteRegister, req, nil); err != nil {
		return fmt.Errorf("register with bootstrap %s: %w", s.bootstrapHost, err)
	}

	return nil
}

// RegisterNode records the contact of a node announcing itself. Once every
// node has registered the bootstrap node distributes the contacts and the
// chain, then hands every node its starting coins.
func (s *State) RegisterNode(req RegisterRequest) {
	s.post(func() {
		added, err := s.contacts.Set(req.ID, req.Contact)
		if err != nil {
			s.evHandler("state: RegisterNode: WARNING: %s", err)
			return
		}

		registered := s.contacts.Registered()
		s.evHandler("state: RegisterNode: node[%d]: host[%s]: new[%t]: registered[%d/%d]", req.ID, req.Contact.Host, added, registered, s.nodes)

		if registered == s.nodes && !s.distributed {
			s.distributed = true
			s.distribute()
		}
	})
}

// distribute sends every node the full contact list followed by the chain.
func (s *State) distribute() {
	contacts := s.contacts.Copy()
	chain := s.chain.Data()
	peers := s.contacts.Others(s.id)

	s.spawn(func() {
		s.evHandler("state: distribute: started: peers[%d]", len(peers))
		defer s.evHandler("state: distribute: completed")

		var g errgroup.Group
		for _, p := range peers {
			g.Go(func() error {
				if err := s.transport.Send(s.ctx, p.Host, RouteContacts, contacts, nil); err != nil {
					s.evHandler("state: distribute: contacts: peer[%d]: WARNING: %s", p.ID, err)
				}
				if err := s.transport.Send(s.ctx, p.Host, RouteBlockchain, chain, nil); err != nil {
					s.evHandler("state: distribute: blockchain: peer[%d]: WARNING: %s", p.ID, err)
				}
				return nil
			})
		}
		g.Wait()

		s.post(func() {
			for _, p := range peers {
				s.toCreate = append(s.toCreate, Spend{To: p.ID, Amount: s.genesis.CoinsPerNode})
			}
			s.funded = true
			s.measure.start(now())

			if !s.roundOpen {
				s.createNextTransaction()
			}
		})
	})
}

// ReceiveContacts replaces the contact registry with the list distributed
// by the bootstrap node.
func (s *State) ReceiveContacts(contacts []peer.Contact) {
	s.post(func() {
		s.contacts.Replace(contacts)
		s.nodes = len(contacts)

		var outputs []database.TxOutput
		for _, contact := range contacts {
			outputs = append(outputs, contact.UTXO...)
		}
		s.utxos.Reset(outputs)

		if s.contacts.IndexOf(s.wallet.PublicKey) != s.id {
			s.evHandler("state: ReceiveContacts: WARNING: own contact is not at id %d", s.id)
		}

		s.evHandler("state: ReceiveContacts: nodes[%d]", s.nodes)
	})
}

// ReceiveBlockchain imports the chain distributed by the bootstrap node.
// The import only happens when this node's current chain validates.
func (s *State) ReceiveBlockchain(data database.ChainData) {
	s.post(func() {
		if s.chain.Len() > 0 {
			if err := s.chain.Validate(); err != nil {
				s.evHandler("state: ReceiveBlockchain: WARNING: current chain invalid, discarded: %s", err)
				return
			}
		}

		if err := s.chain.ValidateCandidate(data); err != nil {
			s.evHandler("state: ReceiveBlockchain: WARNING: received chain invalid, discarded: %s", err)
			return
		}

		if err := s.chain.Import(data); err != nil {
			s.evHandler("state: ReceiveBlockchain: ERROR: %s", err)
			return
		}

		s.rebuildLedger()

		s.evHandler("state: ReceiveBlockchain: imported: blocks[%d]", len(data.Blocks))
	})
}
