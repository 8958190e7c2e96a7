package state

import (
	"context"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/genesis"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
)

// Status is a diagnostic dump of the coordinator state.
type Status struct {
	ID         int    `json:"id"`
	Host       string `json:"host"`
	PublicKey  string `json:"public_key"`
	Nodes      int    `json:"nodes"`
	Pending    int    `json:"pending"`
	Executing  bool   `json:"executing"`
	Replies    int    `json:"replies"`
	RoundOpen  bool   `json:"round_open"`
	ToCreate   int    `json:"to_create"`
	Blocks     int    `json:"blocks"`
	Unspent    int    `json:"unspent"`
	Registered int    `json:"registered"`
}

// ContactBalance is a contact along with the balance of its outputs.
type ContactBalance struct {
	ID int `json:"id"`
	peer.Contact
	Balance uint64 `json:"balance"`
}

// RetrieveID returns the node id.
func (s *State) RetrieveID() int {
	return s.id
}

// RetrieveHost returns the host this node is reachable at.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrievePublicKey returns the identity of this node's wallet.
func (s *State) RetrievePublicKey() string {
	return s.wallet.PublicKey
}

// RetrieveGenesis returns the genesis settings.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLastBlock returns the head of the chain.
func (s *State) RetrieveLastBlock(ctx context.Context) (database.Block, error) {
	var block database.Block
	var err error
	qErr := s.query(ctx, func() {
		block, err = s.chain.LatestBlock()
	})
	if qErr != nil {
		return database.Block{}, qErr
	}

	return block, err
}

// RetrieveBalance returns the sum of this node's unspent outputs.
func (s *State) RetrieveBalance(ctx context.Context) (uint64, error) {
	var balance uint64
	err := s.query(ctx, func() {
		own, err := s.contacts.Get(s.id)
		if err != nil {
			return
		}
		balance = s.utxos.Balance(own.UTXO)
	})

	return balance, err
}

// RetrieveMeasurements returns the performance figures of the run.
func (s *State) RetrieveMeasurements(ctx context.Context) (Measurements, error) {
	var m Measurements
	err := s.query(ctx, func() {
		m = s.measure.report()
	})

	return m, err
}

// RetrieveStatus returns a diagnostic dump of the node.
func (s *State) RetrieveStatus(ctx context.Context) (Status, error) {
	var st Status
	err := s.query(ctx, func() {
		st = Status{
			ID:         s.id,
			Host:       s.host,
			PublicKey:  s.wallet.PublicKey,
			Nodes:      s.nodes,
			Pending:    len(s.pending),
			Executing:  s.executing,
			Replies:    s.replies,
			RoundOpen:  s.roundOpen,
			ToCreate:   len(s.toCreate),
			Blocks:     s.chain.Len(),
			Unspent:    s.utxos.Count(),
			Registered: s.contacts.Registered(),
		}
	})

	return st, err
}

// RetrieveContacts returns the registry with the balance of every contact.
func (s *State) RetrieveContacts(ctx context.Context) ([]ContactBalance, error) {
	var contacts []ContactBalance
	err := s.query(ctx, func() {
		for i, contact := range s.contacts.Copy() {
			contacts = append(contacts, ContactBalance{
				ID:      i,
				Contact: contact,
				Balance: s.utxos.Balance(contact.UTXO),
			})
		}
	})

	return contacts, err
}

// RetrieveBlockchain returns a copy of the chain.
func (s *State) RetrieveBlockchain(ctx context.Context) (database.ChainData, error) {
	var data database.ChainData
	err := s.query(ctx, func() {
		data = s.chain.Data()
	})

	return data, err
}
