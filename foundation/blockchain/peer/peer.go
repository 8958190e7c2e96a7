// Package peer maintains the contact registry: the network address, public
// key and credited outputs of every participant indexed by node id.
package peer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
)

// ErrUnknownID is returned when a node id is outside the registry.
var ErrUnknownID = errors.New("unknown node id")

// Contact represents information about a node in the network.
type Contact struct {
	Host      string              `json:"host" validate:"required"`
	PublicKey string              `json:"public_key" validate:"required"`
	UTXO      []database.TxOutput `json:"utxo" validate:"dive"`
}

// New constructs a contact with no credited outputs.
func New(host string, publicKey string) Contact {
	return Contact{
		Host:      host,
		PublicKey: publicKey,
		UTXO:      []database.TxOutput{},
	}
}

// Match validates if the specified host matches this contact.
func (c Contact) Match(host string) bool {
	return c.Host == host
}

// Registered reports if the contact slot has been filled in.
func (c Contact) Registered() bool {
	return c.PublicKey != ""
}

func (c Contact) copy() Contact {
	utxo := make([]database.TxOutput, len(c.UTXO))
	copy(utxo, c.UTXO)
	c.UTXO = utxo

	return c
}

// =============================================================================

// Peer pairs a contact with its node id.
type Peer struct {
	ID int
	Contact
}

// =============================================================================

// Registry represents the ordered set of contacts for all participants.
type Registry struct {
	mu       sync.RWMutex
	contacts []Contact
}

// NewRegistry constructs a registry with a slot for every node id.
func NewRegistry(nodes int) *Registry {
	return &Registry{
		contacts: make([]Contact, nodes),
	}
}

// Len returns the number of participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.contacts)
}

// Set adds or overwrites the contact for the node id. It reports if the
// slot was empty before this call. Setting the same public key again only
// updates the host so outputs already credited to the contact survive a
// repeated registration.
func (r *Registry) Set(id int, contact Contact) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id < 0 || id >= len(r.contacts) {
		return false, fmt.Errorf("id %d: %w", id, ErrUnknownID)
	}

	cur := r.contacts[id]
	if cur.Registered() && cur.PublicKey == contact.PublicKey {
		cur.Host = contact.Host
		r.contacts[id] = cur
		return false, nil
	}

	added := !cur.Registered()
	r.contacts[id] = contact.copy()

	return added, nil
}

// Get returns a copy of the contact for the node id.
func (r *Registry) Get(id int) (Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 0 || id >= len(r.contacts) {
		return Contact{}, fmt.Errorf("id %d: %w", id, ErrUnknownID)
	}

	return r.contacts[id].copy(), nil
}

// Replace swaps the entire registry for the specified contacts.
func (r *Registry) Replace(contacts []Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contacts = make([]Contact, len(contacts))
	for i, contact := range contacts {
		r.contacts[i] = contact.copy()
	}
}

// IndexOf returns the node id owning the public key or -1.
func (r *Registry) IndexOf(publicKey string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, contact := range r.contacts {
		if contact.PublicKey == publicKey {
			return i
		}
	}

	return -1
}

// Credit appends an output to the contact of the node id.
func (r *Registry) Credit(id int, out database.TxOutput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id < 0 || id >= len(r.contacts) {
		return fmt.Errorf("id %d: %w", id, ErrUnknownID)
	}

	r.contacts[id].UTXO = append(r.contacts[id].UTXO, out)

	return nil
}

// Redistribute replaces every contact's outputs with the outputs credited
// to its public key, preserving their order.
func (r *Registry) Redistribute(outputs []database.TxOutput) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := make(map[string]int, len(r.contacts))
	for i := range r.contacts {
		r.contacts[i].UTXO = []database.TxOutput{}
		index[r.contacts[i].PublicKey] = i
	}

	for _, out := range outputs {
		if i, exists := index[out.Recipient]; exists {
			r.contacts[i].UTXO = append(r.contacts[i].UTXO, out)
		}
	}
}

// Registered returns the number of filled contact slots.
func (r *Registry) Registered() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int
	for _, contact := range r.contacts {
		if contact.Registered() {
			n++
		}
	}

	return n
}

// Copy returns a copy of every contact in id order.
func (r *Registry) Copy() []Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contacts := make([]Contact, len(r.contacts))
	for i, contact := range r.contacts {
		contacts[i] = contact.copy()
	}

	return contacts
}

// Others returns every registered peer except the specified node id.
func (r *Registry) Others(selfID int) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var peers []Peer
	for i, contact := range r.contacts {
		if i != selfID && contact.Registered() {
			peers = append(peers, Peer{ID: i, Contact: contact.copy()})
		}
	}

	return peers
}
