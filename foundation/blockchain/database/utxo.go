package database

import "sync"

// UTXOSet tracks which transaction outputs are still spendable. Outputs
// consumed as inputs are removed so the same output can never be spent
// twice even though contacts keep every output credited to them.
type UTXOSet struct {
	mu      sync.RWMutex
	unspent map[string]TxOutput
}

// NewUTXOSet constructs an empty set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{
		unspent: make(map[string]TxOutput),
	}
}

// Reset replaces the contents of the set with the specified outputs.
func (u *UTXOSet) Reset(outputs []TxOutput) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.unspent = make(map[string]TxOutput, len(outputs))
	for _, out := range outputs {
		u.unspent[out.ID] = out
	}
}

// Add marks the output as spendable.
func (u *UTXOSet) Add(out TxOutput) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.unspent[out.ID] = out
}

// Get returns the unspent output for the specified id.
func (u *UTXOSet) Get(id string) (TxOutput, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out, exists := u.unspent[id]
	return out, exists
}

// Apply spends the inputs of the transaction and makes its outputs
// spendable. The transaction must have been validated first.
func (u *UTXOSet) Apply(tx SignedTx) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, id := range tx.Inputs {
		delete(u.unspent, id)
	}

	for _, out := range tx.Outputs {
		u.unspent[out.ID] = out
	}
}

// Unspent filters the specified outputs down to the ones still spendable.
func (u *UTXOSet) Unspent(outputs []TxOutput) []TxOutput {
	u.mu.RLock()
	defer u.mu.RUnlock()

	unspent := make([]TxOutput, 0, len(outputs))
	for _, out := range outputs {
		if _, exists := u.unspent[out.ID]; exists {
			unspent = append(unspent, out)
		}
	}

	return unspent
}

// Balance sums the specified outputs that are still spendable.
func (u *UTXOSet) Balance(outputs []TxOutput) uint64 {
	var balance uint64
	for _, out := range u.Unspent(outputs) {
		balance += out.Amount
	}

	return balance
}

// Count returns the number of spendable outputs.
func (u *UTXOSet) Count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return len(u.unspent)
}

// Replay rebuilds the set by applying every transaction recorded in the
// blocks in order. It returns every output the blocks ever created so the
// caller can redistribute them to their recipients.
func (u *UTXOSet) Replay(blocks []Block) []TxOutput {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.unspent = make(map[string]TxOutput)

	var outputs []TxOutput
	for _, block := range blocks {
		for _, tx := range block.Trans {
			for _, id := range tx.Inputs {
				delete(u.unspent, id)
			}
			for _, out := range tx.Outputs {
				u.unspent[out.ID] = out
				outputs = append(outputs, out)
			}
		}
	}

	return outputs
}
