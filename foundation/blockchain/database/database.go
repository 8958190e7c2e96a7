// Package database handles all the lower level support for maintaining the
// blockchain: wallets, transactions, the unspent output set, blocks and the
// chain itself along with the storage the chain is mirrored into.
package database

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Storage interface represents the behavior required to be implemented by any
// package providing support for archiving the blockchain. Writes are upserts
// keyed by the block index since the active block keeps receiving
// transactions after it was mined. Replace swaps the stored chain for the
// specified blocks as one unit: on error the previous blocks are retained.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	Replace(blocks []Block) error
	Close() error
}

// noopEvHandler is used when no event handler is provided.
func noopEvHandler(v string, args ...any) {}
