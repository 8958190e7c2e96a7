// Package state is the core API for the blockchain and implements all the
// business rules and processing of a node: contact bootstrapping, the
// transaction pipeline, mining and fork resolution.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/genesis"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
)

// BootstrapID is the node id of the peer every other node registers with.
const BootstrapID = 0

// ErrShutdown is returned when the node is no longer processing requests.
var ErrShutdown = errors.New("node is shutting down")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the node.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and registration.
type Worker interface {
	Shutdown()
	SignalStartMining(block database.Block)
}

// Transport interface represents the behavior required to deliver a protocol
// message to another node and decode its reply.
type Transport interface {
	Send(ctx context.Context, host string, route string, dataSend any, dataRecv any) error
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	ID               int
	Nodes            int
	Host             string
	BootstrapHost    string
	Wallet           database.Wallet
	Genesis          genesis.Genesis
	Storage          database.Storage
	Transport        Transport
	WorkloadDir      string
	AdoptEqualLength bool
	EvHandler        EventHandler
}

// State manages the node. Every field below the mailbox is owned by the
// coordinator goroutine and must only be touched from a posted job.
type State struct {
	id               int
	host             string
	bootstrapHost    string
	wallet           database.Wallet
	genesis          genesis.Genesis
	workloadDir      string
	adoptEqualLength bool
	evHandler        EventHandler
	transport        Transport
	storage          database.Storage

	contacts *peer.Registry
	chain    *database.Chain
	utxos    *database.UTXOSet

	mbox   *mailbox
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	nodes       int
	pending     []database.SignedTx
	executing   bool
	replies     int
	roundOpen   bool
	toCreate    []Spend
	mining      miningJob
	distributed bool
	funded      bool
	triggered   bool
	measure     measurements

	Worker Worker
}

// New constructs a node and starts its coordinator.
func New(cfg Config) (*State, error) {
	if cfg.Nodes < 1 {
		return nil, fmt.Errorf("nodes must be at least 1, got %d", cfg.Nodes)
	}

	if cfg.ID < 0 || cfg.ID >= cfg.Nodes {
		return nil, fmt.Errorf("id %d is outside the network of %d nodes", cfg.ID, cfg.Nodes)
	}

	if cfg.Storage == nil || cfg.Transport == nil {
		return nil, errors.New("storage and transport are required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := State{
		id:               cfg.ID,
		host:             cfg.Host,
		bootstrapHost:    cfg.BootstrapHost,
		wallet:           cfg.Wallet,
		genesis:          cfg.Genesis,
		workloadDir:      cfg.WorkloadDir,
		adoptEqualLength: cfg.AdoptEqualLength,
		evHandler:        ev,
		transport:        cfg.Transport,
		storage:          cfg.Storage,

		contacts: peer.NewRegistry(cfg.Nodes),
		chain:    database.NewChain(cfg.Genesis.Capacity, cfg.Genesis.Difficulty, cfg.Storage, database.EventHandler(ev)),
		utxos:    database.NewUTXOSet(),

		mbox:   newMailbox(),
		ctx:    ctx,
		cancel: cancel,

		nodes: cfg.Nodes,
	}

	if _, err := s.contacts.Set(cfg.ID, peer.New(cfg.Host, cfg.Wallet.PublicKey)); err != nil {
		cancel()
		return nil, err
	}

	// Only the bootstrap node starts with a chain. It holds the genesis
	// block minting the coins of every participant to the bootstrap wallet.
	if cfg.ID == BootstrapID {
		tx := database.GenesisTx(cfg.Wallet.PublicKey, cfg.Genesis.Supply(cfg.Nodes))
		block := database.GenesisBlock(tx, cfg.Genesis.Difficulty, cfg.Genesis.Date)

		if err := s.chain.Append(block); err != nil {
			cancel()
			return nil, err
		}

		s.rebuildLedger()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all mining and registration activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.cancel()
	s.wg.Wait()

	return s.storage.Close()
}

// IsBootstrap reports if this node is the bootstrap node.
func (s *State) IsBootstrap() bool {
	return s.id == BootstrapID
}

// =============================================================================

// run is the coordinator. Every state transition of the node executes on
// this goroutine, one job at a time, in the order the jobs were posted.
func (s *State) run() {
	s.evHandler("state: run: coordinator started")
	defer s.evHandler("state: run: coordinator completed")

	for {
		select {
		case <-s.mbox.wake:
			for _, job := range s.mbox.take() {
				job()
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// post queues a job for the coordinator.
func (s *State) post(job func()) {
	s.mbox.put(job)
}

// query runs the job on the coordinator and waits for it to complete.
func (s *State) query(ctx context.Context, job func()) error {
	done := make(chan struct{})
	s.post(func() {
		defer close(done)
		job()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrShutdown
	}
}

// spawn runs network work off the coordinator.
func (s *State) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// rebuildLedger recomputes the unspent outputs and every contact's credited
// outputs from the transactions recorded in the chain.
func (s *State) rebuildLedger() {
	outputs := s.utxos.Replay(s.chain.Data().Blocks)
	s.contacts.Redistribute(outputs)
}

// now returns the current time for measurements.
func now() time.Time {
	return time.Now().UTC()
}
