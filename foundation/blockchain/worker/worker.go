// Package worker implements mining and bootstrap registration for the
// blockchain node.
package worker

import (
	"sync"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
)

// registerRetryInterval represents the time between attempts to register
// with the bootstrap node.
const registerRetryInterval = 3 * time.Second

// =============================================================================

// Worker manages the POW and registration workflows for the node.
type Worker struct {
	state         *state.State
	wg            sync.WaitGroup
	shut          chan struct{}
	startMining   chan database.Block
	retryInterval time.Duration
	evHandler     state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	return run(st, registerRetryInterval, evHandler)
}

func run(st *state.State, retryInterval time.Duration, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:         st,
		shut:          make(chan struct{}),
		startMining:   make(chan database.Block, 1),
		retryInterval: retryInterval,
		evHandler:     evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}

	// Every node except the bootstrap node must announce itself.
	if !st.IsBootstrap() {
		operations = append(operations, w.registerOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation for the block. The node only
// mines one block at a time so the channel never holds more than one.
func (w *Worker) SignalStartMining(block database.Block) {
	select {
	case w.startMining <- block:
		w.evHandler("worker: SignalStartMining: mining signaled: blk[%d]", block.Header.Index)
	default:
		w.evHandler("worker: SignalStartMining: WARNING: mining already pending")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
