package worker

import (
	"context"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case block := <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation(block)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation performs the POW for the block and reports the result
// back to the state. A shutdown cancels the search.
func (w *Worker) runMiningOperation(block database.Block) {
	w.evHandler("worker: runMiningOperation: MINING: started: blk[%d]", block.Header.Index)
	defer w.evHandler("worker: runMiningOperation: MINING: completed: blk[%d]", block.Header.Index)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// This G exists to cancel the mining operation on shutdown.
	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	t := time.Now()
	mined, err := w.state.MineNewBlock(ctx, block)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	w.state.ProcessMinedBlock(mined, duration, err)
}
