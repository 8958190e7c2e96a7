package worker

import (
	"context"
	"time"
)

// registerOperations announces this node to the bootstrap node, retrying
// on a fixed interval until the bootstrap node acknowledges.
func (w *Worker) registerOperations() {
	w.evHandler("worker: registerOperations: G started")
	defer w.evHandler("worker: registerOperations: G completed")

	for attempt := 1; ; attempt++ {
		if w.register() {
			w.evHandler("worker: registerOperations: registered: attempts[%d]", attempt)
			return
		}

		select {
		case <-time.After(w.retryInterval):
		case <-w.shut:
			w.evHandler("worker: registerOperations: received shut signal")
			return
		}
	}
}

// register performs a single registration attempt.
func (w *Worker) register() bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := w.state.RegisterSelf(ctx); err != nil {
		w.evHandler("worker: register: WARNING: %s", err)
		return false
	}

	return true
}
