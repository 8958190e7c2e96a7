package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/genesis"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/require"
)

// flaky fails the first calls to the register route.
type flaky struct {
	mu       sync.Mutex
	failures int
	attempts int
	req      state.RegisterRequest
}

func (f *flaky) Send(ctx context.Context, host string, route string, dataSend any, dataRecv any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if route != state.RouteRegister {
		return nil
	}

	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("bootstrap unreachable")
	}

	f.req = dataSend.(state.RegisterRequest)
	return nil
}

func (f *flaky) registered() (int, state.RegisterRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.attempts, f.req
}

func newState(t *testing.T, id int, transport state.Transport) *state.State {
	wallet, err := database.NewWallet()
	require.NoError(t, err)

	st, err := state.New(state.Config{
		ID:            id,
		Nodes:         2,
		Host:          "node1",
		BootstrapHost: "node0",
		Wallet:        wallet,
		Genesis: genesis.Genesis{
			Capacity:     1,
			Difficulty:   1,
			CoinsPerNode: 100,
		},
		Storage:   memory.New(),
		Transport: transport,
	})
	require.NoError(t, err)

	return st
}

func noop(v string, args ...any) {}

func Test_RegisterRetry(t *testing.T) {
	transport := flaky{failures: 2}
	st := newState(t, 1, &transport)
	defer st.Shutdown()

	run(st, 10*time.Millisecond, noop)

	require.Eventually(t, func() bool {
		attempts, req := transport.registered()
		return attempts == 3 && req.Contact.Host == "node1"
	}, 5*time.Second, 10*time.Millisecond, "Should retry until the bootstrap node acknowledges.")

	time.Sleep(50 * time.Millisecond)

	attempts, req := transport.registered()
	require.Equal(t, 3, attempts, "Should stop retrying once registered.")
	require.Equal(t, 1, req.ID)
	require.Equal(t, st.RetrievePublicKey(), req.Contact.PublicKey)
}

func Test_RegisterStopsOnShutdown(t *testing.T) {
	transport := flaky{failures: 1_000_000}
	st := newState(t, 1, &transport)

	run(st, time.Hour, noop)

	require.Eventually(t, func() bool {
		attempts, _ := transport.registered()
		return attempts == 1
	}, 5*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		st.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Should stop retrying on shutdown.")
	}
}

func Test_BootstrapDoesNotRegister(t *testing.T) {
	transport := flaky{}
	st := newState(t, state.BootstrapID, &transport)
	defer st.Shutdown()

	w := run(st, 10*time.Millisecond, noop)
	require.NotNil(t, w)

	time.Sleep(50 * time.Millisecond)

	attempts, _ := transport.registered()
	require.Zero(t, attempts, "Should not register the bootstrap node with itself.")
}

func Test_Mining(t *testing.T) {
	st := newState(t, state.BootstrapID, &flaky{})
	defer st.Shutdown()

	w := run(st, time.Hour, noop)
	require.Equal(t, w, st.Worker, "Should register itself with the state.")

	head := database.GenesisBlock(database.GenesisTx("key", 1), 1, time.Now())
	block, err := st.MineNewBlock(context.Background(), database.NextBlock(head, 1))
	require.NoError(t, err)
	require.NoError(t, block.ValidateBlock(head, nil))
}
