// Package public maintains the group of handlers for client access.
package public

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/noobcash/blockchain/business/sys/validate"
	"github.com/noobcash/blockchain/business/web/errs"
	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
	"github.com/noobcash/blockchain/foundation/events"
	"github.com/noobcash/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of client endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			data, err := json.Marshal(evt)
			if err != nil {
				return err
			}

			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// SubmitTransaction queues a spend from this node to another node.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "to", req.To, "amount", req.Amount)

	spend := state.Spend{To: req.To, Amount: req.Amount}
	if err := h.State.SubmitTransaction(ctx, spend); err != nil {
		if errors.Is(err, state.ErrUnknownReceiver) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction queued",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// LastBlock returns the transactions of the last block in the chain.
func (h Handlers) LastBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.RetrieveLastBlock(ctx)
	if err != nil {
		if errors.Is(err, database.ErrEmptyChain) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	contacts, err := h.State.RetrieveContacts(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toBlock(blk, contacts), http.StatusOK)
}

// Balance returns the spendable balance of this node.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	bal, err := h.State.RetrieveBalance(ctx)
	if err != nil {
		return err
	}

	resp := balance{
		ID:        h.State.RetrieveID(),
		PublicKey: h.State.RetrievePublicKey(),
		Balance:   bal,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Measurements returns the performance figures of the run.
func (h Handlers) Measurements(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m, err := h.State.RetrieveMeasurements(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, m, http.StatusOK)
}

// Status returns a diagnostic dump of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st, err := h.State.RetrieveStatus(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Contacts returns the contact registry with the balance of every node.
func (h Handlers) Contacts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	contacts, err := h.State.RetrieveContacts(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toContacts(contacts), http.StatusOK)
}

// Blockchain returns the full chain held by this node.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := h.State.RetrieveBlockchain(ctx)
	if err != nil {
		return err
	}

	contacts, err := h.State.RetrieveContacts(ctx)
	if err != nil {
		return err
	}

	blocks := make([]block, len(data.Blocks))
	for i, b := range data.Blocks {
		blocks[i] = toBlock(b, contacts)
	}

	resp := struct {
		Capacity   int     `json:"capacity"`
		Difficulty uint    `json:"difficulty"`
		Blocks     []block `json:"blocks"`
	}{
		Capacity:   data.Capacity,
		Difficulty: data.Difficulty,
		Blocks:     blocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
