// Package private maintains the group of handlers for node to node access.
// Every protocol message is acknowledged as soon as it is queued with the
// node, the work happens after the response.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/noobcash/blockchain/business/sys/validate"
	"github.com/noobcash/blockchain/business/web/errs"
	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
	"github.com/noobcash/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Register records a node announcing itself to the bootstrap node.
func (h Handlers) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if !h.State.IsBootstrap() {
		return errs.NewTrusted(fmt.Errorf("node %d is not the bootstrap node", h.State.RetrieveID()), http.StatusBadRequest)
	}

	var req state.RegisterRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.Log.Infow("register", "traceid", web.GetTraceID(ctx), "id", req.ID, "host", req.Contact.Host)
	h.State.RegisterNode(req)

	return ack(ctx, w, "registered")
}

// Contacts replaces the contact registry with the distributed list.
func (h Handlers) Contacts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var contacts []peer.Contact
	if err := decode(r, &contacts); err != nil {
		return err
	}

	if len(contacts) == 0 {
		return errs.NewTrusted(errors.New("contact list is empty"), http.StatusBadRequest)
	}

	for _, contact := range contacts {
		if err := validate.Check(contact); err != nil {
			return err
		}
	}

	h.State.ReceiveContacts(contacts)

	return ack(ctx, w, "contacts received")
}

// Blockchain imports the distributed chain.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var data database.ChainData
	if err := decode(r, &data); err != nil {
		return err
	}

	if err := validate.Check(data); err != nil {
		return err
	}

	h.State.ReceiveBlockchain(data)

	return ack(ctx, w, "blockchain received")
}

// SubmitTransaction queues a transaction broadcast by a peer.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.SignedTx
	if err := decode(r, &tx); err != nil {
		return err
	}

	if err := validate.Check(tx); err != nil {
		return err
	}

	h.State.ReceiveTransaction(tx)

	return ack(ctx, w, "transaction received")
}

// ProposeBlock queues a block mined by a peer.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block database.Block
	if err := decode(r, &block); err != nil {
		return err
	}

	if err := validate.Check(block); err != nil {
		return err
	}

	h.State.ReceiveBlock(block)

	return ack(ctx, w, "block received")
}

// AskBlockchain replies with this node's chain.
func (h Handlers) AskBlockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var asker database.ChainData
	if err := decode(r, &asker); err != nil {
		return err
	}

	data, err := h.State.AskBlockchain(ctx, asker)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, data, http.StatusOK)
}

// TransactionEnded counts a reply for a transaction this node originated.
func (h Handlers) TransactionEnded(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req state.TxEndedRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.State.TransactionEnded(req)

	return ack(ctx, w, "reply received")
}

// ReadWorkload starts reading this node's workload.
func (h Handlers) ReadWorkload(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.StartReadingWorkload()

	return ack(ctx, w, "reading workload")
}

// =============================================================================

func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}
	return nil
}

func ack(ctx context.Context, w http.ResponseWriter, status string) error {
	resp := struct {
		Status string `json:"status"`
	}{
		Status: status,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
