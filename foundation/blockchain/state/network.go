package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
	"golang.org/x/sync/errgroup"
)

// Set of routes, relative to the node group, the protocol messages are
// delivered to.
const (
	RouteRegister      = "register"
	RouteContacts      = "contacts"
	RouteBlockchain    = "blockchain"
	RouteTransaction   = "tx/submit"
	RouteBlock         = "block/propose"
	RouteAskBlockchain = "blockchain/ask"
	RouteTxEnded       = "tx/ended"
	RouteReadWorkload  = "workload/read"
)

// RegisterRequest is sent by a node announcing itself to the bootstrap node.
type RegisterRequest struct {
	ID      int          `json:"id" validate:"gte=0"`
	Contact peer.Contact `json:"contact"`
}

// TxEndedRequest is sent to the originator of a transaction once a node has
// finished processing it.
type TxEndedRequest struct {
	ID   int    `json:"id" validate:"gte=0"`
	TxID string `json:"tx_id"`
}

// =============================================================================

const baseURL = "http://%s/v1/node/%s"

// HTTPTransport delivers protocol messages to the private API of a node.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport constructs a transport using a client with the specified
// timeout for every request.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// Send implements the Transport interface.
func (t *HTTPTransport) Send(ctx context.Context, host string, route string, dataSend any, dataRecv any) error {
	url := fmt.Sprintf(baseURL, host, route)
	return send(ctx, t.client, http.MethodPost, url, dataSend, dataRecv)
}

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, client *http.Client, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================

// netSendToPeers delivers the message to every specified peer concurrently
// and returns once every call has completed. A failed call is logged and
// does not affect the delivery to the other peers.
func (s *State) netSendToPeers(peers []peer.Peer, route string, dataSend any) {
	var g errgroup.Group

	for _, p := range peers {
		g.Go(func() error {
			if err := s.transport.Send(s.ctx, p.Host, route, dataSend, nil); err != nil {
				s.evHandler("state: netSendToPeers: route[%s]: peer[%d]: WARNING: %s", route, p.ID, err)
				return nil
			}
			s.evHandler("state: netSendToPeers: route[%s]: sent to peer[%d]", route, p.ID)
			return nil
		})
	}

	g.Wait()
}

// netSendTransaction broadcasts the transaction to every peer and folds it
// into this node's own pending queue only after every peer call completed.
func (s *State) netSendTransaction(tx database.SignedTx) {
	peers := s.contacts.Others(s.id)

	s.spawn(func() {
		s.evHandler("state: netSendTransaction: started: tx[%s]", tx)
		defer s.evHandler("state: netSendTransaction: completed: tx[%s]", tx)

		s.netSendToPeers(peers, RouteTransaction, tx)
		s.post(func() { s.receiveTransaction(tx) })
	})
}

// netSendBlock broadcasts the mined block to every peer.
func (s *State) netSendBlock(block database.Block) {
	peers := s.contacts.Others(s.id)

	s.spawn(func() {
		s.evHandler("state: netSendBlock: started: blk[%d]", block.Header.Index)
		defer s.evHandler("state: netSendBlock: completed: blk[%d]", block.Header.Index)

		s.netSendToPeers(peers, RouteBlock, block)
	})
}

// netSendTxEnded notifies the originator of the transaction that this node
// finished processing it, then lets the pipeline continue.
func (s *State) netSendTxEnded(originator peer.Peer, tx database.SignedTx) {
	s.spawn(func() {
		req := TxEndedRequest{ID: s.id, TxID: tx.ID}
		if err := s.transport.Send(s.ctx, originator.Host, RouteTxEnded, req, nil); err != nil {
			s.evHandler("state: netSendTxEnded: peer[%d]: WARNING: %s", originator.ID, err)
		}

		s.post(s.releaseExecution)
	})
}
