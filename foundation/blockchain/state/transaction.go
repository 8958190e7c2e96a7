package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
)

// ErrUnknownReceiver is returned when a spend names a node id that is not
// part of the network.
var ErrUnknownReceiver = errors.New("unknown receiver")

// Spend is a request to send coins to the node with the specified id.
type Spend struct {
	To     int    `json:"to"`
	Amount uint64 `json:"amount"`
}

// SubmitTransaction queues a spend originated by this node. It starts a new
// round immediately when no round is in progress.
func (s *State) SubmitTransaction(ctx context.Context, spend Spend) error {
	var err error
	qErr := s.query(ctx, func() {
		if spend.To < 0 || spend.To >= s.nodes || spend.To == s.id {
			err = fmt.Errorf("node %d: %w", spend.To, ErrUnknownReceiver)
			return
		}

		s.evHandler("state: SubmitTransaction: queued: to[%d]: amount[%d]", spend.To, spend.Amount)

		s.toCreate = append(s.toCreate, spend)
		if !s.roundOpen {
			s.createNextTransaction()
		}
	})
	if qErr != nil {
		return qErr
	}

	return err
}

// ReceiveTransaction accepts a transaction broadcast by a peer.
func (s *State) ReceiveTransaction(tx database.SignedTx) {
	s.post(func() { s.receiveTransaction(tx) })
}

// TransactionEnded accepts the notification that a node finished
// processing a transaction this node originated.
func (s *State) TransactionEnded(req TxEndedRequest) {
	s.post(func() {
		s.evHandler("state: TransactionEnded: from peer[%d]: tx[%s]", req.ID, req.TxID)
		s.transactionEnded()
	})
}

// =============================================================================

// createNextTransaction pops the next queued spend and starts a round for
// it. When the queue is exhausted the creation phase of the run is over.
func (s *State) createNextTransaction() {
	for {
		if len(s.toCreate) == 0 {
			s.measure.finish(now())
			s.evHandler("state: createNextTransaction: no more transactions: created[%d]", s.measure.Created)

			// The workload only starts once the starting coins were handed out.
			if s.IsBootstrap() && s.funded && !s.triggered {
				s.triggered = true
				s.netTriggerWorkload()
			}
			return
		}

		spend := s.toCreate[0]
		s.toCreate = s.toCreate[1:]

		if err := s.createTransaction(spend); err != nil {
			s.evHandler("state: createNextTransaction: to[%d]: WARNING: %s", spend.To, err)
			continue
		}

		return
	}
}

// createTransaction builds, signs and broadcasts a transaction spending
// this node's unspent outputs. It opens a round awaiting a reply from
// every node.
func (s *State) createTransaction(spend Spend) error {
	if spend.To == s.id {
		return errors.New("can not send coins to yourself")
	}

	receiver, err := s.contacts.Get(spend.To)
	if err != nil {
		return fmt.Errorf("node %d: %w", spend.To, ErrUnknownReceiver)
	}

	if !receiver.Registered() {
		return fmt.Errorf("node %d has not registered", spend.To)
	}

	own, err := s.contacts.Get(s.id)
	if err != nil {
		return err
	}

	tx, err := s.wallet.NewTransaction(receiver.PublicKey, spend.Amount, s.utxos.Unspent(own.UTXO))
	if err != nil {
		return err
	}

	s.measure.Created++
	s.replies = 0
	s.roundOpen = true

	s.evHandler("state: createTransaction: tx[%s]: to[%d]", tx, spend.To)
	s.evHandler("viewer: tx: created: %s: to[%d]: amount[%d]", tx.ID, spend.To, spend.Amount)

	s.netSendTransaction(tx)

	return nil
}

// receiveTransaction queues the transaction and starts executing if the
// node is idle.
func (s *State) receiveTransaction(tx database.SignedTx) {
	s.pending = append(s.pending, tx)
	s.evHandler("state: receiveTransaction: tx[%s]: pending[%d]", tx, len(s.pending))

	if !s.executing {
		s.executePending()
	}
}

// executePending moves the node from idle to executing the head of the
// pending queue. With nothing pending the node is idle and checks if the
// round it originated has completed.
func (s *State) executePending() {
	if len(s.pending) == 0 {
		s.executing = false
		s.checkRound()
		return
	}

	s.executing = true

	tx := s.pending[0]
	s.pending = s.pending[1:]

	s.executeTransaction(tx)
}

// executeTransaction validates the transaction and applies it to the
// ledger. A transaction filling the active block triggers mining before the
// execution is considered complete.
func (s *State) executeTransaction(tx database.SignedTx) {
	s.evHandler("state: executeTransaction: begin: tx[%s]", tx)

	senderID := s.contacts.IndexOf(tx.ChangeOutput().Recipient)
	receiverID := s.contacts.IndexOf(tx.ReceiverOutput().Recipient)

	if err := tx.Validate(s.utxos); err != nil {
		s.evHandler("state: executeTransaction: tx[%s]: WARNING: %s", tx, err)
		s.endTransaction(tx, senderID)
		return
	}

	full, err := s.applyTransaction(tx, senderID, receiverID)
	if err != nil {
		s.evHandler("state: executeTransaction: tx[%s]: ERROR: %s", tx, err)
		s.endTransaction(tx, senderID)
		return
	}

	s.evHandler("viewer: tx: executed: %s: from[%d]: to[%d]: amount[%d]", tx.ID, senderID, receiverID, tx.Amount)

	if full {
		s.mineBlock(tx, senderID)
		return
	}

	s.endTransaction(tx, senderID)
}

// applyTransaction records a validated transaction into the active block,
// spends its inputs and credits its outputs to the contacts involved.
func (s *State) applyTransaction(tx database.SignedTx, senderID int, receiverID int) (bool, error) {
	full, err := s.chain.AppendTx(tx)
	if err != nil {
		return false, err
	}

	s.utxos.Apply(tx)

	if err := s.contacts.Credit(receiverID, tx.ReceiverOutput()); err != nil {
		s.evHandler("state: applyTransaction: tx[%s]: receiver: WARNING: %s", tx, err)
	}
	if err := s.contacts.Credit(senderID, tx.ChangeOutput()); err != nil {
		s.evHandler("state: applyTransaction: tx[%s]: sender: WARNING: %s", tx, err)
	}

	return full, nil
}

// endTransaction replies to the originator of the transaction and lets the
// pipeline move on to the next pending transaction.
func (s *State) endTransaction(tx database.SignedTx, senderID int) {
	s.measure.Executed++

	if senderID == s.id {
		s.transactionEnded()
		s.releaseExecution()
		return
	}

	contact, err := s.contacts.Get(senderID)
	if err != nil {
		s.evHandler("state: endTransaction: tx[%s]: sender unknown: WARNING: %s", tx, err)
		s.releaseExecution()
		return
	}

	s.netSendTxEnded(peer.Peer{ID: senderID, Contact: contact}, tx)
}

// releaseExecution marks the in flight transaction as done and continues
// draining the pending queue.
func (s *State) releaseExecution() {
	s.evHandler("state: executeTransaction: end")
	s.executePending()
}

// transactionEnded counts a reply for the round this node originated.
func (s *State) transactionEnded() {
	s.replies++
	s.evHandler("state: transactionEnded: replies[%d]: nodes[%d]", s.replies, s.nodes)

	if !s.executing {
		s.checkRound()
	}
}

// checkRound completes the round once every node replied.
func (s *State) checkRound() {
	if !s.roundOpen || s.replies < s.nodes {
		return
	}

	s.roundOpen = false
	s.evHandler("state: round: complete: replies[%d]", s.replies)

	s.createNextTransaction()
}
