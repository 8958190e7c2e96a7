package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/noobcash/blockchain/foundation/blockchain/signature"
)

// Set of errors a transaction can fail validation with.
var (
	ErrInvalidSignature  = errors.New("signature does not belong to the sender")
	ErrSpentInput        = errors.New("input is not an unspent output")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Output positions inside a transaction.
const (
	ReceiverOutput = 0
	ChangeOutput   = 1
)

// =============================================================================

// TxOutput is a spendable amount credited to a public key.
type TxOutput struct {
	ID        string `json:"id" validate:"required"`
	TxID      string `json:"tx_id" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount"`
}

// outputID returns the id of the output at the index of the transaction.
func outputID(txID string, index int) string {
	return fmt.Sprintf("%s:%d", txID, index)
}

// Tx is the transactional information between two parties.
type Tx struct {
	ID        string     `json:"id" validate:"required"`
	Sender    string     `json:"sender" validate:"required"`
	Receiver  string     `json:"receiver" validate:"required"`
	Amount    uint64     `json:"amount"`
	Inputs    []string   `json:"inputs"`
	Outputs   []TxOutput `json:"outputs" validate:"len=2,dive"`
	TimeStamp uint64     `json:"timestamp"`
}

// NewTx constructs a new transaction consuming every output in unspent.
// The first output credits the receiver and the second returns the change
// to the sender. Insufficient funds are not detected here, the change is
// floored at zero and validation rejects the transaction later.
func NewTx(sender string, receiver string, amount uint64, unspent []TxOutput) Tx {
	id := uuid.New().String()

	var total uint64
	inputs := make([]string, len(unspent))
	for i, out := range unspent {
		inputs[i] = out.ID
		total += out.Amount
	}

	var change uint64
	if total > amount {
		change = total - amount
	}

	return Tx{
		ID:       id,
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Inputs:   inputs,
		Outputs: []TxOutput{
			{ID: outputID(id, ReceiverOutput), TxID: id, Recipient: receiver, Amount: amount},
			{ID: outputID(id, ChangeOutput), TxID: id, Recipient: sender, Amount: change},
		},
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
	}
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is the value that
// is broadcast verbatim to every node and recorded inside blocks.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 29 or 30 with nbcID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// GenesisTx constructs the unsigned transaction that seeds the network with
// its coin supply. It has no inputs and only lives in the genesis block.
func GenesisTx(recipient string, amount uint64) SignedTx {
	const id = "genesis"

	tx := Tx{
		ID:       id,
		Sender:   signature.ZeroHash,
		Receiver: recipient,
		Amount:   amount,
		Inputs:   []string{},
		Outputs: []TxOutput{
			{ID: outputID(id, ReceiverOutput), TxID: id, Recipient: recipient, Amount: amount},
			{ID: outputID(id, ChangeOutput), TxID: id, Recipient: recipient, Amount: 0},
		},
	}

	return SignedTx{Tx: tx}
}

// ReceiverOutput returns the output crediting the receiver.
func (tx SignedTx) ReceiverOutput() TxOutput {
	if len(tx.Outputs) <= ReceiverOutput {
		return TxOutput{}
	}
	return tx.Outputs[ReceiverOutput]
}

// ChangeOutput returns the output returning change to the sender.
func (tx SignedTx) ChangeOutput() TxOutput {
	if len(tx.Outputs) <= ChangeOutput {
		return TxOutput{}
	}
	return tx.Outputs[ChangeOutput]
}

// VerifySignature checks the signature is well formed and was produced by
// the key the transaction claims as its sender.
func (tx SignedTx) VerifySignature() error {
	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	key, err := signature.FromPublicKey(tx.Tx, tx.V, tx.R, tx.S)
	if err != nil {
		return err
	}

	if key != tx.Sender {
		return ErrInvalidSignature
	}

	return nil
}

// Validate performs the signature check and the semantic checks of the
// transaction against the set of unspent outputs known to this node.
func (tx SignedTx) Validate(utxos *UTXOSet) error {
	if len(tx.Outputs) != 2 {
		return fmt.Errorf("transaction invalid, expected 2 outputs, got %d", len(tx.Outputs))
	}

	if tx.Amount == 0 {
		return errors.New("transaction invalid, amount must be greater than zero")
	}

	if tx.Sender == tx.Receiver {
		return fmt.Errorf("transaction invalid, sending money to yourself, from %s", tx.Sender)
	}

	recv := tx.ReceiverOutput()
	if recv.Recipient != tx.Receiver || recv.Amount != tx.Amount {
		return errors.New("transaction invalid, receiver output does not match the transaction")
	}

	change := tx.ChangeOutput()
	if change.Recipient != tx.Sender {
		return errors.New("transaction invalid, change output does not return to the sender")
	}

	for i, out := range tx.Outputs {
		if out.TxID != tx.ID || out.ID != outputID(tx.ID, i) {
			return fmt.Errorf("transaction invalid, output %d is not bound to the transaction", i)
		}
	}

	if err := tx.VerifySignature(); err != nil {
		return fmt.Errorf("transaction invalid, %w", err)
	}

	var total uint64
	seen := make(map[string]struct{}, len(tx.Inputs))
	for _, id := range tx.Inputs {
		if _, exists := seen[id]; exists {
			return fmt.Errorf("transaction invalid, input %s used twice", id)
		}
		seen[id] = struct{}{}

		out, exists := utxos.Get(id)
		if !exists {
			return fmt.Errorf("transaction invalid, %s: %w", id, ErrSpentInput)
		}

		if out.Recipient != tx.Sender {
			return fmt.Errorf("transaction invalid, input %s is not owned by the sender", id)
		}

		total += out.Amount
	}

	if total < tx.Amount {
		return fmt.Errorf("transaction invalid, bal %d, needed %d: %w", total, tx.Amount, ErrInsufficientFunds)
	}

	if total != recv.Amount+change.Amount {
		return fmt.Errorf("transaction invalid, inputs %d do not match outputs %d", total, recv.Amount+change.Amount)
	}

	return nil
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	if tx.V == nil || tx.R == nil || tx.S == nil {
		return ""
	}
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%d", tx.ID, tx.Amount)
}
