package public

import (
	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
)

// submitRequest is the payload a client sends to spend coins.
type submitRequest struct {
	To     int    `json:"to" validate:"gte=0"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

type tx struct {
	ID         string `json:"id"`
	SenderID   int    `json:"sender_id"`
	ReceiverID int    `json:"receiver_id"`
	Sender     string `json:"sender"`
	Receiver   string `json:"receiver"`
	Amount     uint64 `json:"amount"`
	Change     uint64 `json:"change"`
	TimeStamp  uint64 `json:"timestamp"`
	Sig        string `json:"sig"`
}

type block struct {
	Index         uint64 `json:"index"`
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	PrevTransHash string `json:"prev_trans_hash"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint   `json:"difficulty"`
	TimeStamp     uint64 `json:"timestamp"`
	Trans         []tx   `json:"trans"`
}

type balance struct {
	ID        int    `json:"id"`
	PublicKey string `json:"public_key"`
	Balance   uint64 `json:"balance"`
}

type contact struct {
	ID        int    `json:"id"`
	Host      string `json:"host"`
	PublicKey string `json:"public_key"`
	Outputs   int    `json:"outputs"`
	Balance   uint64 `json:"balance"`
}

// =============================================================================

// toBlock converts a block for display, resolving public keys to node ids.
func toBlock(b database.Block, contacts []state.ContactBalance) block {
	ids := make(map[string]int, len(contacts))
	for _, c := range contacts {
		ids[c.PublicKey] = c.ID
	}

	idOf := func(key string) int {
		id, exists := ids[key]
		if !exists {
			return -1
		}
		return id
	}

	trans := make([]tx, len(b.Trans))
	for i, t := range b.Trans {
		trans[i] = tx{
			ID:         t.ID,
			SenderID:   idOf(t.Sender),
			ReceiverID: idOf(t.Receiver),
			Sender:     t.Sender,
			Receiver:   t.Receiver,
			Amount:     t.Amount,
			Change:     t.ChangeOutput().Amount,
			TimeStamp:  t.TimeStamp,
			Sig:        t.SignatureString(),
		}
	}

	return block{
		Index:         b.Header.Index,
		Hash:          b.Hash,
		PrevBlockHash: b.Header.PrevBlockHash,
		PrevTransHash: b.Header.PrevTransHash,
		Nonce:         b.Header.Nonce,
		Difficulty:    b.Header.Difficulty,
		TimeStamp:     b.Header.TimeStamp,
		Trans:         trans,
	}
}

func toContacts(cbs []state.ContactBalance) []contact {
	contacts := make([]contact, len(cbs))
	for i, cb := range cbs {
		contacts[i] = contact{
			ID:        cb.ID,
			Host:      cb.Host,
			PublicKey: cb.PublicKey,
			Outputs:   len(cb.UTXO),
			Balance:   cb.Balance,
		}
	}

	return contacts
}
