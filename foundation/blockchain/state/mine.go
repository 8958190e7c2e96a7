package state

import (
	"context"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
)

// miningJob remembers the transaction that filled the active block so the
// execution can be completed once mining reports back.
type miningJob struct {
	active   bool
	tx       database.SignedTx
	senderID int
}

// mineBlock hands a template for the next block to the worker. The pipeline
// stays busy until ProcessMinedBlock runs.
func (s *State) mineBlock(tx database.SignedTx, senderID int) {
	head, err := s.chain.LatestBlock()
	if err != nil {
		s.evHandler("state: mineBlock: ERROR: %s", err)
		s.endTransaction(tx, senderID)
		return
	}

	if s.Worker == nil {
		s.evHandler("state: mineBlock: WARNING: no worker registered")
		s.endTransaction(tx, senderID)
		return
	}

	s.mining = miningJob{active: true, tx: tx, senderID: senderID}
	s.evHandler("state: mineBlock: MINING: blk[%d]", head.Header.Index+1)

	s.Worker.SignalStartMining(database.NextBlock(head, s.chain.Difficulty()))
}

// MineNewBlock performs the proof of work for the specified block. This is
// called by the worker and runs off the coordinator.
func (s *State) MineNewBlock(ctx context.Context, block database.Block) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]", block.Header.Index)

	return database.POW(ctx, block, database.EventHandler(s.evHandler))
}

// ProcessMinedBlock hands the result of a mining operation back to the
// coordinator. The block is only kept if it still chains from the head,
// otherwise another node's block already won this round.
func (s *State) ProcessMinedBlock(block database.Block, duration time.Duration, mineErr error) {
	s.post(func() {
		job := s.mining
		s.mining = miningJob{}

		if !job.active {
			s.evHandler("state: ProcessMinedBlock: WARNING: no mining job, blk[%d] dropped", block.Header.Index)
			return
		}

		s.measure.BlockTimes = append(s.measure.BlockTimes, duration.Seconds())

		switch {
		case mineErr != nil:
			s.evHandler("state: ProcessMinedBlock: MINING: WARNING: %s", mineErr)

		default:
			if err := s.appendIfNext(block); err != nil {
				s.evHandler("state: ProcessMinedBlock: MINING: discarded blk[%d]: %s", block.Header.Index, err)
				break
			}

			s.evHandler("viewer: block: mined: %d: %s", block.Header.Index, block.Hash)
			s.netSendBlock(block)
		}

		s.endTransaction(job.tx, job.senderID)
	})
}

// ReceiveBlock accepts a block mined by a peer.
func (s *State) ReceiveBlock(block database.Block) {
	s.post(func() {
		s.evHandler("state: ReceiveBlock: blk[%d]: hash[%s]", block.Header.Index, block.Hash)

		if err := s.appendIfNext(block); err != nil {
			s.evHandler("state: ReceiveBlock: blk[%d]: unexpected: %s", block.Header.Index, err)
			s.resolveConflict()
			return
		}

		s.evHandler("viewer: block: received: %d: %s", block.Header.Index, block.Hash)
	})
}

// appendIfNext appends the block when it validates against the head.
func (s *State) appendIfNext(block database.Block) error {
	head, err := s.chain.LatestBlock()
	if err != nil {
		return err
	}

	if err := block.ValidateBlock(head, database.EventHandler(s.evHandler)); err != nil {
		return err
	}

	return s.chain.Append(block)
}
