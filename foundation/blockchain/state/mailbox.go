package state

import "sync"

// mailbox is an unbounded FIFO of jobs for the coordinator. Posting never
// blocks so network handlers can acknowledge immediately.
type mailbox struct {
	mu   sync.Mutex
	jobs []func()
	wake chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		wake: make(chan struct{}, 1),
	}
}

// put appends a job and wakes the coordinator.
func (m *mailbox) put(job func()) {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// take removes and returns every queued job.
func (m *mailbox) take() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := m.jobs
	m.jobs = nil

	return jobs
}
