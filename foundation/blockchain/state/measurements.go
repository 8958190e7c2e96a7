package state

import "time"

// measurements are the raw counters of a run kept by the coordinator.
type measurements struct {
	Created    int
	Executed   int
	StartTime  time.Time
	FinishTime time.Time
	Duration   time.Duration
	BlockTimes []float64
}

// start records the beginning of a batch of transactions.
func (m *measurements) start(t time.Time) {
	m.StartTime = t
}

// finish records the end of the creation phase.
func (m *measurements) finish(t time.Time) {
	m.FinishTime = t
	if !m.StartTime.IsZero() {
		m.Duration = t.Sub(m.StartTime)
	}
}

// Measurements represents the performance figures of a run.
type Measurements struct {
	Created          int       `json:"created"`
	Executed         int       `json:"executed"`
	StartTime        time.Time `json:"start_time"`
	FinishTime       time.Time `json:"finish_time"`
	TransactionsTime float64   `json:"transactions_time"`
	BlockTimes       []float64 `json:"block_times"`
	Throughput       float64   `json:"throughput"`
	MeanBlockTime    float64   `json:"mean_block_time"`
}

// report derives the published figures from the raw counters.
func (m measurements) report() Measurements {
	blockTimes := make([]float64, len(m.BlockTimes))
	copy(blockTimes, m.BlockTimes)

	r := Measurements{
		Created:          m.Created,
		Executed:         m.Executed,
		StartTime:        m.StartTime,
		FinishTime:       m.FinishTime,
		TransactionsTime: m.Duration.Seconds(),
		BlockTimes:       blockTimes,
	}

	if r.TransactionsTime > 0 {
		r.Throughput = float64(r.Created) / r.TransactionsTime
	}

	if len(blockTimes) > 0 {
		var total float64
		for _, bt := range blockTimes {
			total += bt
		}
		r.MeanBlockTime = total / float64(len(blockTimes))
	}

	return r
}
