package chat

import (
	"RoomieChat/tools/safe"
)

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout spreads one payload across many clients on a small worker pool so
// broadcast cost never lands on a connection's read loop. Enqueue failures
// are reported through drop; the broadcast itself always runs to the end of
// the recipient list.
type Fanout struct {
	jobs chan fanoutJob
	drop func(*Client)
}

func NewFanout(workers, queue int, drop func(*Client)) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue), drop: drop}
	for i := 0; i < workers; i++ {
		safe.Go(func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					if err := c.Enqueue(job.payload); err != nil && f.drop != nil {
						f.drop(c)
					}
				}
			}
		})
	}
	return f
}

// Broadcast queues one delivery job; non-blocking for small bursts, applies
// backpressure only when the job queue itself is full.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

func (f *Fanout) Close() { close(f.jobs) }
