package training

import (
	"log/slog"

	"github.com/muchq/moonbase/go/metrics"
)

// WorkerPool bounds concurrent training to size goroutines. Submitted
// jobs queue FIFO behind a buffered semaphore channel; a single
// dispatcher goroutine drains the queue as workers free up.
type WorkerPool struct {
	sem     chan struct{}
	queue   chan func()
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewWorkerPool(size int, log *slog.Logger, m *metrics.Metrics) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	p := &WorkerPool{
		sem:     make(chan struct{}, size),
		queue:   make(chan func(), 4096),
		log:     log,
		metrics: m,
	}
	go p.dispatch()
	return p
}

func (p *WorkerPool) dispatch() {
	for job := range p.queue {
		p.sem <- struct{}{}
		if p.metrics != nil {
			p.metrics.ActiveWorkers.Inc()
		}
		go func(job func()) {
			defer func() {
				<-p.sem
				if p.metrics != nil {
					p.metrics.ActiveWorkers.Dec()
				}
			}()
			job()
		}(job)
	}
}

// Submit enqueues job to run once a worker slot is free. Returns
// immediately; the caller observes progress through the session it
// submitted, not through this call.
func (p *WorkerPool) Submit(job func()) {
	p.queue <- job
}
