package dispatcher

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/stellartrade/order-relay/internal/webhook"
)

// JobRunner executes one relay job to completion. Failures are handled
// inside the runner; the pool never retries a job.
type JobRunner interface {
	Run(ctx context.Context, job *webhook.Job)
}

// Config controls pool behaviour
type Config struct {
	Workers   int
	QueueSize int
}

// Pool runs admitted relay jobs on a bounded number of workers, capping
// concurrent relays under webhook bursts. Per-order exclusion is not the
// pool's concern; the registry enforces it at admission.
type Pool struct {
	runner JobRunner
	cfg    Config

	queue chan *webhook.Job

	stopCh chan struct{}
	wg     sync.WaitGroup

	once sync.Once
}

// New creates a pool with the provided configuration and starts its workers
func New(runner JobRunner, cfg Config) *Pool {
	normalized := normalizeConfig(cfg)
	p := &Pool{
		runner: runner,
		cfg:    normalized,
		queue:  make(chan *webhook.Job, normalized.QueueSize),
		stopCh: make(chan struct{}),
	}
	p.startWorkers()
	return p
}

func normalizeConfig(cfg Config) Config {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 4
	}
	return cfg
}

func (p *Pool) startWorkers() {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Enqueue queues a new relay job for execution. It never blocks: a full
// queue returns ErrQueueFull so the caller can release the admission slot.
func (p *Pool) Enqueue(job *webhook.Job) error {
	if job == nil {
		return errors.New("pool enqueue: job is nil")
	}

	select {
	case <-p.stopCh:
		return webhook.ErrQueueClosed
	default:
	}

	select {
	case p.queue <- job:
		return nil
	default:
		return webhook.ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(job)
		}
	}
}

func (p *Pool) process(job *webhook.Job) {
	log.Printf("Relay started for order %s (run %s)", job.OrderKey, job.RunID)
	p.runner.Run(context.Background(), job)
	log.Printf("Relay finished for order %s (run %s)", job.OrderKey, job.RunID)
}

// Shutdown gracefully stops the pool
func (p *Pool) Shutdown(ctx context.Context) {
	p.once.Do(func() {
		close(p.stopCh)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return
	case <-done:
		return
	}
}
