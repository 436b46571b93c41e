package daemon

import (
	"sync"

	"github.com/rs/zerolog"
)

// queueDepth bounds how many events may wait per user. A user who floods
// messages while their download runs loses the overflow rather than stalling
// the update loop.
const queueDepth = 16

// dispatcher serializes work per user: one goroutine and one FIFO queue per
// user ID, created on first use. Jobs for the same user never overlap.
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64]chan func()
	wg     sync.WaitGroup
	closed bool
	logger zerolog.Logger
}

func newDispatcher(logger zerolog.Logger) *dispatcher {
	return &dispatcher{
		queues: make(map[int64]chan func()),
		logger: logger.With().Str("component", "dispatch").Logger(),
	}
}

// Submit enqueues a job on the user's queue, starting a worker on first
// contact. A full queue drops the job; a closed dispatcher ignores it.
func (p *dispatcher) Submit(userID int64, job func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	queue, ok := p.queues[userID]
	if !ok {
		queue = make(chan func(), queueDepth)
		p.queues[userID] = queue
		p.wg.Add(1)
		go p.worker(userID, queue)
	}
	p.mu.Unlock()

	select {
	case queue <- job:
	default:
		p.logger.Warn().
			Int64("user_id", userID).
			Msg("Event queue full, dropping event")
	}
}

func (p *dispatcher) worker(userID int64, queue chan func()) {
	defer p.wg.Done()
	for job := range queue {
		p.run(userID, job)
	}
}

// run executes one job, containing any panic so a single bad event cannot
// take the worker down.
func (p *dispatcher) run(userID int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int64("user_id", userID).
				Interface("panic", r).
				Msg("Recovered from panic in event handler")
		}
	}()
	job()
}

// Close stops accepting jobs and waits for every queued job to finish.
func (p *dispatcher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, queue := range p.queues {
		close(queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
