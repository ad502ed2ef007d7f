package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type TaskDispatcher interface {
	Dispatch(ctx context.Context, messageID uint) Outcome
}

// Pool runs a fixed number of workers that drain a Queue through a
// dispatcher. Tasks are independent: one task's failure or panic does not
// affect the others.
type Pool struct {
	queue      Queue
	dispatcher TaskDispatcher
	workers    int
	retryDelay time.Duration

	// OnOutcome, when set, observes every finished task.
	OnOutcome func(Task, Outcome)

	logger *slog.Logger
}

func NewPool(queue Queue, dispatcher TaskDispatcher, workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		queue:      queue,
		dispatcher: dispatcher,
		workers:    workers,
		retryDelay: time.Second,
		logger:     logger.With(slog.String("component", "notification_pool")),
	}
}

// Run blocks until ctx is cancelled or the queue is closed, then waits for
// in-flight tasks.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}
	p.logger.Info("Notification workers started", "workers", p.workers)
	wg.Wait()
	p.logger.Info("Notification workers stopped")
}

func (p *Pool) work(ctx context.Context, id int) {
	log := p.logger.With(slog.Int("worker", id))
	for {
		task, err := p.queue.Dequeue(ctx)
		switch {
		case err == nil:
			p.process(ctx, log, task)
		case errors.Is(err, ErrQueueClosed), ctx.Err() != nil:
			return
		case errors.Is(err, ErrInvalidTask):
			log.Warn("Discarding invalid task", "error", err)
		default:
			log.Error("Failed to dequeue task", "error", err)
			select {
			case <-time.After(p.retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, log *slog.Logger, task Task) {
	var outcome Outcome
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(fmt.Errorf("task panic: %v", r))
			log.Error("Task panicked", "taskID", task.ID, "messageID", task.MessageID, "panic", r)
		}
		if p.OnOutcome != nil {
			p.OnOutcome(task, outcome)
		}
	}()

	outcome = p.dispatcher.Dispatch(ctx, task.MessageID)
	log.Debug("Task complete", "taskID", task.ID, "messageID", task.MessageID, "outcome", outcome.String())
}
