package notifications

import (
	"context"
	"time"
)

// ChannelQueue est une file en processus, utilisée sans Redis.
type ChannelQueue struct {
	jobs chan *Job
}

func NewChannelQueue(size int) *ChannelQueue {
	return &ChannelQueue{jobs: make(chan *Job, size)}
}

// Enqueue ne bloque jamais : file pleine → ErrQueueFull.
func (q *ChannelQueue) Enqueue(_ context.Context, job *Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *ChannelQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case job := <-q.jobs:
		return job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *ChannelQueue) Len() int { return len(q.jobs) }
