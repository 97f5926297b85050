package tasks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vidpulse/backend/pkg/queue"
)

type enqueued struct {
	Name    string
	Payload interface{}
	Opts    queue.EnqueueOptions
}

type fakeQueue struct {
	mu    sync.Mutex
	jobs  []enqueued
	err   error
	retry []time.Duration
	dead  []queue.Job
}

func (q *fakeQueue) DeadLetters(context.Context, int64) ([]queue.Job, error) {
	return q.dead, q.err
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, payload interface{}, opts queue.EnqueueOptions) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, enqueued{Name: name, Payload: payload, Opts: opts})
	return "task-" + name, nil
}

// Retry follows the queue's exhaustion rule without Redis.
func (q *fakeQueue) Retry(_ context.Context, job *queue.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	if job.Attempt >= job.MaxRetries {
		return queue.ErrRetriesExhausted
	}
	q.retry = append(q.retry, delay)
	return nil
}

func (q *fakeQueue) names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Name)
	}
	return out
}

type seqRand struct {
	ints   []int
	floats []float64
}

func (r *seqRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

type published struct {
	Event   string
	Payload interface{}
}

type fakePublisher struct {
	events []published
}

func (p *fakePublisher) Publish(_ context.Context, event string, payload interface{}) error {
	p.events = append(p.events, published{event, payload})
	return nil
}

func newJob(name string, payload interface{}) *queue.Job {
	raw, _ := json.Marshal(payload)
	return &queue.Job{ID: "job-1", Name: name, Payload: raw, MaxRetries: PolicyFor(name).MaxRetries}
}
