package services

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"spark_server/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IngestJob is one queued location update.
type IngestJob struct {
	JobID  string
	Sample models.LocationSample
}

// IngestQueue is an at-least-once work queue for location updates with
// per-user FIFO: jobs are hashed by user ID onto a fixed partition, and each
// partition is drained by a single goroutine, so one user's updates are never
// reordered or processed in parallel with each other. Jobs for different
// users, including two jobs that reference the same pair, run fully in
// parallel, which is why the cooldown claim must be race-safe on its own.
type IngestQueue struct {
	// Handler runs the full matching and dedup pipeline for a sample.
	// A job is acknowledged only when Handler returns nil.
	Handler func(ctx context.Context, sample models.LocationSample) error
	// DeadLetter receives jobs that exhausted their retries. Optional; the
	// failure is logged either way, never silently dropped.
	DeadLetter func(job IngestJob, err error)

	MaxRetries   int           // retries after the first attempt
	JobTimeout   time.Duration // per-attempt processing timeout
	RetryBackoff time.Duration // base backoff, doubled per retry

	partitions []chan IngestJob
	group      errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// NewIngestQueue creates a queue with the given partition count and
// per-partition buffer.
func NewIngestQueue(partitions, buffer int, handler func(ctx context.Context, sample models.LocationSample) error) *IngestQueue {
	if partitions < 1 {
		partitions = 1
	}
	q := &IngestQueue{
		Handler:      handler,
		MaxRetries:   3,
		JobTimeout:   10 * time.Second,
		RetryBackoff: 100 * time.Millisecond,
	}
	for i := 0; i < partitions; i++ {
		q.partitions = append(q.partitions, make(chan IngestJob, buffer))
	}
	return q
}

// Start launches one worker per partition. Workers run until Close drains
// the channels or ctx is cancelled.
func (q *IngestQueue) Start(ctx context.Context) {
	for _, ch := range q.partitions {
		ch := ch
		q.group.Go(func() error {
			for job := range ch {
				q.process(ctx, job)
			}
			return nil
		})
	}
}

// Enqueue submits a sample and returns its job ID. Non-blocking: a closed
// queue or a full partition fails with ErrQueueUnavailable instead of making
// the caller wait on pipeline outcomes.
func (q *IngestQueue) Enqueue(sample models.LocationSample) (string, error) {
	// The read lock is held across the send so Close cannot close the
	// partition channel between the closed check and the send.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", ErrQueueUnavailable
	}

	job := IngestJob{JobID: uuid.NewString(), Sample: sample}
	select {
	case q.partition(sample.UserID) <- job:
		return job.JobID, nil
	default:
		return "", ErrQueueUnavailable
	}
}

// Close stops accepting work and waits for in-flight jobs to drain.
func (q *IngestQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	// Channels are closed while the write lock is held, after every
	// in-flight Enqueue has released its read lock.
	for _, ch := range q.partitions {
		close(ch)
	}
	q.mu.Unlock()

	_ = q.group.Wait()
}

func (q *IngestQueue) partition(userID string) chan IngestJob {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return q.partitions[int(h.Sum32())%len(q.partitions)]
}

// process runs one job to completion: bounded retries with doubling backoff,
// then the dead-letter path. Retrying inline on the partition worker keeps
// the per-user ordering guarantee intact across retries.
func (q *IngestQueue) process(ctx context.Context, job IngestJob) {
	var err error
	for attempt := 0; attempt <= q.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := q.RetryBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				q.deadLetter(job, ctx.Err())
				return
			}
		}

		jobCtx, cancel := context.WithTimeout(ctx, q.JobTimeout)
		err = q.Handler(jobCtx, job.Sample)
		cancel()
		if err == nil {
			return
		}
		log.Printf("job %s attempt %d failed: %v", job.JobID, attempt+1, err)
	}
	q.deadLetter(job, err)
}

func (q *IngestQueue) deadLetter(job IngestJob, err error) {
	log.Printf("job %s for user %s dead-lettered after %d attempts: %v",
		job.JobID, job.Sample.UserID, q.MaxRetries+1, err)
	if q.DeadLetter != nil {
		q.DeadLetter(job, err)
	}
}
