package printer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thereceipt/label-engine/internal/registry"
)

// ErrJobNotFound is returned for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// Job states.
const (
	StatusQueued    = "queued"
	StatusPrinting  = "printing"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Job is a batch of labels for one printer.
type Job struct {
	ID        string    `json:"id"`
	PrinterID string    `json:"printer_id"`
	Labels    int       `json:"labels"`
	Retries   int       `json:"retries"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	images    []image.Image
	notBefore time.Time
}

// Resolver looks up registered printers.
type Resolver interface {
	Get(id string) (registry.Entry, error)
}

// QueueOptions tunes retries and polling.
type QueueOptions struct {
	MaxRetries   int
	RetryDelay   time.Duration
	PollInterval time.Duration
	// OnUpdate is called after every state change with a copy of the job.
	OnUpdate func(Job)
}

// Queue prints jobs one at a time on a single worker goroutine, retrying
// failures up to MaxRetries attempts.
type Queue struct {
	jobs     []*Job
	mu       sync.Mutex
	pool     *Pool
	printers Resolver
	opts     QueueOptions
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewQueue creates a queue and starts its worker.
func NewQueue(pool *Pool, printers Resolver, logger *slog.Logger, opts QueueOptions) *Queue {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		pool:     pool,
		printers: printers,
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Enqueue adds a job and returns its id.
func (q *Queue) Enqueue(printerID string, imgs []image.Image) string {
	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		PrinterID: printerID,
		Labels:    len(imgs),
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		images:    imgs,
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	snapshot := *job
	q.mu.Unlock()

	q.logger.Info("print job queued", slog.String("job", job.ID), slog.String("printer", printerID), slog.Int("labels", len(imgs)))
	q.publish(snapshot)
	return job.ID
}

func (q *Queue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNext()
		}
	}
}

func (q *Queue) processNext() {
	now := time.Now()

	q.mu.Lock()
	var job *Job
	for _, j := range q.jobs {
		if j.Status == StatusQueued && !now.Before(j.notBefore) {
			job = j
			break
		}
	}
	if job == nil {
		q.mu.Unlock()
		return
	}
	job.Status = StatusPrinting
	job.UpdatedAt = now
	snapshot := *job
	q.mu.Unlock()
	q.publish(snapshot)

	err := q.print(job.PrinterID, job.images)

	q.mu.Lock()
	job.UpdatedAt = time.Now()
	if err != nil {
		job.Retries++
		job.Error = err.Error()
		if job.Retries >= q.opts.MaxRetries {
			job.Status = StatusFailed
			job.images = nil
			q.logger.Error("print job failed", slog.String("job", job.ID), slog.Int("attempts", job.Retries), slog.Any("error", err))
		} else {
			job.Status = StatusQueued
			job.notBefore = job.UpdatedAt.Add(q.opts.RetryDelay)
			q.logger.Warn("print job failed, retrying", slog.String("job", job.ID), slog.Int("attempt", job.Retries), slog.Int("max", q.opts.MaxRetries), slog.Any("error", err))
		}
	} else {
		job.Status = StatusCompleted
		job.Error = ""
		job.images = nil
		q.logger.Info("print job completed", slog.String("job", job.ID))
	}
	snapshot = *job
	q.mu.Unlock()
	q.publish(snapshot)
}

func (q *Queue) print(printerID string, imgs []image.Image) error {
	if !q.pool.IsConnected(printerID) {
		entry, err := q.printers.Get(printerID)
		if err != nil {
			return fmt.Errorf("printer %s: %w", printerID, err)
		}
		if err := q.pool.Connect(entry); err != nil {
			return fmt.Errorf("failed to connect to printer: %w", err)
		}
	}
	return q.pool.Print(printerID, imgs)
}

func (q *Queue) publish(job Job) {
	if q.opts.OnUpdate != nil {
		job.images = nil
		q.opts.OnUpdate(job)
	}
}

// Job returns a copy of the job with id.
func (q *Queue) Job(id string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == id {
			out := *job
			out.images = nil
			return out, nil
		}
	}
	return Job{}, ErrJobNotFound
}

// Jobs returns copies of all jobs, oldest first.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Job, len(q.jobs))
	for i, job := range q.jobs {
		out[i] = *job
		out[i].images = nil
	}
	return out
}

// ClearCompleted removes completed jobs.
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.jobs[:0]
	for _, job := range q.jobs {
		if job.Status != StatusCompleted {
			kept = append(kept, job)
		}
	}
	q.jobs = kept
}

// Stop stops the worker and closes every connection.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
	q.pool.DisconnectAll()
}
