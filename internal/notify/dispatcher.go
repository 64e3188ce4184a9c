package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// Errors returned by Enqueue.
var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrStopped   = errors.New("notification dispatcher is stopped")
)

// Recorder stores the outcome of a send on the question it belongs to.
type Recorder interface {
	RecordNotification(ctx context.Context, questionID string, n types.Notification) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, questionID string, n types.Notification) error

func (f RecorderFunc) RecordNotification(ctx context.Context, questionID string, n types.Notification) error {
	return f(ctx, questionID, n)
}

// Job is one notification to deliver.
type Job struct {
	QuestionID string
	Message    Message
	// Prepare, when set, runs on the worker just before the send and may
	// fill in details that were too costly to look up when queuing.
	Prepare func(ctx context.Context, msg *Message)
}

// Options tunes a Dispatcher. Zero values fall back to defaults.
type Options struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	// RecordTimeout bounds the status write after each send.
	RecordTimeout time.Duration
}

// Dispatcher delivers Jobs on a fixed pool of worker goroutines.
//
// Each job gets exactly one send attempt. Its Result is then handed to the
// Recorder; a failing Recorder is logged and otherwise ignored. Nothing is
// persisted about queued jobs, so a job still queued when the process dies
// is lost.
type Dispatcher struct {
	sender   Sender
	recorder Recorder
	opts     Options
	log      *slog.Logger
	now      func() time.Time

	queue chan Job
	wg    sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
	once    sync.Once
}

// NewDispatcher starts opts.Workers workers.
func NewDispatcher(sender Sender, recorder Recorder, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		sender:   sender,
		recorder: recorder,
		opts:     opts,
		log:      slog.Default().With(slog.String("component", "notify")),
		now:      func() time.Time { return time.Now().UTC() },
		queue:    make(chan Job, opts.QueueSize),
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue hands job to the workers without blocking. It fails with
// ErrQueueFull when every slot is taken and ErrStopped after Shutdown.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued and in-flight jobs to
// finish, or for ctx to expire, whichever comes first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		d.process(job)
	}
}

func (d *Dispatcher) process(job Job) {
	// Jobs outlive the request that queued them, so they never inherit its
	// context.
	ctx := context.Background()
	if d.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
	}

	res := d.send(ctx, job)

	log := d.log.With(slog.String("question_id", job.QuestionID))
	if res.Success {
		log.Info("answer email sent", slog.String("result", res.Message))
	} else {
		log.Warn("answer email failed", slog.String("error", res.Message))
	}

	d.Record(job.QuestionID, res)
}

// send prepares and sends one job, turning a panic into a failed Result.
func (d *Dispatcher) send(ctx context.Context, job Job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed("Email service error: %v", r)
		}
	}()
	msg := job.Message
	if job.Prepare != nil {
		job.Prepare(ctx, &msg)
	}
	return d.sender.Send(ctx, msg)
}

// Record writes res onto the question's notification record. Errors are
// logged and swallowed.
func (d *Dispatcher) Record(questionID string, res Result) {
	n := types.Notification{Sent: res.Success}
	if res.Success {
		at := d.now()
		n.SentAt = &at
	} else {
		n.Error = res.Message
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.RecordTimeout)
	defer cancel()

	if err := d.recorder.RecordNotification(ctx, questionID, n); err != nil {
		d.log.Error("failed to update notification status",
			slog.String("question_id", questionID),
			slog.String("error", err.Error()))
	}
}
