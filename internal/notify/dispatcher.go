package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the Dispatcher.
var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// Sender performs a single delivery attempt. Implemented by *Client;
// replaced with fakes in tests.
type Sender interface {
	SendMessage(ctx context.Context, msg Message) (*Response, error)
}

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	// WorkerCount determines how many concurrent delivery workers run.
	WorkerCount int

	// QueueSize determines the buffer size of the in-memory queue.
	QueueSize int

	// MaxAttempts bounds delivery attempts per message, first try included.
	MaxAttempts int

	// RetryBase is the backoff base: delay = min(base * 2^attempt, cap).
	RetryBase time.Duration

	// RetryCap caps the backoff delay.
	RetryCap time.Duration

	// FailureBuffer sizes the failure channel. When the channel is full,
	// further failures are logged and dropped rather than blocking workers.
	FailureBuffer int
}

// DefaultDispatcherConfig returns a DispatcherConfig with the production
// retry policy: up to 5 attempts, 5s base delay, 60s cap.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		WorkerCount:   2,
		QueueSize:     256,
		MaxAttempts:   5,
		RetryBase:     5 * time.Second,
		RetryCap:      60 * time.Second,
		FailureBuffer: 64,
	}
}

// Dispatcher owns the asynchronous delivery pipeline: a buffered queue fed
// by Enqueue and drained by a pool of workers that retry transient failures
// with exponential backoff. Enqueue acceptance means the message will be
// attempted, not that it was delivered; callers needing delivery outcomes
// watch the Failures channel.
type Dispatcher struct {
	sender   Sender
	queue    chan Message
	failures chan DeliveryFailure
	config   DispatcherConfig
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher around the given sender. Call Start
// to launch the workers.
func NewDispatcher(sender Sender, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.FailureBuffer <= 0 {
		config.FailureBuffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		sender:   sender,
		queue:    make(chan Message, config.QueueSize),
		failures: make(chan DeliveryFailure, config.FailureBuffer),
		config:   config,
		logger:   logger.With(slog.String("component", "notify_dispatcher")),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("dispatcher started",
		slog.Int("worker_count", d.config.WorkerCount),
		slog.Int("queue_size", d.config.QueueSize))
}

// Enqueue submits a message for out-of-band delivery and returns
// immediately. A zero message ID is assigned here. Returns ErrQueueFull
// when the buffer is exhausted and ErrQueueClosed after Stop.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrQueueClosed
	}
	d.mu.Unlock()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	select {
	case d.queue <- msg:
		d.logger.Debug("message enqueued",
			slog.String("message_id", msg.ID.String()),
			slog.Int64("chat_id", msg.ChatID),
			slog.Int("queue_len", len(d.queue)))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(d.queue))
	}
}

// Failures exposes dropped messages: permanent rejections and retry
// exhaustion. Consumers should drain it; overflow is logged and discarded.
func (d *Dispatcher) Failures() <-chan DeliveryFailure {
	return d.failures
}

// Stop prevents further submissions, cancels in-flight backoff waits and
// waits for the workers to drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	// The queue channel is deliberately left open: no receiver ranges
	// over it, and closing it would let an Enqueue racing Stop panic on
	// a send between its closed-flag check and the channel send.
	close(d.failures)
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	log := d.logger.With(slog.Int("worker_id", id))
	log.Debug("starting delivery worker")

	for {
		select {
		case <-d.ctx.Done():
			log.Debug("stopping delivery worker")
			return
		case msg := <-d.queue:
			d.deliver(msg, log)
		}
	}
}

// deliver runs the retry loop for one message. Only transient errors are
// retried; the attempt counter starts at zero so the first retry waits the
// base delay.
func (d *Dispatcher) deliver(msg Message, log *slog.Logger) {
	var lastErr error

	for attempt := 0; attempt < d.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt-1, d.config.RetryBase, d.config.RetryCap)
			log.Warn("retrying notification",
				slog.String("message_id", msg.ID.String()),
				slog.Int64("chat_id", msg.ChatID),
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", d.config.MaxAttempts),
				slog.Duration("delay", delay))

			timer := time.NewTimer(delay)
			select {
			case <-d.ctx.Done():
				timer.Stop()
				d.reportFailure(msg, attempt, d.ctx.Err(), log)
				return
			case <-timer.C:
			}
		}

		_, err := d.sender.SendMessage(d.ctx, msg)
		if err == nil {
			log.Info("notification delivered",
				slog.String("message_id", msg.ID.String()),
				slog.Int64("chat_id", msg.ChatID),
				slog.Int("attempts", attempt+1))
			return
		}
		lastErr = err

		if !IsRetryable(err) {
			log.Error("notification rejected permanently",
				slog.String("message_id", msg.ID.String()),
				slog.Int64("chat_id", msg.ChatID),
				slog.String("error", err.Error()))
			d.reportFailure(msg, attempt+1, err, log)
			return
		}
	}

	log.Error("notification failed after exhausting retries",
		slog.String("message_id", msg.ID.String()),
		slog.Int64("chat_id", msg.ChatID),
		slog.Int("attempts", d.config.MaxAttempts),
		slog.String("error", lastErr.Error()))
	d.reportFailure(msg, d.config.MaxAttempts, lastErr, log)
}

func (d *Dispatcher) reportFailure(msg Message, attempts int, err error, log *slog.Logger) {
	failure := DeliveryFailure{
		Message:  msg,
		Attempts: attempts,
		Err:      err,
		At:       time.Now().UTC(),
	}
	select {
	case d.failures <- failure:
	default:
		log.Warn("failure channel full, dropping failure report",
			slog.String("message_id", msg.ID.String()))
	}
}

// retryDelay computes the exponential backoff delay for the given retry
// index: min(base * 2^retry, cap).
func retryDelay(retry int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < retry; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
