// Package scanner implements the periodic sweep that finds tasks coming
// due and hands them to the notification dispatcher.
package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/notify"
	"github.com/vporoshok/taskping/internal/store"
)

// DefaultLookahead is how far ahead of now a due time may lie for the
// task to be picked up.
const DefaultLookahead = 24 * time.Hour

// DueTimeFormat renders the due timestamp on the second message line.
const DueTimeFormat = "Jan 2, 2006 15:04"

// Dispatcher accepts messages for asynchronous delivery. Implemented by
// *notify.Dispatcher.
type Dispatcher interface {
	Enqueue(msg notify.Message) error
}

// Config tunes a Scanner.
type Config struct {
	// Lookahead bounds the notification window: tasks due within
	// (now, now+Lookahead] are candidates. Defaults to DefaultLookahead.
	Lookahead time.Duration

	// Location localizes the due time shown in the message text.
	// Defaults to UTC.
	Location *time.Location
}

// Scanner selects due, unnotified tasks under row locks, enqueues a
// Telegram message per task and marks each one notified within the same
// transaction. SKIP LOCKED on the selection lets concurrent runs partition
// the candidate set, so a task is dispatched at most once.
type Scanner struct {
	tasks      store.TaskStore
	transactor store.Transactor
	dispatcher Dispatcher
	lookahead  time.Duration
	location   *time.Location
	logger     *slog.Logger

	// now is swapped in tests to pin the window.
	now func() time.Time
}

// New creates a Scanner. The task store must be the base (non-transactional)
// store; Run binds it to its own transaction.
func New(
	tasks store.TaskStore,
	transactor store.Transactor,
	dispatcher Dispatcher,
	config Config,
	logger *slog.Logger,
) *Scanner {
	if config.Lookahead <= 0 {
		config.Lookahead = DefaultLookahead
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		tasks:      tasks,
		transactor: transactor,
		dispatcher: dispatcher,
		lookahead:  config.Lookahead,
		location:   config.Location,
		logger:     logger.With(slog.String("component", "due_task_scanner")),
		now:        time.Now,
	}
}

// Run performs one sweep and returns the number of tasks marked notified.
// Enqueue acceptance counts as dispatch: delivery happens out of band and
// delivery failures surface on the dispatcher's failure channel, not here.
// A task whose enqueue is rejected (queue full, dispatcher stopped) is left
// untouched and will be retried by the next run.
func (s *Scanner) Run(ctx context.Context) (int, error) {
	now := s.now().UTC()
	windowEnd := now.Add(s.lookahead)

	processed := 0

	err := s.transactor.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		due, err := tasks.FindDueUnnotified(ctx, now, windowEnd)
		if err != nil {
			return fmt.Errorf("failed to select due tasks: %w", err)
		}

		for _, task := range due {
			if err := s.dispatch(ctx, tasks, task); err != nil {
				s.logger.Error("failed to dispatch due notification",
					slog.String("task_id", task.ID),
					slog.String("error", err.Error()))
				continue
			}
			processed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("due task scan complete",
		slog.Time("window_start", now),
		slog.Time("window_end", windowEnd),
		slog.Int("processed", processed))

	return processed, nil
}

// dispatch enqueues the notification and records the dispatch. The mark
// happens only after the queue accepts the message, and its IS NULL guard
// makes the transition idempotent even if another run raced us here.
func (s *Scanner) dispatch(ctx context.Context, tasks store.TaskStore, task *domain.DueTask) error {
	msg := notify.Message{
		ChatID: task.TelegramChatID,
		Text:   s.messageText(task),
	}

	if err := s.dispatcher.Enqueue(msg); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	marked, err := tasks.MarkNotified(ctx, task.ID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark task notified: %w", err)
	}
	if !marked {
		s.logger.Warn("task already marked notified",
			slog.String("task_id", task.ID))
	}

	return nil
}

func (s *Scanner) messageText(task *domain.DueTask) string {
	return task.Title + "\n" + task.DueAt.In(s.location).Format(DueTimeFormat)
}
