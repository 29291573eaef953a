package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/interfaces"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/usecase"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultInterval is the default poll cadence of the scheduler loop
const DefaultInterval = 30 * time.Second

// sessionExpiredMessage is sent proactively when a deferred task finds the
// user's token is no longer obtainable
const sessionExpiredMessage = "Your session has expired. Please send me a message to sign in again, then reschedule your task."

// Scheduler runs deferred tasks against stored conversation references.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Tasks execute at most once: they are removed from the store before
//   execution, so a crash loses tasks instead of duplicating them
type Scheduler struct {
	repo             interfaces.Repository
	tokenUC          *usecase.TokenUseCase
	proactiveUC      *usecase.ProactiveUseCase
	directoryFactory interfaces.DirectoryClientFactory
	interval         time.Duration
	stopCh           chan struct{}
	doneCh           chan struct{}
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithInterval overrides the poll cadence
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a scheduler. Start must be called before it processes tasks.
func New(repo interfaces.Repository, tokenUC *usecase.TokenUseCase, proactiveUC *usecase.ProactiveUseCase, factory interfaces.DirectoryClientFactory, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:             repo,
		tokenUC:          tokenUC,
		proactiveUC:      proactiveUC,
		directoryFactory: factory,
		interval:         DefaultInterval,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule persists a task due after delay. The conversation reference is
// copied at schedule time and unaffected by later context updates.
func (s *Scheduler) Schedule(ctx context.Context, userID types.UserID, ref *model.ConversationReference, taskType types.TaskType, delay time.Duration) (types.TaskID, error) {
	if ref.IsZero() {
		return "", goerr.New("conversation reference is missing routing data",
			goerr.V("userID", userID))
	}
	if !taskType.IsValid() {
		return "", goerr.New("unknown task type", goerr.V("taskType", taskType))
	}

	task := model.NewScheduledTask(userID, ref, taskType, delay)
	if err := s.repo.Task().Put(ctx, task); err != nil {
		return "", goerr.Wrap(err, "failed to store scheduled task",
			goerr.V("taskID", task.ID))
	}

	logging.From(ctx).Info("task scheduled",
		"taskID", task.ID,
		"userID", userID,
		"taskType", taskType.String(),
		"executeAt", task.ExecuteAt,
	)
	return task.ID, nil
}

// Start begins the background execution loop. Does not block.
func (s *Scheduler) Start(ctx context.Context) error {
	logging.Default().Info("task scheduler starting",
		"interval", s.interval.String())

	go s.run(ctx)

	return nil
}

// Stop signals the loop to stop and waits for completion
func (s *Scheduler) Stop() {
	logging.Default().Info("task scheduler stopping")
	close(s.stopCh)
	<-s.doneCh
	logging.Default().Info("task scheduler stopped")
}

// run is the main loop (runs in goroutine)
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.tick(ctx, time.Now().UTC()); err != nil {
				// Log and keep the loop alive
				logging.Default().Error("task tick failed (will retry next interval)",
					"error", err.Error())
			}

		case <-s.stopCh:
			logging.Default().Info("task scheduler received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("task scheduler context cancelled")
			return
		}
	}
}

// tick drains the due set and executes each task once, sequentially. Task
// failures are terminal: the task was already removed and is never retried.
func (s *Scheduler) tick(ctx context.Context, now time.Time) error {
	tasks, err := s.repo.Task().PopDue(ctx, now)
	if err != nil {
		return goerr.Wrap(err, "failed to pop due tasks")
	}
	if len(tasks) == 0 {
		return nil
	}

	logger := logging.From(ctx)
	logger.Info("executing due tasks", "count", len(tasks))

	for _, task := range tasks {
		if err := s.execute(ctx, task); err != nil {
			logger.Error("task execution failed",
				"taskID", task.ID,
				"userID", task.UserID,
				"taskType", task.TaskType.String(),
				"error", err.Error(),
			)
		}
	}

	return nil
}

// execute runs a single task inside a proactive session on its captured
// conversation reference
func (s *Scheduler) execute(ctx context.Context, task *model.ScheduledTask) error {
	return s.proactiveUC.Open(ctx, task.ConversationReference, func(ctx context.Context, session *usecase.Session) error {
		switch task.TaskType {
		case types.TaskTypeCalendarCheck:
			return s.calendarCheck(ctx, task, session)
		default:
			return goerr.New("unknown task type", goerr.V("taskType", task.TaskType))
		}
	})
}

// calendarCheck fetches the rest of today's calendar for the task's user and
// posts a summary into the reopened conversation. An unavailable token turns
// into a sign-in notice rather than a silent failure.
func (s *Scheduler) calendarCheck(ctx context.Context, task *model.ScheduledTask, session *usecase.Session) error {
	result := s.tokenUC.Acquire(ctx, task.UserID, false)
	if !result.OK() {
		if err := session.Send(ctx, sessionExpiredMessage); err != nil {
			return goerr.Wrap(err, "failed to send session-expired notice")
		}
		return nil
	}

	if s.directoryFactory == nil {
		return goerr.New("no directory client factory configured")
	}

	dir := s.directoryFactory(result.Token)
	events, err := dir.GetEvents(ctx, model.TodayRemaining(time.Now().UTC()))
	if err != nil {
		return goerr.Wrap(err, "failed to fetch calendar events",
			goerr.V("taskID", task.ID))
	}

	return session.Send(ctx, formatCalendarSummary(events))
}

func formatCalendarSummary(events []*model.Event) string {
	if len(events) == 0 {
		return "Calendar check: you have no more events today. 🎉"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Calendar check: %d event(s) left today:\n", len(events))
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s at %s", ev.Subject, ev.Start.Format("15:04"))
		if ev.Location != "" {
			fmt.Fprintf(&b, " (%s)", ev.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
