package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Rrens/recruit-advisor/internal/metrics"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Handler executes one task and returns its result string
type Handler func(ctx context.Context, task *Task) (string, error)

// Disposition is the retry decision for a failed attempt
type Disposition struct {
	Retry bool
	Kind  string
}

// Classifier decides whether a handler error is retried
type Classifier func(err error) Disposition

// RetryAll retries every error
func RetryAll(error) Disposition {
	return Disposition{Retry: true, Kind: "error"}
}

// WorkerConfig tunes a worker pool
type WorkerConfig struct {
	Concurrency  int
	PollTimeout  time.Duration
	JobTimeout   time.Duration
	RetryBackoff time.Duration
	PromoteEvery time.Duration
	ResultTTL    time.Duration
}

// Worker pulls tasks from a broker and runs the registered handlers
type Worker struct {
	broker   Broker
	cfg      WorkerConfig
	classify Classifier
	metrics  *metrics.Metrics
	handlers map[string]Handler
	now      func() time.Time
}

// NewWorker creates a worker pool
func NewWorker(broker Broker, cfg WorkerConfig, classify Classifier, m *metrics.Metrics) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 60 * time.Second
	}
	if cfg.PromoteEvery <= 0 {
		cfg.PromoteEvery = time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if classify == nil {
		classify = RetryAll
	}
	return &Worker{
		broker:   broker,
		cfg:      cfg,
		classify: classify,
		metrics:  m,
		handlers: make(map[string]Handler),
		now:      time.Now,
	}
}

// Handle registers the handler for a task name
func (w *Worker) Handle(name string, h Handler) {
	w.handlers[name] = h
}

// Run processes tasks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.cfg.PromoteEvery),
		gocron.NewTask(func() { w.maintain(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule queue maintenance: %w", err)
	}

	if _, ok := w.broker.(Pruner); ok {
		_, err = scheduler.NewJob(
			gocron.DurationJob(time.Minute),
			gocron.NewTask(func() { w.prune(ctx) }),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule task pruning: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	log.Info().Int("concurrency", w.cfg.Concurrency).Msg("Worker pool started")

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()

	log.Info().Msg("Worker pool stopped")
	return nil
}

func (w *Worker) maintain(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if n, err := w.broker.PromoteDue(ctx, w.now()); err != nil {
		log.Error().Err(err).Msg("Failed to promote delayed tasks")
	} else if n > 0 {
		log.Debug().Int("count", n).Msg("Promoted delayed tasks")
	}
	if depth, err := w.broker.Len(ctx); err == nil {
		w.metrics.SetQueueDepth(depth)
	}
	if dc, ok := w.broker.(DelayCounter); ok {
		if n, err := dc.Delayed(ctx); err == nil {
			w.metrics.SetDelayedDepth(n)
		}
	}
}

func (w *Worker) prune(ctx context.Context) {
	p, ok := w.broker.(Pruner)
	if !ok || ctx.Err() != nil {
		return
	}
	n, err := p.Prune(ctx, w.now().Add(-w.cfg.ResultTTL))
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune finished tasks")
		return
	}
	if n > 0 {
		log.Debug().Int("count", n).Msg("Pruned finished tasks")
	}
}

func (w *Worker) loop(ctx context.Context, id int) {
	for ctx.Err() == nil {
		task, err := w.broker.Dequeue(ctx, w.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Int("worker", id).Msg("Failed to dequeue task")
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}
		// Finish the current attempt even if shutdown was requested meanwhile
		w.Process(context.WithoutCancel(ctx), task)
	}
}

// Process runs a single attempt of task and records its outcome
func (w *Worker) Process(ctx context.Context, task *Task) {
	logger := log.With().
		Str("task_id", task.ID).
		Str("task", task.Name).
		Int("attempt", task.Attempt).
		Logger()

	w.setState(ctx, task, StatusRunning, "", nil, "")

	result, err := w.execute(ctx, task)
	if err == nil {
		logger.Info().Msg("Task succeeded")
		w.finish(ctx, task, StatusSuccess, result, nil, "")
		return
	}

	d := w.classify(err)
	if !d.Retry {
		logger.Warn().Err(err).Str("kind", d.Kind).Msg("Task failed terminally")
		w.finish(ctx, task, StatusFailure, "", err, d.Kind)
		return
	}

	if task.Attempt >= task.MaxRetries {
		logger.Error().Err(err).Msg("Task exhausted retries")
		w.finish(ctx, task, StatusFailure, "", fmt.Errorf("max retries exceeded: %w", err), d.Kind)
		return
	}

	task.Attempt++
	logger.Warn().Err(err).Dur("backoff", w.cfg.RetryBackoff).Msg("Task failed, retrying")
	w.metrics.ObserveRetry(task.Name)
	w.setState(ctx, task, StatusPending, "", nil, "")
	if err := w.broker.Enqueue(ctx, task, w.cfg.RetryBackoff); err != nil {
		logger.Error().Err(err).Msg("Failed to requeue task")
		w.finish(ctx, task, StatusFailure, "", fmt.Errorf("failed to requeue: %w", err), d.Kind)
	}
}

func (w *Worker) execute(ctx context.Context, task *Task) (result string, err error) {
	h, ok := w.handlers[task.Name]
	if !ok {
		return "", &unknownTaskError{name: task.Name}
	}

	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("task", task.Name).Bytes("stack", debug.Stack()).Msgf("Task panicked: %v", r)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return h(ctx, task)
}

func (w *Worker) finish(ctx context.Context, task *Task, status Status, result string, err error, kind string) {
	w.setState(ctx, task, status, result, err, kind)
	w.metrics.ObserveTask(task.Name, string(status))
	if task.UniqueKey != "" {
		if err := w.broker.ReleaseUnique(ctx, task.UniqueKey, task.ID); err != nil {
			log.Warn().Err(err).Str("key", task.UniqueKey).Msg("Failed to release unique key")
		}
	}
}

func (w *Worker) setState(ctx context.Context, task *Task, status Status, result string, err error, kind string) {
	state := &State{
		ID:        task.ID,
		Name:      task.Name,
		Status:    status,
		Result:    result,
		ErrorKind: kind,
		Payload:   task.Payload,
		UpdatedAt: w.now().UTC(),
	}
	if err != nil {
		state.Error = err.Error()
	}
	if err := w.broker.SetState(ctx, state); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Failed to record task state")
	}
}

type unknownTaskError struct {
	name string
}

func (e *unknownTaskError) Error() string {
	return fmt.Sprintf("no handler registered for task %q", e.name)
}

// IsUnknownTask reports whether err came from a task without a handler
func IsUnknownTask(err error) bool {
	var u *unknownTaskError
	return errors.As(err, &u)
}
