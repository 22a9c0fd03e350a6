package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ErrLocked is returned by Start when another process holds the scheduler lock.
var ErrLocked = errors.New("scheduler lock is held by another process")

// jobNamespace derives stable gocron identifiers from recurring job keys.
var jobNamespace = uuid.MustParse("6f1f2a6e-3c8b-4d5e-9a57-2f0b8c1d4e93")

// TaskFunc is the function signature for scheduled tasks.
type TaskFunc func(ctx context.Context) error

// TaskConfig contains configuration for a scheduled task.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string // Cron expression: "0 * * * *" for hourly
	Func        TaskFunc
	RunOnStart  bool // Execute immediately on startup
}

// TaskInfo contains information about a scheduled task for API responses.
type TaskInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cron        string     `json:"cron"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
	Running     bool       `json:"running"`
}

// RecurringJob fires Func at StartAt and every Interval after it.
type RecurringJob struct {
	Key      string
	Name     string
	StartAt  time.Time
	Interval time.Duration
	Func     TaskFunc
}

// taskEntry holds internal task state.
type taskEntry struct {
	config  TaskConfig
	job     gocron.Job
	lastRun *time.Time
	running bool
}

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	location *time.Location
	lockPath string
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLocation sets the zone cron expressions are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithLockPath makes Start take an exclusive file lock at path.
func WithLockPath(path string) Option {
	return func(o *options) { o.lockPath = path }
}

// Scheduler manages background scheduled tasks and keyed recurring jobs.
type Scheduler struct {
	gocron    gocron.Scheduler
	clock     clockwork.Clock
	logger    zerolog.Logger
	lock      *flock.Flock
	tasks     map[string]*taskEntry
	recurring map[string]gocron.Job
	started   bool
	mu        sync.RWMutex
}

// New creates a new scheduler.
func New(logger zerolog.Logger, opts ...Option) (*Scheduler, error) {
	o := options{clock: clockwork.NewRealClock(), location: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	gs, err := gocron.NewScheduler(
		gocron.WithClock(o.clock),
		gocron.WithLocation(o.location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	s := &Scheduler{
		gocron:    gs,
		clock:     o.clock,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		tasks:     make(map[string]*taskEntry),
		recurring: make(map[string]gocron.Job),
	}
	if o.lockPath != "" {
		s.lock = flock.New(o.lockPath)
	}
	return s, nil
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// RegisterTask registers a new scheduled task.
func (s *Scheduler) RegisterTask(config TaskConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[config.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", config.ID)
	}

	taskFunc := func() {
		s.executeTask(config.ID)
	}

	job, err := s.gocron.NewJob(
		gocron.CronJob(config.Cron, false),
		gocron.NewTask(taskFunc),
		gocron.WithName(config.Name),
		gocron.WithTags(config.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job for task %q: %w", config.ID, err)
	}

	s.tasks[config.ID] = &taskEntry{
		config: config,
		job:    job,
	}

	s.logger.Info().
		Str("id", config.ID).
		Str("name", config.Name).
		Str("cron", config.Cron).
		Bool("runOnStart", config.RunOnStart).
		Msg("Registered task")

	return nil
}

// executeTask runs a task and updates its state.
func (s *Scheduler) executeTask(taskID string) {
	s.mu.Lock()
	entry, exists := s.tasks[taskID]
	if !exists {
		s.mu.Unlock()
		return
	}
	entry.running = true
	s.mu.Unlock()

	startTime := s.clock.Now()
	s.logger.Info().
		Str("id", taskID).
		Str("name", entry.config.Name).
		Msg("Starting task")

	err := entry.config.Func(context.Background())

	s.mu.Lock()
	entry.running = false
	entry.lastRun = &startTime
	s.mu.Unlock()

	duration := s.clock.Since(startTime)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("id", taskID).
			Str("name", entry.config.Name).
			Dur("duration", duration).
			Msg("Task failed")
	} else {
		s.logger.Info().
			Str("id", taskID).
			Str("name", entry.config.Name).
			Dur("duration", duration).
			Msg("Task completed")
	}
}

// ScheduleRecurring arms job under its key, replacing any job armed under the
// same key. A StartAt that is not in the future fires immediately.
func (s *Scheduler) ScheduleRecurring(job RecurringJob) error {
	if job.Key == "" {
		return errors.New("recurring job key is required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("recurring job %q has no interval", job.Key)
	}
	if job.Func == nil {
		return fmt.Errorf("recurring job %q has no function", job.Key)
	}

	startAt := gocron.WithStartImmediately()
	if job.StartAt.After(s.clock.Now()) {
		startAt = gocron.WithStartDateTime(job.StartAt)
	}

	key := job.Key
	run := job.Func
	task := func() {
		if err := run(context.Background()); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Recurring job failed")
		}
	}

	name := job.Name
	if name == "" {
		name = key
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	armed, err := s.gocron.Update(
		RecurringID(key),
		gocron.DurationJob(job.Interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithTags("recurring", key),
		gocron.WithStartAt(startAt),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to arm job %q: %w", key, err)
	}
	s.recurring[key] = armed

	s.logger.Debug().
		Str("key", key).
		Time("startAt", job.StartAt).
		Dur("interval", job.Interval).
		Msg("Armed recurring job")

	return nil
}

// Unschedule disarms the recurring job under key. Unknown keys are ignored.
func (s *Scheduler) Unschedule(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recurring[key]; !ok {
		return nil
	}
	delete(s.recurring, key)
	if err := s.gocron.RemoveJob(RecurringID(key)); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("failed to remove job %q: %w", key, err)
	}
	return nil
}

// IsArmed reports whether a recurring job is armed under key.
func (s *Scheduler) IsArmed(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.recurring[key]
	return ok
}

// NextRecurringRun returns when the job under key fires next. It is only
// known once the scheduler is running.
func (s *Scheduler) NextRecurringRun(key string) (time.Time, bool) {
	s.mu.RLock()
	job, ok := s.recurring[key]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	next, err := job.NextRun()
	if err != nil || next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// RecurringID is the gocron identifier for a recurring job key.
func RecurringID(key string) uuid.UUID {
	return uuid.NewSHA1(jobNamespace, []byte(key))
}

// Start takes the scheduler lock, starts the scheduler and runs any tasks
// configured with RunOnStart.
func (s *Scheduler) Start() error {
	if s.lock != nil {
		if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0o750); err != nil {
			return fmt.Errorf("failed to create lock directory: %w", err)
		}
		locked, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire scheduler lock: %w", err)
		}
		if !locked {
			return ErrLocked
		}
	}

	s.logger.Info().Msg("Starting scheduler")

	s.gocron.Start()

	s.mu.Lock()
	s.started = true
	tasksToRun := make([]string, 0)
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			tasksToRun = append(tasksToRun, id)
		}
	}
	s.mu.Unlock()

	for _, taskID := range tasksToRun {
		go s.executeTask(taskID)
	}

	return nil
}

// Started reports whether Start has succeeded.
func (s *Scheduler) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Stop stops the scheduler gracefully and releases the lock.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")
	err := s.gocron.Shutdown()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("failed to release scheduler lock: %w", unlockErr)
		}
	}
	return err
}

// RunNow manually triggers a task to run immediately.
func (s *Scheduler) RunNow(taskID string) error {
	s.mu.RLock()
	entry, exists := s.tasks[taskID]
	running := exists && entry.running
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}

	if running {
		return fmt.Errorf("task %q is already running", taskID)
	}

	go s.executeTask(taskID)
	return nil
}

// ListTasks returns information about all registered tasks ordered by ID.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]TaskInfo, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.info())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetTask returns information about a specific task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task %q not found", taskID)
	}

	info := entry.info()
	return &info, nil
}

func (e *taskEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.config.ID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Cron:        e.config.Cron,
		LastRun:     e.lastRun,
		Running:     e.running,
	}

	nextRun, err := e.job.NextRun()
	if err == nil && !nextRun.IsZero() {
		info.NextRun = &nextRun
	}
	return info
}
