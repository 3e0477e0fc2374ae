package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
)

// TaskHandler is the function executed by a scheduled task.
type TaskHandler func(ctx context.Context) error

// Task is a recurring background task. Interval tasks re-arm with a jittered
// delay; cron tasks follow their cron schedule.
type Task struct {
	Name     string
	Interval time.Duration
	Schedule cron.Schedule
	NextRun  time.Time
	LastRun  *time.Time
	Status   string // "pending", "running", "completed", "failed"
	Handler  TaskHandler
}

// Scheduler runs recurring tasks on a polling tick. All tasks are cancelled
// through the scheduler's context on Stop.
type Scheduler struct {
	mu      sync.RWMutex
	tasks   map[string]*Task
	tick    time.Duration
	jitter  time.Duration
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that checks for due tasks every tick.
// jitter spreads interval task re-arms so sweeps don't align.
func NewScheduler(tick, jitter time.Duration) *Scheduler {
	if tick <= 0 {
		tick = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*Task),
		tick:   tick,
		jitter: jitter,
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterInterval registers a task that runs every interval (plus jitter).
func (s *Scheduler) RegisterInterval(name string, interval time.Duration, handler TaskHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[name] = &Task{
		Name:     name,
		Interval: interval,
		NextRun:  time.Now().Add(s.jittered(interval)),
		Status:   "pending",
		Handler:  handler,
	}
	log.Info("Task registered", "task", name, "interval", interval)
}

// RegisterCron registers a task driven by a standard cron expression.
func (s *Scheduler) RegisterCron(name, spec string, handler TaskHandler) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[name] = &Task{
		Name:     name,
		Schedule: schedule,
		NextRun:  schedule.Next(time.Now()),
		Status:   "pending",
		Handler:  handler,
	}
	log.Info("Task registered", "task", name, "cron", spec)
	return nil
}

// Start starts the scheduler loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	log.Info("Starting background scheduler", "tick", s.tick)

	s.wg.Add(1)
	go s.run()
}

// Stop cancels running tasks and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	log.Info("Stopping background scheduler")
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunTasks()
		}
	}
}

func (s *Scheduler) checkAndRunTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, task := range s.tasks {
		if task.Status == "running" {
			continue
		}
		if !now.Before(task.NextRun) {
			s.runTask(task)
		}
	}
}

func (s *Scheduler) runTask(task *Task) {
	task.Status = "running"
	now := time.Now()
	task.LastRun = &now

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Debug("Running task", "task", task.Name)
		err := task.Handler(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			task.Status = "failed"
			log.Error("Task failed", "task", task.Name, "error", err)
		} else {
			task.Status = "completed"
		}

		if task.Schedule != nil {
			task.NextRun = task.Schedule.Next(time.Now())
		} else {
			task.NextRun = time.Now().Add(s.jittered(task.Interval))
		}
	}()
}

// jittered returns interval plus a random delay in [0, jitter).
func (s *Scheduler) jittered(interval time.Duration) time.Duration {
	if s.jitter <= 0 {
		return interval
	}
	return interval + time.Duration(rand.Int63n(int64(s.jitter)))
}
