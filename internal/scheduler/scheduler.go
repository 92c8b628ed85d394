package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MrSnakeDoc/sightings/internal/logger"
)

// Action is one scheduled unit of work. It runs on the scheduler's goroutine
// and must handle its own errors.
type Action func(ctx context.Context)

// job is an entry of the due-time queue.
type job struct {
	name     string
	interval time.Duration
	action   Action
	next     time.Time
	seq      int // registration order
	index    int // position in the heap
}

// jobQueue orders jobs by next due time, then registration order.
type jobQueue []*job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].next.Equal(q[j].next) {
		return q[i].seq < q[j].seq
	}
	return q[i].next.Before(q[j].next)
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x any) {
	j := x.(*job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*q = old[:n-1]
	return j
}

// Scheduler is a single-threaded periodic dispatcher. Jobs never overlap:
// every action runs synchronously inside RunPending, so a slow action delays
// everything behind it.
type Scheduler struct {
	queue  jobQueue
	seq    int
	logger logger.Logger
	now    func() time.Time
}

// New creates an empty scheduler
func New(log logger.Logger) *Scheduler {
	return &Scheduler{
		logger: log,
		now:    time.Now,
	}
}

// WithClock replaces the time source (tests).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Every registers action to run each interval. The first run is due one
// interval from now.
func (s *Scheduler) Every(name string, interval time.Duration, action Action) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be > 0, got %v", name, interval)
	}
	if action == nil {
		return fmt.Errorf("job %s: action is nil", name)
	}

	heap.Push(&s.queue, &job{
		name:     name,
		interval: interval,
		action:   action,
		next:     s.now().Add(interval),
		seq:      s.seq,
	})
	s.seq++

	s.logger.Debug("job scheduled",
		logger.String("job", name),
		logger.Duration("interval", interval))
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.queue) }

// NextRun returns the earliest due time, or false when nothing is scheduled.
func (s *Scheduler) NextRun() (time.Time, bool) {
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].next, true
}

// RunPending runs every job that is due, in registration order, and returns
// how many ran. Each due job runs once regardless of how many intervals have
// elapsed, then is rescheduled one interval after it finished.
func (s *Scheduler) RunPending(ctx context.Context) int {
	now := s.now()

	var due []*job
	for len(s.queue) > 0 && !s.queue[0].next.After(now) {
		due = append(due, heap.Pop(&s.queue).(*job))
	}
	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })

	for _, j := range due {
		s.logger.Debug("running job", logger.String("job", j.name))
		j.action(ctx)
		j.next = s.now().Add(j.interval)
		heap.Push(&s.queue, j)
	}

	return len(due)
}

// Run polls for due jobs every tick until ctx is cancelled. Cancellation is
// observed between polls only; a running action is never interrupted by it.
func (s *Scheduler) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		return fmt.Errorf("tick must be > 0, got %v", tick)
	}

	// Actions outlive a cancellation that arrives while they run.
	actionCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		s.RunPending(actionCtx)

		timer := time.NewTimer(tick)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
