// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quiesce

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
)

var (
	ErrSchedulerClosed = errors.New("scheduler is closed")
	ErrSchedulerFull   = errors.New("scheduler task queue is full")
)

// TaskEnd is closed when a task finishes or never executes.
type TaskEnd chan struct{}

type Task func()

type task struct {
	f    Task
	done TaskEnd
}

// BasicScheduler runs tasks one at a time, in FIFO order, on a dedicated goroutine.
// Each task is a single turn.
type BasicScheduler struct {
	logger Logger

	lock     sync.Mutex
	signal   sync.Cond
	closed   bool
	tasks    []task
	maxTasks uint64
	running  sync.WaitGroup
}

// NewScheduler creates a BasicScheduler and starts its run loop.
// A maxTasks of zero means the task queue is unbounded.
// A nil logger discards everything.
func NewScheduler(logger Logger, maxTasks uint64) *BasicScheduler {
	if logger == nil {
		logger = logging.NoLog{}
	}

	s := &BasicScheduler{
		logger:   logger,
		maxTasks: maxTasks,
	}
	s.signal.L = &s.lock

	s.logger.Debug("Created Scheduler", zap.Uint64("maxTasks", maxTasks))

	s.running.Add(1)
	go s.run()

	return s
}

// Size returns the number of tasks waiting to run.
func (as *BasicScheduler) Size() int {
	as.lock.Lock()
	defer as.lock.Unlock()

	return len(as.tasks)
}

// Close stops the run loop and waits for the task in progress to finish.
// Tasks that have not started yet never run, and their TaskEnd is closed.
func (as *BasicScheduler) Close() {
	as.lock.Lock()
	if as.closed {
		as.lock.Unlock()
		return
	}
	as.closed = true
	pending := as.tasks
	as.tasks = nil
	as.signal.Broadcast()
	as.lock.Unlock()

	for _, t := range pending {
		close(t.done)
	}

	as.running.Wait()
	as.logger.Debug("Scheduler closed", zap.Int("dropped tasks", len(pending)))
}

func (as *BasicScheduler) run() {
	defer as.running.Done()
	for {
		as.lock.Lock()
		for len(as.tasks) == 0 && !as.closed {
			as.signal.Wait()
		}
		if as.closed {
			as.lock.Unlock()
			return
		}
		next := as.tasks[0]
		as.tasks[0] = task{}
		as.tasks = as.tasks[1:]
		remaining := len(as.tasks)
		as.lock.Unlock()

		as.logger.Verbo("Running task", zap.Int("remaining ready tasks", remaining))
		next.f()
		close(next.done)
	}
}

func (as *BasicScheduler) Schedule(f Task) (TaskEnd, error) {
	as.lock.Lock()
	defer as.lock.Unlock()

	done := make(TaskEnd)

	if as.closed {
		close(done)
		return done, ErrSchedulerClosed
	}

	if as.maxTasks > 0 && uint64(len(as.tasks)) >= as.maxTasks {
		as.logger.Warn("Scheduler task queue is full; task was not scheduled", zap.Uint64("maxTasks", as.maxTasks))
		close(done)
		return done, fmt.Errorf("%w: %d tasks pending", ErrSchedulerFull, len(as.tasks))
	}

	as.logger.Verbo("Scheduling new ready task", zap.Int("ready tasks", len(as.tasks)+1))
	as.tasks = append(as.tasks, task{
		f:    f,
		done: done,
	})
	as.signal.Signal()

	return done, nil
}
