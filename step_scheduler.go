// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quiesce

import (
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
)

// StepScheduler queues tasks and runs them only when the host asks it to.
// It is meant for hosts that drive their own event loop, and for tests
// that need to observe the state between two turns.
type StepScheduler struct {
	lock sync.Mutex

	tasks  []task
	turn   uint64
	closed bool

	log Logger
}

// NewStepScheduler creates a StepScheduler. A nil log discards everything.
func NewStepScheduler(log Logger) *StepScheduler {
	if log == nil {
		log = logging.NoLog{}
	}
	return &StepScheduler{
		log: log,
	}
}

func (s *StepScheduler) Schedule(f Task) (TaskEnd, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	done := make(TaskEnd)
	if s.closed {
		close(done)
		return done, ErrSchedulerClosed
	}

	s.tasks = append(s.tasks, task{f: f, done: done})
	return done, nil
}

// Pending returns the number of tasks queued for a future turn.
func (s *StepScheduler) Pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.tasks)
}

// Turn returns the number of turns executed so far.
func (s *StepScheduler) Turn() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.turn
}

// Step runs the oldest queued task, if any, and reports whether a task ran.
// Tasks scheduled while the task runs are left for later turns.
func (s *StepScheduler) Step() bool {
	s.lock.Lock()
	if len(s.tasks) == 0 {
		s.lock.Unlock()
		return false
	}

	next := s.tasks[0]
	s.tasks[0] = task{}
	s.tasks = s.tasks[1:]
	s.turn++
	turn := s.turn
	s.lock.Unlock()

	s.log.Verbo("Executing turn", zap.Uint64("turn", turn))
	next.f()
	close(next.done)
	return true
}

// RunUntilIdle steps until no task is queued, and returns the number of turns it ran.
func (s *StepScheduler) RunUntilIdle() int {
	var n int
	for s.Step() {
		n++
	}
	return n
}

// Close refuses any further task. Queued tasks are dropped and never run.
func (s *StepScheduler) Close() {
	s.lock.Lock()
	pending := s.tasks
	s.tasks = nil
	s.closed = true
	s.lock.Unlock()

	for _, t := range pending {
		close(t.done)
	}
}
