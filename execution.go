// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quiesce

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	list "github.com/bahlo/generic-list-go"
	"go.uber.org/zap"
)

var ErrUnderflow = errors.New("busy count decremented below zero")

var (
	_ ExecutingCounter = (*BusyCounter)(nil)
	_ ExecutingCounter = NoOpExecutingCounter{}
)

type NoOpExecutingCounter struct{}

func (f NoOpExecutingCounter) Increment() {
}

func (f NoOpExecutingCounter) Decrement() error {
	return nil
}

func (f NoOpExecutingCounter) Wait(context.Context) error {
	return nil
}

type BusyCounterConfig struct {
	// Logger defaults to a logger that discards everything.
	Logger Logger
	// Scheduler runs the drain steps. Its Schedule must not run the task
	// before returning, and must close the TaskEnd of a task it drops.
	// If nil, the counter starts its own BasicScheduler, which is stopped by Close.
	Scheduler Scheduler
	// Name identifies the counter in log entries and errors.
	Name string
}

// BusyCounter counts outstanding units of work, and lets callers wait
// until the count drops to zero.
//
// Waiters are never released from within Decrement. When the count drops to zero,
// a drain step is scheduled which releases the oldest waiter and schedules the next step,
// so every release happens on its own turn, in FIFO order.
// An Increment between two steps halts draining until the count reaches zero again.
type BusyCounter struct {
	BusyCounterConfig

	lock           sync.Mutex
	count          int
	waiters        *list.List[*waiter]
	drainScheduled bool
	// drainGen identifies the most recently scheduled drain step.
	drainGen     uint64
	nextWaiterID uint64

	ownScheduler *BasicScheduler
}

type waiter struct {
	id uint64
	// released is closed on release, unless the waiter is a continuation.
	released chan struct{}
	f        func()
	// elem is nil once the waiter has left the queue.
	elem *list.Element[*waiter]
}

func (w *waiter) release() {
	if w.f != nil {
		w.f()
		return
	}
	close(w.released)
}

func NewBusyCounter(config BusyCounterConfig) *BusyCounter {
	bc := &BusyCounter{
		BusyCounterConfig: config,
		waiters:           list.New[*waiter](),
	}

	if bc.Logger == nil {
		bc.Logger = logging.NoLog{}
	}

	if bc.Scheduler == nil {
		bc.ownScheduler = NewScheduler(bc.Logger, 0)
		bc.Scheduler = bc.ownScheduler
	}

	return bc
}

// Close stops the scheduler created by NewBusyCounter, if any.
// Waiters still queued are not released.
func (bc *BusyCounter) Close() {
	if bc.ownScheduler != nil {
		bc.ownScheduler.Close()
	}
}

func (bc *BusyCounter) Increment() {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	bc.count++
	bc.Logger.Trace("Incremented busy count", bc.nameField(), zap.Int("count", bc.count))
}

func (bc *BusyCounter) Decrement() error {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	if bc.count == 0 {
		bc.Logger.Error("Busy count decremented below zero", bc.nameField(), zap.Int("waiters", bc.waiters.Len()))
		return fmt.Errorf("%w: counter %q has no outstanding work", ErrUnderflow, bc.Name)
	}

	bc.count--
	bc.Logger.Trace("Decremented busy count", bc.nameField(), zap.Int("count", bc.count))

	if bc.count == 0 && bc.waiters.Len() > 0 {
		bc.scheduleDrainLocked()
	}

	return nil
}

// Wait returns nil immediately if the count is zero.
// Otherwise it blocks until it is released by a drain step, in which case it returns nil,
// or until ctx is done, in which case it leaves the queue without being released
// and returns ctx.Err().
func (bc *BusyCounter) Wait(ctx context.Context) error {
	bc.lock.Lock()
	if bc.count == 0 {
		bc.lock.Unlock()
		return nil
	}
	if err := ctx.Err(); err != nil {
		bc.lock.Unlock()
		return err
	}
	w := bc.enqueueLocked(make(chan struct{}), nil)
	bc.lock.Unlock()

	select {
	case <-w.released:
		return nil
	case <-ctx.Done():
	}

	bc.lock.Lock()
	defer bc.lock.Unlock()

	// A drain step popped us before we got the lock.
	if w.elem == nil {
		return nil
	}

	bc.waiters.Remove(w.elem)
	w.elem = nil
	bc.Logger.Debug("Waiter cancelled", bc.nameField(), zap.Uint64("waiter", w.id),
		zap.Int("waiters", bc.waiters.Len()), zap.Error(ctx.Err()))
	return ctx.Err()
}

// WaitFunc runs f once the count is zero.
// If the count is already zero, f runs before WaitFunc returns.
// Otherwise f is queued like a Wait call and runs on the scheduler turn that releases it.
// f may increment or decrement the counter.
func (bc *BusyCounter) WaitFunc(f func()) {
	bc.lock.Lock()
	if bc.count == 0 {
		bc.lock.Unlock()
		f()
		return
	}
	bc.enqueueLocked(nil, f)
	bc.lock.Unlock()
}

func (bc *BusyCounter) Count() int {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	return bc.count
}

// WaitingCount returns the number of waiters that have been neither released nor cancelled.
func (bc *BusyCounter) WaitingCount() int {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	return bc.waiters.Len()
}

func (bc *BusyCounter) enqueueLocked(released chan struct{}, f func()) *waiter {
	bc.nextWaiterID++
	w := &waiter{
		id:       bc.nextWaiterID,
		released: released,
		f:        f,
	}
	w.elem = bc.waiters.PushBack(w)
	bc.Logger.Debug("Waiter queued", bc.nameField(), zap.Uint64("waiter", w.id),
		zap.Int("count", bc.count), zap.Int("waiters", bc.waiters.Len()))
	return w
}

func (bc *BusyCounter) scheduleDrainLocked() {
	if bc.drainScheduled {
		return
	}

	end, err := bc.Scheduler.Schedule(bc.drainStep)
	if err != nil {
		bc.Logger.Warn("Could not schedule drain step; waiters remain queued",
			bc.nameField(), zap.Int("waiters", bc.waiters.Len()), zap.Error(err))
		return
	}

	bc.drainScheduled = true
	bc.drainGen++
	go bc.watchDrainStep(end, bc.drainGen)
}

// watchDrainStep clears drainScheduled if the scheduler dropped the step
// without running it, so that the next zero-crossing schedules a new one.
func (bc *BusyCounter) watchDrainStep(end TaskEnd, gen uint64) {
	<-end

	bc.lock.Lock()
	defer bc.lock.Unlock()

	// A step that ran cleared the flag, and any later step has a newer generation.
	if !bc.drainScheduled || bc.drainGen != gen {
		return
	}

	bc.drainScheduled = false
	bc.Logger.Warn("Drain step was dropped by the scheduler; waiters remain queued",
		bc.nameField(), zap.Int("waiters", bc.waiters.Len()))
}

// drainStep releases at most one waiter, and schedules the next step
// if the count is still zero afterwards.
func (bc *BusyCounter) drainStep() {
	bc.lock.Lock()
	bc.drainScheduled = false

	if bc.count != 0 || bc.waiters.Len() == 0 {
		bc.Logger.Debug("Drain halted", bc.nameField(), zap.Int("count", bc.count), zap.Int("waiters", bc.waiters.Len()))
		bc.lock.Unlock()
		return
	}

	w := bc.waiters.Remove(bc.waiters.Front())
	w.elem = nil
	remaining := bc.waiters.Len()
	bc.lock.Unlock()

	bc.Logger.Debug("Releasing waiter", bc.nameField(), zap.Uint64("waiter", w.id), zap.Int("waiters", remaining))
	w.release()

	bc.lock.Lock()
	defer bc.lock.Unlock()

	if bc.count == 0 && bc.waiters.Len() > 0 {
		bc.scheduleDrainLocked()
	}
}

func (bc *BusyCounter) nameField() zap.Field {
	return zap.String("counter", bc.Name)
}
