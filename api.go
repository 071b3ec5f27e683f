// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quiesce

import (
	"context"

	"go.uber.org/zap"
)

type Logger interface {
	// Log that a fatal error has occurred. The program should likely exit soon
	// after this is called
	Fatal(msg string, fields ...zap.Field)
	// Log that an error has occurred. The program should be able to recover
	// from this error
	Error(msg string, fields ...zap.Field)
	// Log that an event has occurred that may indicate a future error or
	// vulnerability
	Warn(msg string, fields ...zap.Field)
	// Log an event that may be useful for a user to see to measure the progress
	// of the work being tracked
	Info(msg string, fields ...zap.Field)
	// Log an event that may be useful for understanding the order of
	// increments, decrements and releases
	Trace(msg string, fields ...zap.Field)
	// Log an event that may be useful for a programmer to see when debuging
	// the drain protocol
	Debug(msg string, fields ...zap.Field)
	// Log extremely detailed events that can be useful for inspecting every
	// aspect of the program
	Verbo(msg string, fields ...zap.Field)
}

// Scheduler defers tasks to a later turn.
// Tasks scheduled on the same Scheduler never run concurrently with each other,
// and run in the order they were scheduled.
type Scheduler interface {
	// Schedule enqueues the given task to be run on a future turn.
	// The returned TaskEnd is closed once the task has run, or immediately
	// if the task was refused, in which case a non-nil error is also returned.
	Schedule(task Task) (TaskEnd, error)
}

// ExecutingCounter tracks outstanding work and lets callers wait until none remains.
type ExecutingCounter interface {
	// Increment registers the start of a unit of work.
	Increment()
	// Decrement registers the end of a unit of work.
	// Returns an error wrapping ErrUnderflow if no work is outstanding.
	Decrement() error
	// Wait blocks until no work is outstanding, or until the given context is cancelled.
	Wait(ctx context.Context) error
}
