// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutil

import (
	"testing"
	"time"

	"github.com/ava-labs/quiesce"
	"github.com/stretchr/testify/require"
)

// DefaultTestBusyCounterConfig returns a config whose drain steps only run
// when the returned StepScheduler is stepped.
func DefaultTestBusyCounterConfig(t *testing.T) (quiesce.BusyCounterConfig, *quiesce.StepScheduler, *TestLogger) {
	l := MakeLogger(t)
	sched := quiesce.NewStepScheduler(l)
	conf := quiesce.BusyCounterConfig{
		Logger:    l,
		Scheduler: sched,
		Name:      t.Name(),
	}
	return conf, sched, l
}

// WaitForWaiters blocks until the counter has exactly n queued waiters.
func WaitForWaiters(t *testing.T, bc *quiesce.BusyCounter, n int) {
	require.Eventually(t, func() bool {
		return bc.WaitingCount() == n
	}, 5*time.Second, time.Millisecond, "expected %d waiters", n)
}
