// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quiesce_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ava-labs/quiesce"
	"github.com/ava-labs/quiesce/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicScheduler(t *testing.T) {
	t.Run("Executes asynchronously", func(t *testing.T) {
		as := quiesce.NewScheduler(testutil.MakeLogger(t), 0)
		defer as.Close()

		ticks := make(chan struct{})

		done, err := as.Schedule(func() {
			<-ticks
		})
		require.NoError(t, err)

		ticks <- struct{}{}
		<-done
	})

	t.Run("Executes tasks one at a time in order", func(t *testing.T) {
		as := quiesce.NewScheduler(testutil.MakeLogger(t), 0)
		defer as.Close()

		n := 1000

		var lock sync.Mutex
		var order []int
		var running atomic.Int32
		var last quiesce.TaskEnd

		for i := 0; i < n; i++ {
			done, err := as.Schedule(func() {
				assert.Equal(t, int32(1), running.Add(1))
				defer running.Add(-1)

				lock.Lock()
				defer lock.Unlock()
				order = append(order, i)
			})
			require.NoError(t, err)
			last = done
		}

		<-last

		lock.Lock()
		defer lock.Unlock()
		require.Len(t, order, n)
		for i := range order {
			require.Equal(t, i, order[i])
		}
	})

	t.Run("Nil logger", func(t *testing.T) {
		as := quiesce.NewScheduler(nil, 0)

		done, err := as.Schedule(func() {})
		require.NoError(t, err)
		<-done

		as.Close()
		_, err = as.Schedule(func() {})
		require.ErrorIs(t, err, quiesce.ErrSchedulerClosed)
	})

	t.Run("Does not execute when closed", func(t *testing.T) {
		as := quiesce.NewScheduler(testutil.MakeLogger(t), 0)
		as.Close()

		var ran atomic.Bool
		done, err := as.Schedule(func() {
			ran.Store(true)
		})
		require.ErrorIs(t, err, quiesce.ErrSchedulerClosed)

		<-done
		require.False(t, ran.Load())

		// Closing twice is fine.
		as.Close()
	})

	t.Run("Refuses tasks when full", func(t *testing.T) {
		as := quiesce.NewScheduler(testutil.MakeLogger(t), 1)
		defer as.Close()

		started := make(chan struct{})
		release := make(chan struct{})

		_, err := as.Schedule(func() {
			close(started)
			<-release
		})
		require.NoError(t, err)
		<-started

		_, err = as.Schedule(func() {})
		require.NoError(t, err)
		require.Equal(t, 1, as.Size())

		done, err := as.Schedule(func() {})
		require.ErrorIs(t, err, quiesce.ErrSchedulerFull)
		<-done

		close(release)
	})

	t.Run("Close drops pending tasks", func(t *testing.T) {
		as := quiesce.NewScheduler(testutil.MakeLogger(t), 0)

		started := make(chan struct{})
		release := make(chan struct{})

		first, err := as.Schedule(func() {
			close(started)
			<-release
		})
		require.NoError(t, err)
		<-started

		var ran atomic.Bool
		second, err := as.Schedule(func() {
			ran.Store(true)
		})
		require.NoError(t, err)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			as.Close()
		}()

		require.Eventually(t, func() bool {
			return as.Size() == 0
		}, 5*time.Second, time.Millisecond)

		<-second
		close(release)
		<-first
		<-closed

		require.False(t, ran.Load())
	})
}
