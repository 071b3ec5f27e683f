// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSilence(t *testing.T) {
	l1 := MakeLogger(t)
	l2 := MakeLogger(t)

	l1.Silence()

	l1.Intercept(func(entry zapcore.Entry) error {
		t.Fatal("shouldn't be logged")
		return nil
	})

	var c int

	l2.Intercept(func(entry zapcore.Entry) error {
		c++
		return nil
	})

	l1.Info("Info message")
	l1.Trace("Trace message")

	l2.Info("Info message")
	l2.Info("Second info message")

	require.Equal(t, 2, c)
}

func TestLogRecorder(t *testing.T) {
	l := MakeLogger(t)

	var rec LogRecorder
	rec.Record(l)

	l.Error("boom")
	l.Error("boom")
	l.Warn("boom")
	l.Debug("Debug message")

	require.Equal(t, 2, rec.Count(zapcore.ErrorLevel, "boom"))
	require.Equal(t, 1, rec.Count(zapcore.WarnLevel, "boom"))
	require.Zero(t, rec.Count(zapcore.InfoLevel, "boom"))
}

func TestPanicOnError(t *testing.T) {
	l := MakeLogger(t)
	l.SetPanicOnError(true)

	require.PanicsWithValue(t, "ERROR: boom", func() {
		l.Error("boom")
	})

	l.SetPanicOnError(false)
	require.NotPanics(t, func() {
		l.Error("boom")
	})
}
