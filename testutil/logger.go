// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutil

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type TestLogger struct {
	*zap.Logger
	traceVerboseLogger *zap.Logger
	panicOnError       bool
	panicOnWarn        bool
}

func (t *TestLogger) Intercept(hook func(entry zapcore.Entry) error) {
	t.Logger = t.Logger.WithOptions(zap.Hooks(hook))
	t.traceVerboseLogger = t.traceVerboseLogger.WithOptions(zap.Hooks(hook))
}

func (t *TestLogger) Silence() {
	atomicLevel := zap.NewAtomicLevelAt(zapcore.FatalLevel)
	t.Logger = t.Logger.WithOptions(zap.IncreaseLevel(atomicLevel))
	t.traceVerboseLogger = t.traceVerboseLogger.WithOptions(zap.IncreaseLevel(atomicLevel))
}

func (t *TestLogger) SetPanicOnError(panicOnError bool) {
	t.panicOnError = panicOnError
}

func (t *TestLogger) SetPanicOnWarn(panicOnWarn bool) {
	t.panicOnWarn = panicOnWarn
}

func (tl *TestLogger) Trace(msg string, fields ...zap.Field) {
	tl.traceVerboseLogger.Log(zapcore.DebugLevel, msg, fields...)
}

func (tl *TestLogger) Verbo(msg string, fields ...zap.Field) {
	tl.traceVerboseLogger.Log(zapcore.DebugLevel, msg, fields...)
}

func (tl *TestLogger) Warn(msg string, fields ...zap.Field) {
	tl.Logger.Warn(msg, fields...)
	if tl.panicOnWarn {
		panic(fmt.Sprintf("WARN: %s", msg))
	}
}

func (tl *TestLogger) Error(msg string, fields ...zap.Field) {
	tl.Logger.Error(msg, fields...)
	if tl.panicOnError {
		panic(fmt.Sprintf("ERROR: %s", msg))
	}
}

// MakeLogger returns a console logger tagged with the test name.
// Setting LOG_LEVEL to "info" drops debug entries.
func MakeLogger(t *testing.T) *TestLogger {
	config := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	config.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(strings.ToUpper(l.String()))
	}
	config.EncodeTime = zapcore.TimeEncoderOfLayout("[01-02|15:04:05.000]")
	config.ConsoleSeparator = " "
	encoder := zapcore.NewConsoleEncoder(config)

	level := zapcore.DebugLevel
	if strings.ToLower(os.Getenv("LOG_LEVEL")) == "info" {
		level = zapcore.InfoLevel
	}
	atomicLevel := zap.NewAtomicLevelAt(level)

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atomicLevel)

	logger := zap.New(core, zap.AddCaller()).With(zap.String("test", t.Name()))
	traceVerboseLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("test", t.Name()))

	return &TestLogger{Logger: logger, traceVerboseLogger: traceVerboseLogger}
}

// LogRecorder collects the messages of intercepted log entries.
type LogRecorder struct {
	lock    sync.Mutex
	entries []zapcore.Entry
}

// Record attaches the recorder to the given logger.
func (r *LogRecorder) Record(l *TestLogger) {
	l.Intercept(func(entry zapcore.Entry) error {
		r.lock.Lock()
		defer r.lock.Unlock()
		r.entries = append(r.entries, entry)
		return nil
	})
}

// Count returns how many recorded entries have the given level and message.
func (r *LogRecorder) Count(level zapcore.Level, msg string) int {
	r.lock.Lock()
	defer r.lock.Unlock()

	var n int
	for _, e := range r.entries {
		if e.Level == level && e.Message == msg {
			n++
		}
	}
	return n
}
