package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestZapWrapper_Fields(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)

	log.With(map[string]interface{}{"batchId": "b-1"}).
		Named("remnawave").
		Info("dispatched", map[string]interface{}{"route": "users.get", "recordIndex": 2})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "dispatched", entry.Message)
	assert.Equal(t, "remnawave", entry.LoggerName)

	ctx := entry.ContextMap()
	assert.Equal(t, "b-1", ctx["batchId"])
	assert.Equal(t, "users.get", ctx["route"])
	assert.EqualValues(t, 2, ctx["recordIndex"])
}

func TestZapWrapper_WithError(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)

	log.WithError(errors.New("connection reset")).Error("request failed", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "connection reset", logs.All()[0].ContextMap()["error"])
}

func TestZapWrapper_Levels(t *testing.T) {
	log, logs := observed(zapcore.WarnLevel)

	log.Debug("hidden", nil)
	log.Info("hidden", nil)
	log.Warn("shown", nil)
	log.Error("shown", nil)

	assert.Equal(t, 2, logs.FilterMessage("shown").Len())
	assert.Equal(t, 0, logs.FilterMessage("hidden").Len())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestMapToZapFields_SortedKeys(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"b": 1, "a": 2, "c": 3})

	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
	assert.Nil(t, mapToZapFields(nil))
}

func TestConstructors(t *testing.T) {
	assert.NotNil(t, NewNoOpLogger())
	assert.NotNil(t, NewStructured("debug", "json"))
	assert.NotNil(t, NewTestLogger(t))
	assert.NotNil(t, NewWithOptions(Options{Level: "info", Format: "console", Output: "stderr"}))
}
