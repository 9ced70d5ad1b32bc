package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"tool": "search_incidents"})

	log.Info("tool call", map[string]interface{}{"limit": 5})
	log.WithError(errors.New("boom")).Error("tool failed", nil)
	log.With(map[string]interface{}{"cause": errors.New("db down")}).Warn("degraded", nil)

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "search_incidents", entries[0].ContextMap()["tool"])
	assert.EqualValues(t, 5, entries[0].ContextMap()["limit"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, "db down", entries[2].ContextMap()["cause"])
}

func TestNew_FallsBackOnBadOutput(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/for/sure/log.txt")
	assert.NotNil(t, l)
}
