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
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapWrapper_WithFieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "credit-risk-predict"})

	log.Info("scored", map[string]interface{}{"score": 0.42})
	log.Error("failed", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "credit-risk-predict", entries[0].ContextMap()["taskType"])
	assert.Equal(t, 0.42, entries[0].ContextMap()["score"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewStructured_DoesNotPanic(t *testing.T) {
	log := NewStructured("debug", "json")
	log.Debug("hello", nil)
	NewNoOpLogger().Warn("ignored", map[string]interface{}{"k": "v"})
}
