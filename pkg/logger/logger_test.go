package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapForwardsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := Wrap(zap.New(core)).With(zap.String("component", "test"))

	log.Info("hello", zap.Int("n", 1))
	log.Debug("dbg")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "test", entries[0].ContextMap()["component"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["n"])
}

func TestNewZapLoggerFallsBackToInfo(t *testing.T) {
	log := NewZapLogger(&ZapLoggerConfig{Level: "not-a-level", Encoding: "json", DisableStacktrace: true})
	assert.NotNil(t, log)
	log.Info("still works")
}
