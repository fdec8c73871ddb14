package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(&Config{Level: level, Format: "json", Output: &buf, ServiceName: "kbsync-test"}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestContextFields(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	ctx := log.WithContext(context.Background())
	ctx = SetRunID(ctx, "run-1")
	ctx = SetJob(ctx, "kb-1", "ds-1")
	ctx = SetJobID(ctx, "job-1")
	ctx = SetComponent(ctx, "poller")

	assert.Equal(t, "run-1", GetRunID(ctx))
	assert.Empty(t, GetRunID(context.Background()))

	CtxInfo(ctx, "job %s done", "job-1")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "job job-1 done", lines[0]["message"])
	assert.Equal(t, "kbsync-test", lines[0]["service"])
	assert.Equal(t, "run-1", lines[0][FieldRunID])
	assert.Equal(t, "kb-1", lines[0][FieldGroupID])
	assert.Equal(t, "ds-1", lines[0][FieldSubSourceID])
	assert.Equal(t, "job-1", lines[0][FieldJobID])
	assert.Equal(t, "poller", lines[0][FieldComponent])
}

func TestEntryMetricFields(t *testing.T) {
	log, buf := newBufferLogger(t, "info")
	ctx := log.WithContext(context.Background())

	With(Fields{"extra": "x"}).
		WithState("succeeded").
		WithAttempts(3).
		WithDuration(1500*time.Millisecond).
		WithCount(2).
		WithStatus("COMPLETE").
		Info(ctx, "finished")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "succeeded", lines[0][FieldState])
	assert.EqualValues(t, 3, lines[0][FieldAttempts])
	assert.EqualValues(t, 1500, lines[0][FieldDurationMs])
	assert.EqualValues(t, 2, lines[0][FieldCount])
	assert.Equal(t, "COMPLETE", lines[0][FieldStatus])
	assert.Equal(t, "x", lines[0]["extra"])
}

func TestEntryWithDoesNotMutateParent(t *testing.T) {
	parent := With(Fields{"a": 1})
	child := parent.With(Fields{"b": 2})

	assert.Len(t, parent.fields, 1)
	assert.Len(t, child.fields, 2)
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, "warn")
	ctx := log.WithContext(context.Background())

	CtxInfo(ctx, "hidden")
	CtxWarn(ctx, "shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "warning", lines[0]["level"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	log, _ := newBufferLogger(t, "info")
	prev := defaultLoggerSnapshot()
	SetDefaultLogger(log)
	t.Cleanup(func() { SetDefaultLogger(prev) })

	assert.Same(t, log, FromContext(context.Background()))
	SetDefaultLogger(nil)
	assert.Same(t, log, FromContext(context.Background()))
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Format: "text", Output: &buf})

	log.WithField(FieldJobID, "job-9").Info("hello")
	assert.Contains(t, buf.String(), "job_id=job-9")
	assert.Contains(t, buf.String(), "service=kbsync")
}

func TestNewFromEnvWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbsync.log")
	t.Setenv("LOG_FILE", path)
	t.Setenv("LOG_FILE_ONLY", "true")
	t.Setenv("LOG_LEVEL", "debug")

	envCfg := LoadFromEnv()
	assert.Equal(t, path, envCfg.File)
	assert.True(t, envCfg.FileOnly)
	assert.Equal(t, 100, envCfg.MaxSizeMB)

	NewFromEnv(envCfg).Debug("written to file")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
