package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/mlproject/errors"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func encode(t *testing.T, enc zapcore.Encoder, ent zapcore.Entry, fields ...zapcore.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	defer buf.Free()
	return stripANSI(buf.String())
}

// The console encoder must never silently drop a field.
func TestConsoleEncoderKeepsEveryField(t *testing.T) {
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 10, 17, 13, 4, 35, 0, time.UTC),
		LoggerName: "ingestion",
		Message:    "Data ingestion completed successfully",
	}

	tests := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String(FieldTrainPath, "artifact/train.csv"), "train_path=artifact/train.csv"},
		{zap.String(FieldTestPath, "artifact/test.csv"), "test_path=artifact/test.csv"},
		{zap.Int(FieldTrainRows, 800), "train_rows=800"},
		{zap.Int64(FieldDurationMS, 42), "duration_ms=42"},
		{zap.Uint64(FieldSeed, 42), "seed=42"},
		{zap.Float64(FieldTestRatio, 0.2), "test_ratio=0.2"},
		{zap.Float32("weight", 3.14), "weight=3.14"},
		{zap.Bool("watch", false), "watch=false"},
		{zap.Strings("columns", []string{"gender", "lunch"}), "columns=[gender lunch]"},
		{zap.Duration("debounce", 500*time.Millisecond), "debounce=500ms"},
		{zap.String("field.with.dots", "x"), "field.with.dots=x"},
		{zap.Error(nil), ""},
		{zap.Error(errors.New("disk full")), "error=disk full"},
	}

	var fields []zapcore.Field
	for _, tt := range tests {
		fields = append(fields, tt.field)
	}
	out := encode(t, newConsoleEncoder(), entry, fields...)

	assert.True(t, strings.HasPrefix(out, "13:04:35  ingestion  Data ingestion completed successfully  "), out)
	assert.True(t, strings.HasSuffix(out, "\n"))
	for _, tt := range tests {
		if tt.mustFind != "" {
			assert.Contains(t, out, tt.mustFind)
		}
	}
	assert.NotContains(t, out, "errorVerbose")
}

func TestConsoleEncoderFieldOrder(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Now(), Message: "m"}

	out := encode(t, newConsoleEncoder(), entry,
		zap.String("c", "3"), zap.String("a", "1"), zap.String("b", "2"))
	assert.Contains(t, out, "c=3 a=1 b=2")
}

func TestConsoleEncoderLevels(t *testing.T) {
	enc := newConsoleEncoder()
	base := zapcore.Entry{Time: time.Now(), Message: "msg"}

	for level, label := range map[zapcore.Level]string{
		zapcore.DebugLevel: "DEBUG",
		zapcore.WarnLevel:  "WARN",
		zapcore.ErrorLevel: "ERROR",
	} {
		ent := base
		ent.Level = level
		assert.Contains(t, encode(t, enc, ent), "  "+label+"  ")
	}

	ent := base
	ent.Level = zapcore.InfoLevel
	assert.NotContains(t, encode(t, enc, ent), "INFO")
}

func TestConsoleEncoderContextFields(t *testing.T) {
	var out bytes.Buffer
	core := zapcore.NewCore(newConsoleEncoder(), zapcore.AddSync(&out), zapcore.DebugLevel)
	log := zap.New(core).Sugar().Named("ledger")

	ChildLogger(log, FieldRunID, "run-1", FieldSource, "stud.csv").Warnw("Failed to record failed run", FieldError, "database is locked")
	log.Infow("no context")

	lines := strings.Split(strings.TrimSpace(stripANSI(out.String())), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARN  ledger  Failed to record failed run  run_id=run-1 source=stud.csv error=database is locked")
	assert.NotContains(t, lines[1], "run_id")
}

func TestComponentColorStable(t *testing.T) {
	assert.Equal(t, componentColor("ingestion"), componentColor("ingestion"))
}
