package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Everforest dark palette.
const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorFg     = "\x1b[38;5;223m"
	colorGreen  = "\x1b[38;5;108m"
	colorTime   = "\x1b[38;5;107m"
	colorAqua   = "\x1b[38;5;109m"
	colorOrange = "\x1b[38;5;208m"
	colorYellow = "\x1b[38;5;179m"
	colorRed    = "\x1b[38;5;167m"
	colorRedBg  = "\x1b[48;5;52m"
	colorYelBg  = "\x1b[48;5;58m"
	colorDim    = "\x1b[38;5;245m"
)

var consoleBuffers = buffer.NewPool()

// consoleEncoder writes one compact line per entry:
//
//	13:04:35  ingestion  Raw data saved  path=artifact/data.csv rows=1000
//
// Fields are never dropped. Context fields from With come first in key
// order, then call-site fields in the order given.
type consoleEncoder struct {
	*zapcore.MapObjectEncoder
}

func newConsoleEncoder() *consoleEncoder {
	return &consoleEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &consoleEncoder{MapObjectEncoder: clone}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := consoleBuffers.Get()

	line.AppendString(colorTime)
	line.AppendString(ent.Time.Format("15:04:05"))
	line.AppendString(colorReset)

	if label := levelLabel(ent.Level); label != "" {
		line.AppendString("  ")
		line.AppendString(label)
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(componentColor(ent.LoggerName))
		line.AppendString(ent.LoggerName)
		line.AppendString(colorReset)
	}

	line.AppendString("  ")
	line.AppendString(colorFg)
	line.AppendString(ent.Message)
	line.AppendString(colorReset)

	if pairs := enc.pairs(fields); len(pairs) > 0 {
		line.AppendString("  ")
		line.AppendString(strings.Join(pairs, " "))
	}

	if ent.Stack != "" {
		line.AppendString("\n")
		line.AppendString(ent.Stack)
	}
	line.AppendString("\n")
	return line, nil
}

// pairs renders context and call-site fields as key=value.
// zap adds a <key>Verbose companion for errors that format with %+v; the
// stack trace it carries is left to the JSON encoder.
func (enc *consoleEncoder) pairs(fields []zapcore.Field) []string {
	var out []string

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, pair(k, enc.Fields[k]))
	}

	for _, f := range fields {
		m := zapcore.NewMapObjectEncoder()
		f.AddTo(m)
		if v, ok := m.Fields[f.Key]; ok {
			out = append(out, pair(f.Key, v))
		}
		for k, v := range m.Fields {
			if k == f.Key || strings.HasSuffix(k, "Verbose") {
				continue
			}
			out = append(out, pair(k, v))
		}
	}
	return out
}

func pair(key string, value interface{}) string {
	color := colorFg
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		color = colorGreen
	}
	if key == FieldError {
		color = colorRed
	}
	return colorDim + key + "=" + colorReset + color + fmt.Sprint(value) + colorReset
}

// levelLabel highlights everything but info.
func levelLabel(level zapcore.Level) string {
	switch level {
	case zapcore.InfoLevel:
		return ""
	case zapcore.DebugLevel:
		return colorAqua + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + colorYelBg + colorYellow + "WARN" + colorReset
	default:
		return colorBold + colorRedBg + colorRed + level.CapitalString() + colorReset
	}
}

// componentColor keeps a component's color stable across lines.
func componentColor(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	switch hash % 3 {
	case 0:
		return colorGreen
	case 1:
		return colorOrange
	default:
		return colorAqua
	}
}
