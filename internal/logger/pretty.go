// internal/logger/pretty.go
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// PrettyEncoder creates a user-friendly console encoder
func PrettyEncoder() zapcore.Encoder {
	config := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     customNameEncoder,
	}
	return zapcore.NewConsoleEncoder(config)
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset))
	case zapcore.InfoLevel:
		enc.AppendString(fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset))
	case zapcore.WarnLevel:
		enc.AppendString(fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset))
	case zapcore.ErrorLevel:
		enc.AppendString(fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset))
	case zapcore.FatalLevel:
		enc.AppendString(fmt.Sprintf("%s[FATAL]%s", ColorRed+ColorBold, ColorReset))
	default:
		enc.AppendString(fmt.Sprintf("[%s]", level.CapitalString()))
	}
}

// customTimeEncoder formats time in a readable way
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

func customNameEncoder(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%s%s%s", ColorPurple, name, ColorReset))
}

// compactFields are the only fields the pretty console prints. Everything else
// still reaches the JSON sinks.
var compactFields = map[string]bool{
	"mint":         true,
	"user":         true,
	"side":         true,
	"sol_amount":   true,
	"token_amount": true,
	"fee":          true,
	"error":        true,
	"code":         true,
	"path":         true,
	"count":        true,
}

// addressFields are shortened to their first and last four characters.
var addressFields = map[string]bool{
	"mint": true,
	"user": true,
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

// CompactCore wraps a console core so that only a short list of fields is
// printed, with addresses shortened.
type CompactCore struct {
	core zapcore.Core
}

func NewCompactCore(core zapcore.Core) *CompactCore {
	return &CompactCore{core: core}
}

func (c *CompactCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *CompactCore) With(fields []zapcore.Field) zapcore.Core {
	return &CompactCore{core: c.core.With(filterFields(fields))}
}

func (c *CompactCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *CompactCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.core.Write(entry, filterFields(fields))
}

func (c *CompactCore) Sync() error {
	return c.core.Sync()
}

func filterFields(fields []zapcore.Field) []zapcore.Field {
	var kept []zapcore.Field
	for _, f := range fields {
		if !compactFields[f.Key] {
			continue
		}
		if addressFields[f.Key] && f.Type == zapcore.StringType {
			f.String = shortenAddress(f.String)
		}
		kept = append(kept, f)
	}
	return kept
}
