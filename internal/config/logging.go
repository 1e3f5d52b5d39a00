package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrz1836/brewbar/internal/fileutil"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// ParseLogLevel parses a log level string. Unknown values mean error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "error":
		return LogLevelError
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelError:
		return "error"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

// zapLevel maps a LogLevel onto the zap level threshold.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelOff:
		return zapcore.FatalLevel + 1
	default:
		return zapcore.ErrorLevel
	}
}

// Logger writes leveled log lines to a file through zap.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	atom     zap.AtomicLevel
	sugar    *zap.SugaredLogger
	file     *os.File
	filePath string
}

// NewLogger creates a new logger writing to filePath. A "~/" prefix is expanded.
// With LogLevelOff or an empty path nothing is written.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	logger := &Logger{
		level:    level,
		atom:     zap.NewAtomicLevelAt(level.zapLevel()),
		sugar:    zap.NewNop().Sugar(),
		filePath: filePath,
	}

	if level == LogLevelOff || filePath == "" {
		return logger, nil
	}

	filePath, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}

	if err := fileutil.EnsureDir(filePath); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	logger.file = f
	logger.filePath = filePath
	logger.sugar = newSugar(f, logger.atom)

	return logger, nil
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	return &Logger{
		level: level,
		atom:  atom,
		sugar: newSugar(zapcore.AddSync(w), atom),
	}
}

func newSugar(ws zapcore.WriteSyncer, atom zap.AtomicLevel) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.ConsoleSeparator = " "

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(ws), atom)
	return zap.New(core).Sugar()
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.sugar.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.sugar = zap.NewNop().Sugar()
		return err
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.atom.SetLevel(level.zapLevel())
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.current().Debugf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.current().Errorf(format, args...)
}

// Writer returns an io.Writer that writes to the logger at the specified level.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return &logWriter{logger: l, level: level}
}

func (l *Logger) current() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

// logWriter implements io.Writer for the logger.
type logWriter struct {
	logger *Logger
	level  LogLevel
}

func (w *logWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if w.level == LogLevelDebug {
		w.logger.Debug("%s", msg)
	} else {
		w.logger.Error("%s", msg)
	}
	return len(p), nil
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{
		level: LogLevelOff,
		atom:  zap.NewAtomicLevelAt(LogLevelOff.zapLevel()),
		sugar: zap.NewNop().Sugar(),
	}
}

// String describes the logger destination.
func (l *Logger) String() string {
	if l.filePath == "" {
		return fmt.Sprintf("logger(%s)", l.Level())
	}
	return fmt.Sprintf("logger(%s -> %s)", l.Level(), l.filePath)
}
