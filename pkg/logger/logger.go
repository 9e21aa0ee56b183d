package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named, sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
	name string
}

var (
	rootMu sync.RWMutex
	root   *zap.Logger
)

// Setup replaces the root logger. level is one of debug, info, warn, error.
func Setup(level string, development bool) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	rootMu.Lock()
	root = l
	rootMu.Unlock()
	return nil
}

func rootLogger() *zap.Logger {
	rootMu.RLock()
	l := root
	rootMu.RUnlock()
	if l != nil {
		return l
	}

	rootMu.Lock()
	defer rootMu.Unlock()
	if root == nil {
		l, err := zap.NewProduction()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: fallback to nop: %v\n", err)
			l = zap.NewNop()
		}
		root = l
	}
	return root
}

// Named returns a child logger of the root logger.
func Named(name string) (*Logger, error) {
	if name == "" {
		return nil, fmt.Errorf("logger name is required")
	}
	return &Logger{
		SugaredLogger: rootLogger().Named(name).Sugar(),
		name:          name,
	}, nil
}

func MustNamed(name string) *Logger {
	l, err := Named(name)
	if err != nil {
		panic(err)
	}
	return l
}

// Nop returns a logger that discards everything, handy in tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), name: "nop"}
}

func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) Unwrap() *zap.SugaredLogger {
	return l.SugaredLogger
}

// Reflect wraps a value so it is serialized with reflection instead of Stringer.
func (l *Logger) Reflect(key string, value any) zap.Field {
	return zap.Reflect(key, value)
}
