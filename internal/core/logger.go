// Package core carries the ambient stack shared by every other package in
// this module: structured logging, typed errors, environment-driven
// configuration and the sql.DB wrapper used by the pluggable cache and
// rate-limit stores.
package core

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Logger wraps slog.Logger with per-component child loggers, so every log
// line names the subsystem that produced it (a provider adapter, the
// cache, the rate limiter, the orchestrator).
type Logger struct {
	*slog.Logger
	mu       *sync.RWMutex
	children map[string]*slog.Logger
}

// NewLogger creates a new logger instance writing structured text to stdout.
func NewLogger() *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return &Logger{
		Logger:   slog.New(handler),
		mu:       &sync.RWMutex{},
		children: make(map[string]*slog.Logger),
	}
}

// ForFeature returns a logger scoped to a component name. The child is
// created once and cached so repeated calls are cheap and concurrency-safe.
func (l *Logger) ForFeature(name string) *Logger {
	l.mu.RLock()
	child, ok := l.children[name]
	l.mu.RUnlock()
	if ok {
		return &Logger{Logger: child, mu: l.mu, children: l.children}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if child, ok = l.children[name]; ok {
		return &Logger{Logger: child, mu: l.mu, children: l.children}
	}
	child = l.Logger.With("component", name)
	l.children[name] = child
	return &Logger{Logger: child, mu: l.mu, children: l.children}
}

// WithContext returns a logger carrying the request ID stashed in ctx, if
// any, so every log line for a search request can be correlated.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		return &Logger{Logger: l.Logger.With("request_id", requestID), mu: l.mu, children: l.children}
	}
	return l
}

// NewRequestContext returns a context carrying a freshly generated request
// ID, for correlating the full fan-out of one search across log lines.
func NewRequestContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestIDKey, uuid.NewString())
}

// RequestIDFromContext returns the request ID stashed by NewRequestContext,
// or "" if none is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
