// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package logger provides a thin wrapper around the Go stdlib log/slog package
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type wrapper for the stdlib slog.Logger
type Logger struct {
	*slog.Logger
}

// New returns a new Logger with the given log level that writes to os.Stderr
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a new Logger with the given log level that writes to the given
// io.Writer
func NewLogger(level slog.Level, output io.Writer) *Logger {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	return &Logger{slog.New(handler)}
}

// Err returns a uniform slog.Attr for logging errors
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
