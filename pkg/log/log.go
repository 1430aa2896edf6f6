// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/clusterrc/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	typeWidth   = 15 // Width for file type
	statusWidth = 15 // Width for status text
)

// 🎯 FileOperation represents a file operation for logging
type FileOperation struct {
	Path          string // File path
	Type          string // File type (preset/dir/other)
	Status        string // Operation status
	IsRewritten   bool   // Whether the attribute was rewritten
	IsProvisioned bool   // Whether a directory was created
	IsSkipped     bool   // Whether the file had nothing to rewrite
	IsFailed      bool   // Whether the operation failed
	Replacements  int    // Number of replacements made
}

// 🔄 FileOperationFromInfo converts a tracked file into a loggable operation
func FileOperationFromInfo(info status.FileInfo) FileOperation {
	op := FileOperation{
		Path:         info.Path,
		Type:         "preset",
		Status:       info.Status.String(),
		Replacements: info.Replacements,
	}
	if info.IsDir {
		op.Type = "dir"
	}

	switch info.Status {
	case status.StatusRewritten:
		op.IsRewritten = true
		op.Status = fmt.Sprintf("%d replaced", info.Replacements)
	case status.StatusProvisioned:
		op.IsProvisioned = true
	case status.StatusNotApplicable:
		op.IsSkipped = true
	case status.StatusIgnored:
		op.Type = "other"
	case status.StatusFailed:
		op.IsFailed = true
		op.Status = info.Kind.String()
	}
	return op
}

// 📦 RunOperation represents one batch run for logging
type RunOperation struct {
	Source      string // Folder or archive being processed
	Value       string // New attribute value
	Destination string // Output directory
	IsArchive   bool   // Whether the source is an archive
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentOp  *RunOperation
	operations []FileOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// 🏭 NewWithZerolog creates a logger that mirrors structured events into zlog
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsProvisioned:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsRewritten:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case op.IsSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	// Format type with color
	var typeColor color.Attribute
	switch op.Type {
	case "preset":
		typeColor = color.FgCyan
	case "dir":
		typeColor = color.FgGreen
	default:
		typeColor = color.FgYellow
	}

	// Build the line
	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(typeColor).Sprint(fmt.Sprintf("%-*s", typeWidth, op.Type)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Add to operations list
	l.operations = append(l.operations, op)

	// Format and print
	fmt.Fprintln(l.console, l.formatFileOperation(op))

	// Log to zerolog
	l.zlog.Info().
		Str("file", op.Path).
		Str("type", op.Type).
		Str("status", op.Status).
		Bool("is_rewritten", op.IsRewritten).
		Bool("is_failed", op.IsFailed).
		Int("replacements", op.Replacements).
		Msg("file operation")
}

// 📝 StartRunOperation starts a new batch run
func (l *Logger) StartRunOperation(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.operations = nil

	// Print run header
	fmt.Fprintf(l.console, "[rewriting into %s]\n",
		color.New(color.FgCyan).Sprint(op.Destination))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Value))

	l.zlog.Info().
		Str("source", op.Source).
		Str("value", op.Value).
		Str("destination", op.Destination).
		Bool("is_archive", op.IsArchive).
		Msg("starting batch run")
}

// 📝 EndRunOperation ends the current batch run
func (l *Logger) EndRunOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("source", l.currentOp.Source).
		Int("files", len(l.operations)).
		Msg("batch run complete")

	l.currentOp = nil
	l.operations = nil
}

// 📋 LogReport prints every file result of a report followed by a summary line.
// Ignored files and created directories only reach zerolog at debug level.
func (l *Logger) LogReport(ctx context.Context, report *status.Report) {
	if report == nil {
		return
	}
	for _, info := range report.Files {
		if info.Status == status.StatusIgnored || info.Status == status.StatusProvisioned {
			l.zlog.Debug().Str("file", info.Path).Str("status", info.Status.String()).Msg("file operation")
			continue
		}
		l.LogFileOperation(ctx, FileOperationFromInfo(info))
	}

	counts := report.Counts()
	summary := fmt.Sprintf("%d rewritten, %d not applicable, %d ignored, %d failed",
		counts.Rewritten, counts.NotApplicable, counts.Ignored, counts.Failed)
	if counts.Failed > 0 {
		l.Warning(summary)
		return
	}
	l.Success(summary)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nameText := color.New(color.Bold, color.FgCyan).Sprint("clusterrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", nameText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
