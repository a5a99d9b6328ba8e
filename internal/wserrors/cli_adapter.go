package wserrors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if we, ok := err.(*WorkspaceError); ok {
		return a.exitCodeFromWorkspace(we)
	}

	return 1
}

// exitCodeFromWorkspace maps WorkspaceError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromWorkspace(err *WorkspaceError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryNotFound:
		return 3 // Workspace or record missing
	case CategoryAuth:
		return 5 // ACL or ownership check failed
	case CategoryPrivilege:
		return 6 // Elevation or de-elevation failure
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryIO:
		return 11 // Filesystem error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if we, ok := err.(*WorkspaceError); ok {
		return a.formatWorkspace(we)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatWorkspace formats a WorkspaceError for display.
func (a *CLIErrorAdapter) formatWorkspace(err *WorkspaceError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation, CategoryAuth, CategoryNotFound:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if we, ok := err.(*WorkspaceError); ok {
		return we.Category == CategoryInternal ||
			we.Category == CategoryPrivilege
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if we, ok := err.(*WorkspaceError); ok {
		level := a.slogLevelFromSeverity(we.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(we.Category)),
		}
		for k, v := range we.Context {
			attrs = append(attrs, slog.Any(k, v))
		}

		a.logger.LogAttrs(nil, level, we.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts WorkspaceError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
