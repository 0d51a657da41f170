// Package logging configures slog for textindexer.
//
// Without --debug only warnings and errors reach stderr. With --debug,
// debug-level JSON logs are written to ~/.textindexer/logs/ through a
// size-rotating writer so the interactive prompt stays readable.
package logging
