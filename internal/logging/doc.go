// Package logging provides structured logging for sparring sessions.
//
// This package wraps Go's log/slog to produce JSON-formatted logs that
// can be filtered and analyzed after a debate has run. Nothing here is a
// process-wide singleton: components receive a *Logger at construction
// and derive child loggers from it.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via the With* methods share the underlying writer safely, and
// [RotatingWriter] guards file operations with a mutex.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "INFO", Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	flowLog := logger.WithSession(sessionID).WithComponent("flow")
//	flowLog.Info("turn completed", "turn", 12, "tokens", 3481)
//
// Components that accept an optional logger fall back to [NewNop].
package logging
