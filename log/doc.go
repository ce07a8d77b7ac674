// Package log provides a concurrency-safe structured logger built on
// [log/slog].
//
// A [Logger] is configured once with functional options and is immutable
// afterwards; [Logger.Wrap] and [Logger.With] derive new loggers.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("parsed", slog.String("file", "main.fl"))
//
// # Levels
//
// In addition to the slog levels, [LevelTrace] sits below [LevelDebug] and is
// used for step-by-step engine diagnostics.
//
// # Zero value
//
// The zero [Logger] discards all messages. Libraries accept a Logger through
// an option and never require one.
//
// # Default logger
//
// Package-level functions such as [Info] and [DebugContext] write through a
// default logger that [Config] reconfigures. The command-line interface uses
// it; library code should not.
package log
