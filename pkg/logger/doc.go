// Package logger provides the structured logging collaborator used across tweetcloud.
//
// A Logger is built once by the command layer from config.LoggingConfig and handed to
// every component that needs it; there is no package-level instance.
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	log.WithField("query", cfg.Collector.Query).Info("collector starting")
//	log.InfoWithFields("search completed", map[string]interface{}{
//	    "statuses": 100,
//	    "kept":     42,
//	})
//
// Console output uses zerolog's ConsoleWriter; when a log file is configured the same
// events are also written to the file as JSON lines. Tests use NewNopLogger or
// NewTestLogger, which captures messages for assertions.
package logger
