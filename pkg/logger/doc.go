// Package logger provides the structured logging interface used across flickrgrid.
//
// It wraps zerolog behind a small Logger interface with support for:
//   - Levelled logging (Debug, Info, Warn, Error)
//   - Structured fields attached per call or carried by child loggers
//   - Coloured console output, plus optional JSON-lines file output
//
// A Logger is built once by the command layer and handed to every component
// at construction time:
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	log = log.WithField("run_id", runID)
//	c := crawler.New(j, client, log, opts)
//
// Tests use NewNopLogger to discard output or NewTestLogger to assert on
// the messages a component produced.
package logger
