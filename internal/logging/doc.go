// Package logging provides structured logging with per-module log level
// configuration.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"render":    "debug",
//			"discovery": "warn",
//		},
//	})
//
// Then obtain module loggers anywhere:
//
//	logger := logging.GetLogger("streams").With("url", url)
//	logger.Info("Stream started", "slot", slot)
//
// Records go to stdout (text or json), to the systemd journal when
// journald is present, and to an in-memory ring buffer served by the
// HTTP API for diagnostics:
//
//	journalctl -t camgrid MODULE=discovery
package logging
