// Package log records structured diagnostic events of a driver session.
//
// Operational output goes through slog. This package captures a
// machine-readable trace next to it: every record created, every dictionary
// miss, degraded classifications, abandoned branches, stream frames and
// runtime I/O failures.
//
// # Basic Usage
//
//	fl, _ := log.NewFileLogger("/var/log/ycpswasyn/ioc.ylog")
//	rec := log.NewRecorder(log.Tee(log.NewSlogAdapter(slog.Default()), fl), "ATCA1")
//
// # File Format
//
// Log files are a sequence of CBOR-encoded Events using integer keys. The
// ycpswasyn-log tool views, summarizes and exports them.
package log
