// Package logtail reads the tail of kavita's log files and turns zap JSON
// lines into readable rows for the in-app log view.
//
// Read uses a ring buffer of maxLines entries so memory stays bounded no
// matter how large the rotated file grows. Parse and Format understand the
// encoder layout produced by the logging package:
//
//	{"level":"INFO","time":"2026-10-19T09:12:00.000Z","msg":"chapter opened","chapter":"ch1"}
//
// becomes
//
//	2026-10-19 09:12:00 INFO – chapter opened
//	    - chapter: ch1
//
// Lines that are not JSON objects pass through unchanged.
package logtail
