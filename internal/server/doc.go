// Package server implements kavita-server, the HTTP API shared by every
// client on the classroom network.
//
// Routes:
//
//	GET  /api/health       liveness
//	POST /api/save-result  append a quiz record
//	GET  /api/results      every saved record, oldest first
//	GET  /api/content      catalog override document, {} when absent
//	POST /api/tts          MP3 narration, rate limited per client IP
//	GET  /metrics          Prometheus exposition
//
// Every request passes through panic recovery, zap request logging and the
// Prometheus counter and latency histogram.
package server
