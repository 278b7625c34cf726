// Package results is the append-only store of quiz attempts.
//
// Two backends satisfy Store: FileStore keeps a JSON array on disk and
// rewrites it atomically on every append, and SQLiteStore keeps one row per
// attempt. Both return records in insertion order with no filtering; the
// dashboard package does all aggregation client side.
package results
