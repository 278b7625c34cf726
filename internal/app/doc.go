// Package app is the composition root of the kavita terminal client.
//
// Run loads the configuration, opens the rotating log and the session
// file, merges the server's content override into the built-in catalog
// and wires the flashcard carousel, the narration controller and the
// state machine together before handing them to the UI.
//
// A background poller refreshes the teacher dashboard from the results
// API. Failed polls back off exponentially (capped at 30 seconds) and keep
// the last good records so the dashboard stays usable while the server is
// away.
//
// A missing or malformed content override is never fatal: the built-in
// catalog is used and the failure is logged.
package app
