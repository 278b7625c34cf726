// Package api provides an HTTP client for the kavita server.
//
// # Overview
//
// The client covers the four endpoints the reader and dashboard use:
//
//   - GET /api/content: content override document merged into the catalog
//   - POST /api/tts: narration audio for a piece of poem text
//   - POST /api/save-result: submit a finished quiz attempt
//   - GET /api/results: every stored attempt, for the dashboard
//
// # Client Usage
//
//	client, err := api.NewClient("127.0.0.1:8787")
//	if err != nil {
//		return err
//	}
//	records, err := client.FetchResults(ctx)
//
// # Request Handling
//
// All requests carry the caller's context, set a User-Agent of kavita/0.1 and
// return wrapped errors. JSON calls time out after 5 seconds; synthesis gets
// 30 seconds because the server may have to call its upstream voice provider.
//
// # Error Handling
//
// JSON endpoints report statuses of 400 and above as "api <path> returned
// status <code>". Synthesize instead returns *narration.RequestError so the
// narration controller can surface the status in a one-line notice; transport
// failures are wrapped in the same type with a zero status.
package api
