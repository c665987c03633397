// Package tasks models asynchronous Papri backend tasks and drives their
// client-side lifecycle.
//
// A Task is a backend-tracked unit of work (a search or a video edit)
// identified by an opaque id. The Controller submits payloads, polls task
// status on a fixed per-kind cadence until a terminal state, fetches the first
// result page for successful searches, and reports transitions through a
// Notifier. At most one live poll loop exists per task kind; starting a new
// watch cancels the previous one and late responses from a cancelled loop are
// dropped before they can touch current state.
//
// Transport is abstracted behind small interfaces (SearchSubmitter,
// EditSubmitter, StatusProvider, ResultFetcher) so the controller is testable
// without a network; internal/api provides the HTTP implementations.
package tasks
