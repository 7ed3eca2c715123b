// Package dispatch accepts send-now and send-later email requests, tracks
// pending jobs until they fire or are cancelled, and records every
// terminal outcome in an append-only history.
//
// All state is process-lifetime only. A Scheduler owns its Store and
// History and guards both with a single mutex, so the fire path and the
// cancel path observe a job's fate atomically.
package dispatch
