// ABOUTME: Package documentation for the playback core
// ABOUTME: Describes the engine, slots and the concurrency model

// Package core is the real-time audio playback backend. An Engine owns the
// output device and a table of slots, each pairing one decoder with one
// hardware voice under a monotonic integer handle. A background poll loop
// keeps every playing slot's voice fed while foreground callers issue
// control commands through the engine's thread-safe API.
//
// Concurrency model: one process-wide lock guards the slot table and all
// per-slot state. Control operations and the poll loop are strictly
// serialized, and every completed operation is visible to the very next
// poll iteration because the operation also nudges the loop's wait.
package core
