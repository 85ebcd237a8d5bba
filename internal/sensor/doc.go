// Package sensor implements the reading store and the ingest path.
//
// Readings are append-only: they are created on ingest, listed in insertion
// order, and only ever removed by an explicit bulk clear. Every successful
// insert is immediately followed by a best-effort broadcast to connected
// live subscribers; persistence and broadcast are not atomic, a subscriber
// that misses an event gets no retry or backlog.
package sensor
