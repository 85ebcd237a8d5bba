// Package tsdb mirrors ingested readings into InfluxDB.
//
// The mirror is optional and best-effort: writes are batched and
// non-blocking, and a write failure never affects the SQLite store or the
// live broadcast. It exists for dashboards that want retention and
// downsampling beyond what the relational store offers.
package tsdb
