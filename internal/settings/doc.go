// Package settings implements the file-backed device configuration store.
//
// Settings live in a single JSON file. Writes go through a temp file and an
// atomic rename so a crash mid-write cannot corrupt the record. A missing or
// unreadable file falls back to documented defaults instead of failing; the
// device must stay usable without manual recovery.
package settings
