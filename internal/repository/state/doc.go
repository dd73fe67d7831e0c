// Package state implements persistence for the coordinator Snapshot.
//
// The FileRepository stores and loads the snapshot as JSON on disk and
// exposes a Repository interface that the server service depends on. Writes
// are atomic (temp file plus rename) so the last committed snapshot survives
// a crash mid-save.
package state
