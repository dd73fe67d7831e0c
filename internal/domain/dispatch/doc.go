// Package dispatch contains the core domain model for emergency coordination.
//
// It defines the Emergency, Responder and Resource entities, their enums and
// the Coordinator aggregate that owns all shared state. The Coordinator
// enforces every precondition, invariant and authorization rule: callers get
// either a fully applied transition or a typed error with no partial effects.
//
// The package is transport- and storage-agnostic. The Coordinator itself is
// not safe for concurrent use; the owning service serializes mutations.
package dispatch
