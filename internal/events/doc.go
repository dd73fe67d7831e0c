// Package events implements the append-only notification stream emitted by
// coordinator mutations.
//
// The Log assigns each appended event a sequence number and a unique id and
// fans it out to subscribers without ever blocking the appender: a subscriber
// that falls behind misses events instead of stalling a mutation. The log
// itself is immutable history, kept separate from the mutable entity state.
package events
