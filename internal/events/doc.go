// Package events defines the outbound event kinds the notifier can send.
//
// Event is a closed sum type: its marker method is unexported, so only the
// structs declared here satisfy it. Every frame on the wire has the shape
// {"type": ..., "data": {...}, "timestamp": RFC3339}.
package events
