// Package notifier is the real-time fan-out core: the connection registry,
// the per-connection channel subscription table and the dispatcher.
//
// A Hub is owned by the application node and handed to the transport and
// the bus ingress; there is no package-level state. Dispatch never blocks:
// each Conn has a bounded outbound queue with a drop policy, and the
// transport's write loop drains it.
package notifier
