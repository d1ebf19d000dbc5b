package application

import (
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/limiter"
	"github.com/BookHive-Network/notifier/internal/notifier"
)

// Hub returns the node's connection registry and dispatcher.
func (n *Node) Hub() *notifier.Hub {
	return n.hub
}

// Bans returns the node's ban list.
func (n *Node) Bans() *limiter.BanList {
	return n.bans
}

// Config returns the node's configuration.
func (n *Node) Config() *config.Config {
	return n.config
}

// GetConnectionCount returns the current number of registered connections.
func (n *Node) GetConnectionCount() int {
	return n.hub.Count()
}

// GetStartTime returns when the node was built.
func (n *Node) GetStartTime() time.Time {
	return n.startTime
}
