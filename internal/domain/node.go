package domain

import (
	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/limiter"
	"github.com/BookHive-Network/notifier/internal/notifier"
)

// NodeInterface is what the transport needs from the application node.
type NodeInterface interface {
	Hub() *notifier.Hub
	Bans() *limiter.BanList
	Config() *config.Config
}
