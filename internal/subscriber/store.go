// Package subscriber keeps the set of chats that receive broadcast signals.
package subscriber

import "CryptoSignal/internal/model"

// Store persists the chats subscribed to broadcasts. Only chat identity is
// stored, never signal history.
type Store interface {
	// Add subscribes a chat and reports false if it was already subscribed.
	Add(sub model.Subscriber) (bool, error)
	// Remove unsubscribes a chat and reports false if it was not subscribed.
	Remove(chatID int64) (bool, error)
	// List returns subscribers in subscription order.
	List() ([]model.Subscriber, error)
	Count() (int, error)
	Close() error
}
