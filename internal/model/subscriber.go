package model

import "time"

// Subscriber is a chat that receives the periodic broadcast.
type Subscriber struct {
	ChatID       int64
	Username     string
	SubscribedAt time.Time
}
