package webhook

import "errors"

var (
	// ErrQueueFull indicates the relay pool cannot accept new jobs right now.
	ErrQueueFull = errors.New("relay queue is full")
	// ErrQueueClosed indicates the relay pool has been shut down.
	ErrQueueClosed = errors.New("relay queue is closed")
)
