package usecase

import (
	"context"

	"dialdesk/internal/ports"
)

// activeSession pairs one call id with at most one live stream channel.
// Starting or watching another call tears the previous session down first.
type activeSession struct {
	callID string
	ctx    context.Context
	cancel context.CancelFunc

	channel    ports.StreamChannel
	eventsDone chan struct{}
}
