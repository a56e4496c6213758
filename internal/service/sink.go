package service

import "github.com/latambot/orchestrator/internal/domain"

// EventSink is the outbound client-facing channel for one streamed session.
// A StreamSession is the sole owner of its sink: it closes the sink exactly
// once on every exit path, and Send after Close returns ErrSinkClosed rather
// than writing.
type EventSink interface {
	Send(event domain.OutboundEvent) error
	Close() error
	Closed() bool
}
