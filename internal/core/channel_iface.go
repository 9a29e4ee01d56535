package core

import "context"

//go:generate mockgen -source=channel_iface.go -destination=mocks/channel_mock.go -package=mocks

// PublishOptions controls delivery guarantees for a data payload.
// Reliable delivery is acknowledged/retried by the transport.
type PublishOptions struct {
	Reliable bool
}

// DataChannel is the client-side view of a room's generic message
// transport. Subscribers receive raw payloads; interpreting them is
// the caller's job.
type DataChannel interface {
	Publish(ctx context.Context, payload []byte, opts PublishOptions) error
	// Subscribe registers a handler for inbound payloads and returns
	// an unsubscribe func. Handlers run on the transport's read loop.
	Subscribe(handler func(payload []byte)) (unsubscribe func())
}

// MediaControl is the client-side view of local capture devices,
// supplied by the conferencing engine.
type MediaControl interface {
	SetMicrophoneEnabled(ctx context.Context, enabled bool) error
	SetCameraEnabled(ctx context.Context, enabled bool) error
}
