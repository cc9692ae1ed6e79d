// Package scan wraps camera acquisition and a decode-callback stream behind
// a scoped handle. The adapter owns at most one live stream at a time (the
// caller's contract) and guarantees that release stops the decode
// subscription and every media track on every exit path.
package scan

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Acquisition failures reported by camera implementations.
var (
	ErrPermissionDenied = errors.New("scan: camera permission denied")
	ErrNoDevice         = errors.New("scan: no capture device available")
)

// Track is a single media track of an acquired stream.
type Track interface {
	Stop()
}

// Stream is an acquired camera stream.
type Stream interface {
	Tracks() []Track
}

// Camera acquires a video capture stream.
type Camera interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Subscription is a running decode loop attached to a stream.
type Subscription interface {
	Stop()
}

// Decoder attaches a decode loop to a stream. Every frame that decodes
// successfully fires onDecoded; the decoder enforces no upper bound on the
// number of callbacks.
type Decoder interface {
	Subscribe(stream Stream, onDecoded func(text string)) (Subscription, error)
}

// Adapter coordinates the camera and the decoder.
type Adapter struct {
	Camera  Camera
	Decoder Decoder
	Logger  zerolog.Logger
}

// Handle owns one active stream and its decode subscription. Release is
// idempotent and safe when activation never fully succeeded.
type Handle struct {
	once   sync.Once
	stream Stream
	sub    Subscription
}

// Activate acquires the camera stream and starts the decode loop. On any
// failure the partially acquired resources are released before returning.
func (a *Adapter) Activate(ctx context.Context, onDecoded func(text string)) (*Handle, error) {
	if a == nil || a.Camera == nil || a.Decoder == nil {
		return nil, errors.New("scan: adapter not configured")
	}
	if onDecoded == nil {
		return nil, errors.New("scan: decode callback is required")
	}
	stream, err := a.Camera.Acquire(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("camera acquisition failed")
		return nil, err
	}
	sub, err := a.Decoder.Subscribe(stream, onDecoded)
	if err != nil {
		stopTracks(stream)
		a.Logger.Warn().Err(err).Msg("decode subscription failed")
		return nil, err
	}
	return &Handle{stream: stream, sub: sub}, nil
}

// Release stops the decode subscription and every media track. Double
// release and release of a nil handle are no-ops.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.sub != nil {
			h.sub.Stop()
		}
		stopTracks(h.stream)
	})
}

func stopTracks(stream Stream) {
	if stream == nil {
		return
	}
	for _, track := range stream.Tracks() {
		if track != nil {
			track.Stop()
		}
	}
}
