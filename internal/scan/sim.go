package scan

import (
	"context"
	"sync"
)

// SimDevice is an in-process camera plus decoder pair. Useful for
// development and tests: Inject delivers a decoded payload to the active
// subscription as if a frame had decoded successfully.
type SimDevice struct {
	mu         sync.Mutex
	stream     *simStream
	decode     func(string)
	AcquireErr error
}

// Acquire implements Camera.
func (d *SimDevice) Acquire(_ context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AcquireErr != nil {
		return nil, d.AcquireErr
	}
	d.stream = &simStream{device: d, track: &simTrack{}}
	return d.stream, nil
}

// Subscribe implements Decoder.
func (d *SimDevice) Subscribe(_ Stream, onDecoded func(text string)) (Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decode = onDecoded
	return &simSubscription{device: d}, nil
}

// Inject simulates a successful frame decode. It is a no-op when no
// subscription is active.
func (d *SimDevice) Inject(text string) {
	d.mu.Lock()
	decode := d.decode
	d.mu.Unlock()
	if decode != nil {
		decode(text)
	}
}

// Live reports whether an acquired stream still has a running track.
func (d *SimDevice) Live() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream != nil && !d.stream.track.stopped
}

type simStream struct {
	device *SimDevice
	track  *simTrack
}

func (s *simStream) Tracks() []Track { return []Track{s.track} }

type simTrack struct {
	stopped bool
}

func (t *simTrack) Stop() { t.stopped = true }

type simSubscription struct {
	device *SimDevice
}

func (s *simSubscription) Stop() {
	s.device.mu.Lock()
	s.device.decode = nil
	s.device.mu.Unlock()
}
