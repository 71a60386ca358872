package client

import "sync/atomic"

// Metrics counts what happened on the channel and in the timers, for the
// debug surface and for tests.
type Metrics struct {
	FramesReceived    int64 // inbound frames handed to the router
	DecodeErrors      int64 // malformed frames dropped
	UnknownTypes      int64 // frames with an unrecognized type dropped
	HandlerPanics     int64 // frames whose handling panicked
	FramesSent        int64 // outbound frames written
	SendsDropped      int64 // outbound frames dropped (channel not open or write failed)
	MovesThrottled    int64 // movement commands suppressed by the cooldown
	ReconnectAttempts int64 // backoff attempts fired
	Reconnects        int64 // attempts that reopened the channel
	AnimationTicks    int64 // pending board updates applied
}

func (m *Metrics) IncFramesReceived()    { atomic.AddInt64(&m.FramesReceived, 1) }
func (m *Metrics) IncDecodeErrors()      { atomic.AddInt64(&m.DecodeErrors, 1) }
func (m *Metrics) IncUnknownTypes()      { atomic.AddInt64(&m.UnknownTypes, 1) }
func (m *Metrics) IncHandlerPanics()     { atomic.AddInt64(&m.HandlerPanics, 1) }
func (m *Metrics) IncFramesSent()        { atomic.AddInt64(&m.FramesSent, 1) }
func (m *Metrics) IncSendsDropped()      { atomic.AddInt64(&m.SendsDropped, 1) }
func (m *Metrics) IncMovesThrottled()    { atomic.AddInt64(&m.MovesThrottled, 1) }
func (m *Metrics) IncReconnectAttempts() { atomic.AddInt64(&m.ReconnectAttempts, 1) }
func (m *Metrics) IncReconnects()        { atomic.AddInt64(&m.Reconnects, 1) }
func (m *Metrics) IncAnimationTicks()    { atomic.AddInt64(&m.AnimationTicks, 1) }

// Snapshot returns a read-only copy for JSON output.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"frames_received":    atomic.LoadInt64(&m.FramesReceived),
		"decode_errors":      atomic.LoadInt64(&m.DecodeErrors),
		"unknown_types":      atomic.LoadInt64(&m.UnknownTypes),
		"handler_panics":     atomic.LoadInt64(&m.HandlerPanics),
		"frames_sent":        atomic.LoadInt64(&m.FramesSent),
		"sends_dropped":      atomic.LoadInt64(&m.SendsDropped),
		"moves_throttled":    atomic.LoadInt64(&m.MovesThrottled),
		"reconnect_attempts": atomic.LoadInt64(&m.ReconnectAttempts),
		"reconnects":         atomic.LoadInt64(&m.Reconnects),
		"animation_ticks":    atomic.LoadInt64(&m.AnimationTicks),
	}
}
