package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps: cfg.FramesPerSecond,
		now: time.Now,
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	t.since = t.now()
	return t
}

// Time paces the frame loop and counts frames per second
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	now    func() time.Time
	since  time.Time
	frames int
}

// Fps gets the set frames per second, 0 is unlimited
func (t *Time) Fps() int {
	return t.fps
}

// Wait blocks until the next frame is due. Returns immediately
// when frames are not capped.
func (t *Time) Wait() {
	if t.fpsTicker != nil {
		<-t.fpsTicker.C
	}
}

// Tick counts a frame. Once a second has passed it returns the number
// of frames in that second.
func (t *Time) Tick() (int, bool) {
	t.frames++
	now := t.now()
	if now.Sub(t.since) < time.Second {
		return 0, false
	}
	frames := t.frames
	t.frames = 0
	t.since = now
	return frames, true
}

// Stop releases the ticker
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}
