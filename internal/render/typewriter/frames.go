package typewriter

import (
	"sync"
	"time"
)

// FrameInterval is the default frame period (~60fps).
const FrameInterval = 16 * time.Millisecond

// FrameFunc is one scheduled tick. now is the frame timestamp.
type FrameFunc func(now time.Time)

// Frames schedules a callback for the next animation frame. The returned
// cancel func prevents the callback from running if it has not started yet.
type Frames interface {
	RequestFrame(fn FrameFunc) (cancel func())
}

// ManualFrames is a Frames implementation stepped explicitly by its owner:
// a bubbletea tick loop in the terminal host, or a test.
type ManualFrames struct {
	mu     sync.Mutex
	nextID int
	queue  []queuedFrame
}

type queuedFrame struct {
	id int
	fn FrameFunc
}

// NewManualFrames creates an empty frame queue.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// RequestFrame queues fn for the next Step.
func (m *ManualFrames) RequestFrame(fn FrameFunc) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.queue = append(m.queue, queuedFrame{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, f := range m.queue {
			if f.id == id {
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				return
			}
		}
	}
}

// Step runs every callback queued before the call. Callbacks requested while
// stepping run on the next Step. Returns the number of callbacks run.
func (m *ManualFrames) Step(now time.Time) int {
	m.mu.Lock()
	batch := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, f := range batch {
		f.fn(now)
	}
	return len(batch)
}

// Pending returns the number of queued callbacks.
func (m *ManualFrames) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RunUntilIdle steps until no callbacks remain or max steps have run,
// advancing the clock by interval each step. Returns the number of steps.
func (m *ManualFrames) RunUntilIdle(start time.Time, interval time.Duration, max int) int {
	now := start
	steps := 0
	for steps < max && m.Pending() > 0 {
		m.Step(now)
		now = now.Add(interval)
		steps++
	}
	return steps
}

// TickerFrames runs callbacks on a timer after Interval. Callbacks run on
// timer goroutines; Animator serializes them.
type TickerFrames struct {
	Interval time.Duration
}

// RequestFrame schedules fn after the frame interval.
func (t TickerFrames) RequestFrame(fn FrameFunc) func() {
	interval := t.Interval
	if interval <= 0 {
		interval = FrameInterval
	}
	timer := time.AfterFunc(interval, func() { fn(time.Now()) })
	return func() { timer.Stop() }
}
