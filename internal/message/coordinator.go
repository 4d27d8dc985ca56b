package message

import "sync"

// State is the coordinator's position in a multi-part run.
type State int

const (
	StateIdle State = iota
	StateAnimating
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnimating:
		return "animating"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Transition is the outcome of reporting a part completion.
type Transition int

const (
	// TransitionIgnored: the report was stale or duplicate.
	TransitionIgnored Transition = iota
	// TransitionAdvanced: the next part is now current.
	TransitionAdvanced
	// TransitionCompleted: the last part finished.
	TransitionCompleted
)

// Coordinator sequences the animations of a mixed message so that only one
// part animates at a time, in order. The current index never decreases.
type Coordinator struct {
	mu      sync.Mutex
	parts   []Part
	current int
	active  bool
	done    bool
}

// NewCoordinator creates an idle coordinator over parts.
func NewCoordinator(parts []Part) *Coordinator {
	return &Coordinator{parts: parts}
}

// Start moves Idle to AnimatingPart(0). It returns false if the coordinator
// already started or has nothing to animate.
func (c *Coordinator) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active || c.done || len(c.parts) == 0 {
		return false
	}
	c.active = true
	c.current = 0
	return true
}

// PartComplete reports that part i finished. Reports for any index other
// than the current one are ignored.
func (c *Coordinator) PartComplete(i int) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || i != c.current {
		return TransitionIgnored
	}
	if c.current == len(c.parts)-1 {
		c.active = false
		c.done = true
		return TransitionCompleted
	}
	c.current++
	return TransitionAdvanced
}

// State returns the state and current part index.
func (c *Coordinator) State() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.done:
		return StateComplete, c.current
	case c.active:
		return StateAnimating, c.current
	}
	return StateIdle, 0
}

// Visible reports whether part i belongs in the output. Parts after the
// current one are left out entirely.
func (c *Coordinator) Visible(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active && !c.done {
		return false
	}
	return i >= 0 && i <= c.current
}

// Animating reports whether part i is the one currently animating.
func (c *Coordinator) Animating(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && i == c.current
}

// Parts returns the parts being sequenced.
func (c *Coordinator) Parts() []Part {
	return c.parts
}
