package message

// EventType identifies what a message reports to its listeners.
type EventType int

const (
	// EventPartComplete fires when one part of a multi-part message has
	// finished animating.
	EventPartComplete EventType = iota
	// EventAnimationComplete fires when a single-block animation finishes.
	EventAnimationComplete
	// EventStreamAnimationComplete fires once per run when the whole message
	// has been revealed.
	EventStreamAnimationComplete
	// EventCodeCopied fires after a code block was written to the clipboard.
	EventCodeCopied
)

func (t EventType) String() string {
	switch t {
	case EventPartComplete:
		return "part-complete"
	case EventAnimationComplete:
		return "animation-complete"
	case EventStreamAnimationComplete:
		return "stream-animation-complete"
	case EventCodeCopied:
		return "code-copied"
	}
	return "unknown"
}

// Event is delivered to listeners registered with Message.OnEvent.
type Event struct {
	Type EventType

	// For EventPartComplete
	Index int
	Kind  PartKind

	// Completed text or markup
	Text string

	// For code parts and EventCodeCopied
	Code string
}

// NewPartCompleteEvent creates the completion event for part index.
func NewPartCompleteEvent(index int, p Part) Event {
	ev := Event{Type: EventPartComplete, Index: index, Kind: p.Kind}
	if p.Kind == PartCode {
		ev.Code = p.Text
	} else {
		ev.Text = p.Text
	}
	return ev
}

// NewAnimationCompleteEvent creates the single-block completion event.
func NewAnimationCompleteEvent(text string) Event {
	return Event{Type: EventAnimationComplete, Text: text}
}

// NewStreamAnimationCompleteEvent creates the message-level completion event.
func NewStreamAnimationCompleteEvent(text string) Event {
	return Event{Type: EventStreamAnimationComplete, Text: text}
}

// NewCodeCopiedEvent creates the event for a successful copy.
func NewCodeCopiedEvent(code string) Event {
	return Event{Type: EventCodeCopied, Code: code}
}
