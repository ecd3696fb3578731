package termview

import (
	"sort"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Event names a subscribable terminal event.
type Event string

const (
	// EventBell fires when the terminal receives a BEL character. No payload.
	EventBell Event = "bell"
	// EventBinary fires when the widget produces non-text input for the host
	// (mouse reports and similar raw sequences). Payload: string.
	EventBinary Event = "binary"
	// EventCursorMove fires when the cursor position changes while processing
	// output. No payload.
	EventCursorMove Event = "cursor-move"
	// EventData fires when the terminal produces input for the host: typed
	// keys, pasted text, and terminal responses such as cursor position
	// reports. Payload: string.
	EventData Event = "data"
	// EventKey fires for every key the widget forwards to the terminal.
	// Payload: KeyEvent.
	EventKey Event = "key"
	// EventLineFeed fires for every processed line feed. No payload.
	EventLineFeed Event = "line-feed"
	// EventRender fires after a write that modified the screen. Payload:
	// RenderRange with the dirty row span.
	EventRender Event = "render"
	// EventResize fires after the terminal dimensions change. Payload:
	// ResizeEvent.
	EventResize Event = "resize"
	// EventScroll fires for every line scrolled off the top of the primary
	// buffer into scrollback. No payload.
	EventScroll Event = "scroll"
	// EventSelectionChange fires when the selection is set or cleared. No payload.
	EventSelectionChange Event = "selection-change"
	// EventTitleChange fires when the window title changes (OSC 0/1/2).
	// Payload: string.
	EventTitleChange Event = "title-change"
	// EventWriteParsed fires after every completed write, whether or not it
	// changed the screen. No payload.
	EventWriteParsed Event = "write-parsed"
)

// Events lists every supported event name.
var Events = []Event{
	EventBell,
	EventBinary,
	EventCursorMove,
	EventData,
	EventKey,
	EventLineFeed,
	EventRender,
	EventResize,
	EventScroll,
	EventSelectionChange,
	EventTitleChange,
	EventWriteParsed,
}

// KeyEvent is the payload for EventKey.
type KeyEvent struct {
	// Key is the bubbletea key name, e.g. "a", "enter", "ctrl+c".
	Key string
	// Input is the originating input message.
	Input tea.KeyMsg
}

// RenderRange is the payload for EventRender: the inclusive span of rows
// modified by the write that triggered the event.
type RenderRange struct {
	Start int
	End   int
}

// ResizeEvent is the payload for EventResize.
type ResizeEvent struct {
	Cols int
	Rows int
}

// Binding is a disposable subscription: "this callback is currently
// listening for this event on this instance". Dispose is idempotent and
// safe to call after the owning instance has been disposed.
type Binding struct {
	event  Event
	once   sync.Once
	cancel func()
}

// Event returns the event this binding listens for.
func (b *Binding) Event() Event {
	return b.event
}

// Dispose cancels the subscription. Further events are not delivered.
func (b *Binding) Dispose() {
	b.once.Do(b.cancel)
}

// emitter is a minimal synchronous event dispatcher. Callbacks run on the
// goroutine that emits, in subscription order.
type emitter struct {
	mu   sync.Mutex
	next int
	subs map[Event]map[int]func(any)
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[Event]map[int]func(any))}
}

func (e *emitter) subscribe(ev Event, fn func(any)) *Binding {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++

	m := e.subs[ev]
	if m == nil {
		m = make(map[int]func(any))
		e.subs[ev] = m
	}
	m[id] = fn

	return &Binding{
		event: ev,
		cancel: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs[ev], id)
		},
	}
}

func (e *emitter) emit(ev Event, payload any) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.subs[ev]))
	for id := range e.subs[ev] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(any), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subs[ev][id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

// count returns the number of live subscriptions for an event.
func (e *emitter) count(ev Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs[ev])
}

// clear drops every subscription. Outstanding Binding handles stay valid;
// disposing them becomes a no-op.
func (e *emitter) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = make(map[Event]map[int]func(any))
}
