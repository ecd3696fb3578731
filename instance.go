package termview

import (
	"errors"
	"sync"

	headlessterm "github.com/danielgatis/go-headless-term"
	"go.uber.org/zap"
)

// ErrDisposed is returned by operations on an instance whose resources have
// already been released.
var ErrDisposed = errors.New("termview: instance disposed")

// errMounted is returned when a surface is attached to an instance twice.
var errMounted = errors.New("termview: instance already mounted")

// Instance owns one live terminal from the wrapped emulator library together
// with the event wiring around it. Instances are created on widget mount and
// disposed on unmount; they are never shared between widgets or reused
// across mounts.
//
// All event callbacks run synchronously on the goroutine that triggered
// them, normally the Bubble Tea update loop.
type Instance struct {
	term   *headlessterm.Terminal
	events *emitter
	log    *zap.Logger

	mu        sync.Mutex
	disposed  bool
	container *Container

	// Emissions produced while the terminal holds its internal lock are
	// queued here and drained once Write returns, so callbacks are free to
	// read terminal state.
	pendingScrolls   int
	pendingResponses [][]byte
}

// newInstance builds a terminal from the given options and wires its
// providers and middleware into the instance's event stream.
func newInstance(opts *Options, log *zap.Logger) *Instance {
	inst := &Instance{
		events: newEmitter(),
		log:    log,
	}

	var storage headlessterm.ScrollbackProvider
	if opts != nil && opts.Scrollback < 0 {
		storage = discardScrollback{}
	} else {
		storage = headlessterm.NewMemoryScrollback(opts.scrollbackLimit())
	}

	var rows, cols int
	if opts != nil {
		rows, cols = opts.Rows, opts.Cols
	}

	termOpts := []headlessterm.Option{
		headlessterm.WithSize(rows, cols),
		headlessterm.WithScrollback(&scrollNotifier{inst: inst, inner: storage}),
		headlessterm.WithBell(&bellNotifier{inst: inst}),
		headlessterm.WithPTYWriter(&responseWriter{inst: inst}),
		headlessterm.WithMiddleware(&headlessterm.Middleware{
			// Both hooks run before the terminal takes its internal lock,
			// so emitting here keeps callbacks free to read terminal state.
			LineFeed: func(next func()) {
				next()
				inst.events.emit(EventLineFeed, nil)
			},
			SetTitle: func(title string, next func(string)) {
				next(title)
				inst.events.emit(EventTitleChange, title)
			},
		}),
	}
	if opts != nil {
		if opts.AutoResize {
			termOpts = append(termOpts, headlessterm.WithAutoResize())
		}
		termOpts = append(termOpts,
			headlessterm.WithSixel(!opts.DisableSixel),
			headlessterm.WithKitty(!opts.DisableKitty),
		)
	}

	inst.term = headlessterm.New(termOpts...)
	return inst
}

// Terminal returns the wrapped emulator. Callers may read state and adjust
// providers through it, but lifecycle remains owned by the instance.
func (i *Instance) Terminal() *headlessterm.Terminal {
	return i.term
}

// Subscribe attaches a callback to a named event and returns its binding.
// Payload types are documented on the Event constants. Subscribing on a
// disposed instance returns an inert binding that never fires.
func (i *Instance) Subscribe(ev Event, fn func(payload any)) *Binding {
	if i.isDisposed() {
		return &Binding{event: ev, cancel: func() {}}
	}
	return i.events.subscribe(ev, fn)
}

// Write feeds emulator output (typically PTY bytes) into the terminal and
// emits cursor-move, render, scroll, data (terminal responses) and
// write-parsed events as appropriate. Implements io.Writer.
func (i *Instance) Write(p []byte) (int, error) {
	if i.isDisposed() {
		return 0, ErrDisposed
	}

	prevRow, prevCol := i.term.CursorPos()
	n, err := i.term.Write(p)
	i.drain()

	if row, col := i.term.CursorPos(); row != prevRow || col != prevCol {
		i.events.emit(EventCursorMove, nil)
	}
	if i.term.HasDirty() {
		start, end := dirtySpan(i.term.DirtyCells())
		i.term.ClearDirty()
		i.events.emit(EventRender, RenderRange{Start: start, End: end})
	}
	i.events.emit(EventWriteParsed, nil)

	return n, err
}

// WriteString is a convenience method that converts the string to bytes and calls Write.
func (i *Instance) WriteString(s string) (int, error) {
	return i.Write([]byte(s))
}

// drain flushes emissions queued while the terminal held its internal lock.
func (i *Instance) drain() {
	i.mu.Lock()
	scrolls := i.pendingScrolls
	responses := i.pendingResponses
	i.pendingScrolls = 0
	i.pendingResponses = nil
	i.mu.Unlock()

	for range make([]struct{}, scrolls) {
		i.events.emit(EventScroll, nil)
	}
	for _, resp := range responses {
		i.events.emit(EventData, string(resp))
	}
}

// Send emits typed input destined for the host through the data event.
// The bytes are not echoed to the screen; echo comes back through Write.
func (i *Instance) Send(data []byte) {
	if i.isDisposed() {
		return
	}
	i.events.emit(EventData, string(data))
}

// SendText is a convenience method that converts the string to bytes and calls Send.
func (i *Instance) SendText(s string) {
	i.Send([]byte(s))
}

// SendBinary emits raw non-text input (mouse reports and similar) through
// the binary event.
func (i *Instance) SendBinary(data []byte) {
	if i.isDisposed() {
		return
	}
	i.events.emit(EventBinary, string(data))
}

// SendKey emits a key event for input the widget is about to forward.
func (i *Instance) SendKey(ev KeyEvent) {
	if i.isDisposed() {
		return
	}
	i.events.emit(EventKey, ev)
}

// Resize changes the terminal dimensions and emits a resize event.
func (i *Instance) Resize(cols, rows int) {
	if i.isDisposed() || cols <= 0 || rows <= 0 {
		return
	}
	i.term.Resize(rows, cols)
	i.events.emit(EventResize, ResizeEvent{Cols: cols, Rows: rows})
}

// Select sets the active selection and emits a selection-change event.
func (i *Instance) Select(start, end headlessterm.Position) {
	if i.isDisposed() {
		return
	}
	i.term.SetSelection(start, end)
	i.events.emit(EventSelectionChange, nil)
}

// ClearSelection deactivates the selection and emits a selection-change
// event if one was active.
func (i *Instance) ClearSelection() {
	if i.isDisposed() || !i.term.HasSelection() {
		return
	}
	i.term.ClearSelection()
	i.events.emit(EventSelectionChange, nil)
}

// SelectedText returns the text content of the active selection.
func (i *Instance) SelectedText() string {
	if i.isDisposed() {
		return ""
	}
	return i.term.GetSelectedText()
}

// Mount attaches the instance's visual surface to a container. An instance
// mounts at most once.
func (i *Instance) Mount(c *Container) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	if i.container != nil {
		return errMounted
	}
	i.container = c
	return nil
}

// Container returns the mounted render surface, or nil before mount or
// after disposal.
func (i *Instance) Container() *Container {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.container
}

// Dispose releases the instance's resources: providers are detached,
// images and scrollback are cleared, and all event subscriptions are
// dropped. Calling Dispose twice returns ErrDisposed.
func (i *Instance) Dispose() error {
	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return ErrDisposed
	}
	i.disposed = true
	i.container = nil
	i.pendingScrolls = 0
	i.pendingResponses = nil
	i.mu.Unlock()

	i.term.SetBellProvider(headlessterm.NoopBell{})
	i.term.SetTitleProvider(headlessterm.NoopTitle{})
	i.term.SetPTYWriter(headlessterm.NoopPTYWriter{})
	i.term.SetRecordingProvider(headlessterm.NoopRecording{})
	i.term.SetMiddleware(nil)
	i.term.ClearImages()
	i.term.ClearScrollback()
	i.term.SetScrollbackProvider(headlessterm.NoopScrollback{})
	i.events.clear()

	return nil
}

func (i *Instance) isDisposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}

func (i *Instance) noteScroll() {
	i.mu.Lock()
	i.pendingScrolls++
	i.mu.Unlock()
}

func (i *Instance) noteResponse(p []byte) {
	buf := make([]byte, len(p))
	copy(buf, p)
	i.mu.Lock()
	i.pendingResponses = append(i.pendingResponses, buf)
	i.mu.Unlock()
}

// dirtySpan returns the inclusive row range covered by the given positions.
func dirtySpan(cells []headlessterm.Position) (start, end int) {
	if len(cells) == 0 {
		return 0, 0
	}
	start, end = cells[0].Row, cells[0].Row
	for _, pos := range cells[1:] {
		if pos.Row < start {
			start = pos.Row
		}
		if pos.Row > end {
			end = pos.Row
		}
	}
	return start, end
}

// bellNotifier forwards BEL characters into the event stream. The bell
// provider runs outside the terminal's internal lock, so it emits directly.
type bellNotifier struct {
	inst *Instance
}

func (b *bellNotifier) Ring() {
	b.inst.events.emit(EventBell, nil)
}

// scrollNotifier wraps the configured scrollback storage and records every
// line pushed off the top. Push runs while the terminal holds its internal
// lock, so the emission is deferred until the surrounding write drains.
type scrollNotifier struct {
	inst  *Instance
	inner headlessterm.ScrollbackProvider
}

func (s *scrollNotifier) Push(line []headlessterm.Cell) {
	s.inner.Push(line)
	s.inst.noteScroll()
}

func (s *scrollNotifier) Pop() []headlessterm.Cell           { return s.inner.Pop() }
func (s *scrollNotifier) Len() int                           { return s.inner.Len() }
func (s *scrollNotifier) Line(index int) []headlessterm.Cell { return s.inner.Line(index) }
func (s *scrollNotifier) Clear()                             { s.inner.Clear() }
func (s *scrollNotifier) SetMaxLines(max int)                { s.inner.SetMaxLines(max) }
func (s *scrollNotifier) MaxLines() int                      { return s.inner.MaxLines() }

// discardScrollback stores nothing but reports a nonzero capacity, so the
// buffer keeps offering scrolled lines and scroll events keep firing when
// scrollback storage is disabled.
type discardScrollback struct{}

func (discardScrollback) Push([]headlessterm.Cell)     {}
func (discardScrollback) Pop() []headlessterm.Cell     { return nil }
func (discardScrollback) Len() int                     { return 0 }
func (discardScrollback) Line(int) []headlessterm.Cell { return nil }
func (discardScrollback) Clear()                       {}
func (discardScrollback) SetMaxLines(int)              {}
func (discardScrollback) MaxLines() int                { return 1 }

// responseWriter routes terminal responses (cursor position reports, device
// attributes) out through the data event, mirroring how typed input reaches
// the host. Emission is deferred to the surrounding write.
type responseWriter struct {
	inst *Instance
}

func (r *responseWriter) Write(p []byte) (int, error) {
	r.inst.noteResponse(p)
	return len(p), nil
}

var _ headlessterm.BellProvider = (*bellNotifier)(nil)
var _ headlessterm.ScrollbackProvider = (*scrollNotifier)(nil)
var _ headlessterm.ScrollbackProvider = discardScrollback{}
var _ headlessterm.PTYWriter = (*responseWriter)(nil)
