package termview

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// wheelDelta is the number of scrollback lines moved per wheel tick when the
// running application is not tracking the mouse itself.
const wheelDelta = 3

// Container is the render surface an instance is mounted into: the region
// of the host program's view tagged with the widget's identifier and style.
type Container struct {
	ID string
}

// Widget is a declarative Bubble Tea component owning a single terminal
// instance. It constructs the instance from [Props] on mount, keeps the
// instance's event stream bound to the callback props across updates, and
// disposes everything on [Widget.Unmount].
//
// At most one live instance exists per mounted widget; every event binding
// is disposed before the instance that produced it.
type Widget struct {
	id         string
	props      Props
	log        *zap.Logger
	inst       *Instance
	container  *Container
	bindings   map[Event]*boundCallback
	viewOffset int
}

// boundCallback pairs a live binding with the identity of the handler it
// delivers to, so updates can tell "same handler" from "new handler".
type boundCallback struct {
	ptr     uintptr
	binding *Binding
}

// New mounts a widget: the instance is constructed from props.Options,
// addons are loaded in order, the key handler installed, the surface
// attached, and OnInit invoked with the live instance. A construction
// failure (an addon refusing to load) is fatal for the mount attempt and
// returned to the caller.
func New(props Props) (*Widget, error) {
	w := &Widget{}
	if err := w.mount(props); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Widget) mount(props Props) error {
	w.props = props

	w.log = props.Logger
	if w.log == nil {
		w.log = zap.NewNop()
	}
	w.id = props.ID
	if w.id == "" {
		w.id = "termview-" + uuid.NewString()[:8]
	}

	inst := newInstance(props.Options, w.log)

	for n, addon := range props.Addons {
		if err := addon.Load(inst); err != nil {
			w.disposeInstance(inst)
			return fmt.Errorf("termview: load addon %d: %w", n, err)
		}
	}

	w.container = &Container{ID: w.id}
	if err := inst.Mount(w.container); err != nil {
		w.disposeInstance(inst)
		return fmt.Errorf("termview: mount: %w", err)
	}

	w.inst = inst
	w.bindings = make(map[Event]*boundCallback)
	w.viewOffset = 0
	w.syncBindings(props.Callbacks)

	w.log.Debug("terminal instance mounted", zap.String("id", w.id))

	if props.OnInit != nil {
		props.OnInit(inst)
	}
	return nil
}

// SetProps applies a new set of props. Options are compared by pointer
// identity: a different pointer tears the current instance down (one
// OnDispose + dispose) and constructs a fresh one (addon loads + OnInit).
// Any other change is applied in place; callback identity changes rebind
// only the affected events and never touch the instance.
func (w *Widget) SetProps(props Props) error {
	if w.inst == nil {
		return ErrDisposed
	}

	if props.Options != w.props.Options {
		w.Unmount()
		return w.mount(props)
	}

	if props.Logger != nil {
		w.log = props.Logger
	}
	if props.ID != "" && props.ID != w.id {
		w.id = props.ID
		w.container.ID = props.ID
	}
	w.props = props
	w.syncBindings(props.Callbacks)
	return nil
}

// syncBindings reconciles the twelve callback props against the live
// bindings: absent handler, no binding; new handler identity, dispose old
// then subscribe new; same identity, leave untouched.
func (w *Widget) syncBindings(cb Callbacks) {
	for _, spec := range cb.specs() {
		cur := w.bindings[spec.event]

		if spec.ptr == 0 {
			if cur != nil {
				cur.binding.Dispose()
				delete(w.bindings, spec.event)
			}
			continue
		}
		if cur != nil && cur.ptr == spec.ptr {
			continue
		}
		if cur != nil {
			cur.binding.Dispose()
		}
		w.bindings[spec.event] = &boundCallback{
			ptr:     spec.ptr,
			binding: w.inst.Subscribe(spec.event, spec.fire),
		}
	}
}

// Unmount releases everything the widget owns: bindings first, then
// OnDispose with the still-live instance, then disposal. Disposal failures
// are logged and suppressed so unmounting never fails from the host
// program's perspective. Unmount is idempotent.
func (w *Widget) Unmount() {
	if w.inst == nil {
		return
	}
	inst := w.inst

	for ev, bound := range w.bindings {
		bound.binding.Dispose()
		delete(w.bindings, ev)
	}

	if w.props.OnDispose != nil {
		w.props.OnDispose(inst)
	}

	w.disposeInstance(inst)
	w.inst = nil
	w.container = nil
	w.log.Debug("terminal instance unmounted", zap.String("id", w.id))
}

// disposeInstance disposes without propagating: errors and panics are
// logged and swallowed.
func (w *Widget) disposeInstance(inst *Instance) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("instance disposal panicked", zap.String("id", w.id), zap.Any("panic", r))
		}
	}()
	if err := inst.Dispose(); err != nil {
		w.log.Error("instance disposal failed", zap.String("id", w.id), zap.Error(err))
	}
}

// Init implements the Bubble Tea component convention. It performs no work;
// construction happens in New.
func (w *Widget) Init() tea.Cmd {
	return nil
}

// Update feeds host input into the terminal. Key messages are checked
// against the custom key handler, emitted as key events, encoded, and sent
// through the data event. Mouse messages become mouse reports when the
// running application tracks the mouse, and scroll the local view
// otherwise. Window sizing is the parent's concern; call [Widget.Resize]
// with the widget's layout region.
func (w *Widget) Update(msg tea.Msg) (*Widget, tea.Cmd) {
	if w.inst == nil {
		return w, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		w.handleKey(msg)
	case tea.MouseMsg:
		w.handleMouse(msg)
	}
	return w, nil
}

func (w *Widget) handleKey(msg tea.KeyMsg) {
	if h := w.props.KeyHandler; h != nil && !h(msg) {
		return
	}

	if msg.Paste {
		w.inst.Send(encodePaste(string(msg.Runes), w.inst.Terminal()))
		return
	}

	data := encodeKey(msg, w.inst.Terminal())
	if len(data) == 0 {
		return
	}
	w.inst.SendKey(KeyEvent{Key: msg.String(), Input: msg})
	w.inst.Send(data)
}

func (w *Widget) handleMouse(msg tea.MouseMsg) {
	if report := encodeMouse(msg, w.inst.Terminal()); report != nil {
		w.inst.SendBinary(report)
		return
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		w.ScrollUp(wheelDelta)
	case tea.MouseButtonWheelDown:
		w.ScrollDown(wheelDelta)
	}
}

// Write feeds emulator output (typically PTY bytes) into the instance.
// Implements io.Writer so the widget can sit directly behind a PTY reader.
func (w *Widget) Write(p []byte) (int, error) {
	if w.inst == nil {
		return 0, ErrDisposed
	}
	return w.inst.Write(p)
}

// Resize changes the terminal dimensions, clamping the scrollback view
// offset to the new layout.
func (w *Widget) Resize(cols, rows int) {
	if w.inst == nil {
		return
	}
	w.inst.Resize(cols, rows)
}

// ScrollUp moves the view n lines into scrollback. View scrolling is purely
// presentational: it emits no events and never mutates options.
func (w *Widget) ScrollUp(n int) {
	if w.inst == nil || w.inst.Terminal().IsAlternateScreen() {
		return
	}
	w.viewOffset += n
	if limit := w.inst.Terminal().ScrollbackLen(); w.viewOffset > limit {
		w.viewOffset = limit
	}
}

// ScrollDown moves the view n lines back toward the live screen.
func (w *Widget) ScrollDown(n int) {
	w.viewOffset -= n
	if w.viewOffset < 0 {
		w.viewOffset = 0
	}
}

// ScrollToBottom returns the view to the live screen.
func (w *Widget) ScrollToBottom() {
	w.viewOffset = 0
}

// View renders the terminal screen through the container style. When a
// bubblezone manager is supplied, the rendered region is marked with the
// widget's identifier for mouse hit-testing.
func (w *Widget) View() string {
	if w.inst == nil {
		return ""
	}
	content := w.props.Style.Render(renderScreen(w.inst, w.viewOffset))
	if w.props.Zone != nil {
		content = w.props.Zone.Mark(w.id, content)
	}
	return content
}

// ID returns the widget's container identifier.
func (w *Widget) ID() string {
	return w.id
}

// Instance returns the live instance, or nil when unmounted. Prefer the
// OnInit callback for obtaining the instance at mount time.
func (w *Widget) Instance() *Instance {
	return w.inst
}
