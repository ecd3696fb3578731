package termview

import (
	"reflect"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"
)

// Props is the declarative configuration of a [Widget]. All fields are
// supplied at mount time and re-supplied on every [Widget.SetProps] call;
// change detection is by identity, never by deep equality.
//
//   - Options identity change: full instance teardown and recreation.
//   - Callback identity change: the old binding for that event is disposed
//     and a new one created; the instance is untouched.
//   - Everything else (ID, Style, Zone, KeyHandler, lifecycle callbacks):
//     replaced in place.
//
// Addons are consulted only during construction; replacing the slice takes
// effect at the next instance recreation.
type Props struct {
	// ID tags the rendered container. Empty means a generated identifier.
	ID string

	// Style is applied to the rendered container (the "class" of the
	// widget's surface).
	Style lipgloss.Style

	// Zone, when set, marks the rendered view with ID for mouse
	// hit-testing via bubblezone.
	Zone *zone.Manager

	// Options configure the terminal at construction time. Compared by
	// pointer identity; see [Options].
	Options *Options

	// Addons are loaded into the instance at construction, in order.
	// A load failure is fatal for that mount attempt.
	Addons []Addon

	// KeyHandler, when set, is consulted before the widget's own key
	// handling. Returning false swallows the key entirely: no key event,
	// no data event, nothing reaches the terminal.
	KeyHandler func(tea.KeyMsg) bool

	// OnInit is called with the freshly constructed instance, after its
	// surface is attached. This is the supported way to obtain a handle
	// to the live instance.
	OnInit func(*Instance)

	// OnDispose is called with the instance about to be destroyed, before
	// disposal, so the callback still sees a live instance.
	OnDispose func(*Instance)

	// Logger receives diagnostics (mount/unmount, suppressed disposal
	// failures). Nil means no logging.
	Logger *zap.Logger

	Callbacks
}

// Callbacks holds the optional per-event handlers. A nil field means no
// binding is created for that event. Handlers are compared by function
// identity (code pointer): supplying the same function across updates never
// creates a duplicate binding, while a different function replaces the
// previous binding for that event.
type Callbacks struct {
	OnBell            func()
	OnBinary          func(data string)
	OnCursorMove      func()
	OnData            func(data string)
	OnKey             func(ev KeyEvent)
	OnLineFeed        func()
	OnRender          func(r RenderRange)
	OnResize          func(sz ResizeEvent)
	OnScroll          func()
	OnSelectionChange func()
	OnTitleChange     func(title string)
	OnWriteParsed     func()
}

// callbackSpec is one row of the generic binding table: an event name, the
// identity of the currently supplied handler (0 when absent), and an untyped
// adapter that fires it.
type callbackSpec struct {
	event Event
	ptr   uintptr
	fire  func(any)
}

func spec0(ev Event, fn func()) callbackSpec {
	if fn == nil {
		return callbackSpec{event: ev}
	}
	return callbackSpec{
		event: ev,
		ptr:   reflect.ValueOf(fn).Pointer(),
		fire:  func(any) { fn() },
	}
}

func spec1[T any](ev Event, fn func(T)) callbackSpec {
	if fn == nil {
		return callbackSpec{event: ev}
	}
	return callbackSpec{
		event: ev,
		ptr:   reflect.ValueOf(fn).Pointer(),
		fire: func(payload any) {
			if v, ok := payload.(T); ok {
				fn(v)
			}
		},
	}
}

// specs flattens the twelve handler fields into the generic binding table.
func (c Callbacks) specs() []callbackSpec {
	return []callbackSpec{
		spec0(EventBell, c.OnBell),
		spec1(EventBinary, c.OnBinary),
		spec0(EventCursorMove, c.OnCursorMove),
		spec1(EventData, c.OnData),
		spec1(EventKey, c.OnKey),
		spec0(EventLineFeed, c.OnLineFeed),
		spec1(EventRender, c.OnRender),
		spec1(EventResize, c.OnResize),
		spec0(EventScroll, c.OnScroll),
		spec0(EventSelectionChange, c.OnSelectionChange),
		spec1(EventTitleChange, c.OnTitleChange),
		spec0(EventWriteParsed, c.OnWriteParsed),
	}
}
