package termview

import (
	"errors"
	"testing"

	headlessterm "github.com/danielgatis/go-headless-term"
	"go.uber.org/zap"
)

func newTestInstance(opts *Options) *Instance {
	return newInstance(opts, zap.NewNop())
}

func TestInstanceDefaults(t *testing.T) {
	inst := newTestInstance(nil)

	if inst.Terminal().Rows() != 24 {
		t.Errorf("expected 24 rows, got %d", inst.Terminal().Rows())
	}
	if inst.Terminal().Cols() != 80 {
		t.Errorf("expected 80 cols, got %d", inst.Terminal().Cols())
	}
}

func TestInstanceWithOptions(t *testing.T) {
	inst := newTestInstance(&Options{Rows: 40, Cols: 120})

	if inst.Terminal().Rows() != 40 {
		t.Errorf("expected 40 rows, got %d", inst.Terminal().Rows())
	}
	if inst.Terminal().Cols() != 120 {
		t.Errorf("expected 120 cols, got %d", inst.Terminal().Cols())
	}
}

func TestWriteEmitsRenderAndWriteParsed(t *testing.T) {
	inst := newTestInstance(nil)

	var renders []RenderRange
	parsed := 0
	inst.Subscribe(EventRender, func(p any) { renders = append(renders, p.(RenderRange)) })
	inst.Subscribe(EventWriteParsed, func(any) { parsed++ })

	inst.WriteString("hi")

	if len(renders) != 1 {
		t.Fatalf("expected 1 render event, got %d", len(renders))
	}
	if renders[0].Start != 0 || renders[0].End != 0 {
		t.Errorf("expected dirty span 0-0, got %d-%d", renders[0].Start, renders[0].End)
	}
	if parsed != 1 {
		t.Errorf("expected 1 write-parsed event, got %d", parsed)
	}
}

func TestWriteEmitsCursorMove(t *testing.T) {
	inst := newTestInstance(nil)

	moves := 0
	inst.Subscribe(EventCursorMove, func(any) { moves++ })

	inst.WriteString("abc")
	if moves != 1 {
		t.Errorf("expected 1 cursor-move event, got %d", moves)
	}

	// A write that leaves the cursor in place emits none.
	inst.WriteString("\x1b[0m")
	if moves != 1 {
		t.Errorf("expected no cursor-move for attribute change, got %d", moves)
	}
}

func TestBellEvent(t *testing.T) {
	inst := newTestInstance(nil)

	bells := 0
	inst.Subscribe(EventBell, func(any) { bells++ })

	inst.WriteString("\a")

	if bells != 1 {
		t.Errorf("expected 1 bell event, got %d", bells)
	}
}

func TestTitleChangeEvent(t *testing.T) {
	inst := newTestInstance(nil)

	var titles []string
	inst.Subscribe(EventTitleChange, func(p any) { titles = append(titles, p.(string)) })

	inst.WriteString("\x1b]0;hello\x07")

	if len(titles) != 1 || titles[0] != "hello" {
		t.Errorf("expected title-change ['hello'], got %v", titles)
	}
	if inst.Terminal().Title() != "hello" {
		t.Errorf("expected terminal title 'hello', got '%s'", inst.Terminal().Title())
	}
}

func TestLineFeedEvent(t *testing.T) {
	inst := newTestInstance(nil)

	feeds := 0
	inst.Subscribe(EventLineFeed, func(any) { feeds++ })

	inst.WriteString("one\ntwo\n")

	if feeds != 2 {
		t.Errorf("expected 2 line-feed events, got %d", feeds)
	}
}

func TestScrollEvent(t *testing.T) {
	inst := newTestInstance(&Options{Rows: 2, Cols: 10})

	scrolls := 0
	inst.Subscribe(EventScroll, func(any) { scrolls++ })

	inst.WriteString("1\r\n2\r\n3")

	if scrolls != 1 {
		t.Errorf("expected 1 scroll event, got %d", scrolls)
	}
	if inst.Terminal().ScrollbackLen() != 1 {
		t.Errorf("expected 1 scrollback line, got %d", inst.Terminal().ScrollbackLen())
	}
}

func TestScrollCallbackMayReadTerminal(t *testing.T) {
	inst := newTestInstance(&Options{Rows: 2, Cols: 10})

	seen := -1
	inst.Subscribe(EventScroll, func(any) {
		// Emission happens after the write drains, so the terminal's
		// lock is free here.
		seen = inst.Terminal().ScrollbackLen()
	})

	inst.WriteString("1\r\n2\r\n3")

	if seen != 1 {
		t.Errorf("expected callback to observe 1 scrollback line, got %d", seen)
	}
}

func TestResizeEvent(t *testing.T) {
	inst := newTestInstance(nil)

	var sizes []ResizeEvent
	inst.Subscribe(EventResize, func(p any) { sizes = append(sizes, p.(ResizeEvent)) })

	inst.Resize(100, 30)

	if len(sizes) != 1 {
		t.Fatalf("expected 1 resize event, got %d", len(sizes))
	}
	if sizes[0].Cols != 100 || sizes[0].Rows != 30 {
		t.Errorf("expected 100x30, got %dx%d", sizes[0].Cols, sizes[0].Rows)
	}
	if inst.Terminal().Cols() != 100 || inst.Terminal().Rows() != 30 {
		t.Errorf("terminal not resized: %dx%d", inst.Terminal().Cols(), inst.Terminal().Rows())
	}
}

func TestSelectionEvents(t *testing.T) {
	inst := newTestInstance(nil)
	inst.WriteString("hello")

	changes := 0
	inst.Subscribe(EventSelectionChange, func(any) { changes++ })

	inst.Select(headlessterm.Position{Row: 0, Col: 0}, headlessterm.Position{Row: 0, Col: 4})
	if changes != 1 {
		t.Fatalf("expected 1 selection-change, got %d", changes)
	}
	if got := inst.SelectedText(); got != "hello" {
		t.Errorf("expected selected text 'hello', got '%s'", got)
	}

	inst.ClearSelection()
	if changes != 2 {
		t.Errorf("expected 2 selection-changes, got %d", changes)
	}

	// Clearing with no active selection emits nothing.
	inst.ClearSelection()
	if changes != 2 {
		t.Errorf("expected no event for redundant clear, got %d", changes)
	}
}

func TestResponsesFlowThroughData(t *testing.T) {
	inst := newTestInstance(nil)

	var data []string
	inst.Subscribe(EventData, func(p any) { data = append(data, p.(string)) })

	// DSR 6: cursor position report.
	inst.WriteString("\x1b[6n")

	if len(data) != 1 {
		t.Fatalf("expected 1 data event, got %d", len(data))
	}
	if data[0] != "\x1b[1;1R" {
		t.Errorf("expected cursor position report, got %q", data[0])
	}
}

func TestSendEvents(t *testing.T) {
	inst := newTestInstance(nil)

	var data, binary []string
	var keys []KeyEvent
	inst.Subscribe(EventData, func(p any) { data = append(data, p.(string)) })
	inst.Subscribe(EventBinary, func(p any) { binary = append(binary, p.(string)) })
	inst.Subscribe(EventKey, func(p any) { keys = append(keys, p.(KeyEvent)) })

	inst.SendText("ls\r")
	inst.SendBinary([]byte("\x1b[<0;1;1M"))
	inst.SendKey(KeyEvent{Key: "enter"})

	if len(data) != 1 || data[0] != "ls\r" {
		t.Errorf("expected data ['ls\\r'], got %v", data)
	}
	if len(binary) != 1 {
		t.Errorf("expected 1 binary event, got %d", len(binary))
	}
	if len(keys) != 1 || keys[0].Key != "enter" {
		t.Errorf("expected key event 'enter', got %v", keys)
	}
}

func TestSendDoesNotEcho(t *testing.T) {
	inst := newTestInstance(nil)

	inst.SendText("ls")

	if got := inst.Terminal().LineContent(0); got != "" {
		t.Errorf("expected empty screen, got '%s'", got)
	}
}

func TestMountOnce(t *testing.T) {
	inst := newTestInstance(nil)

	if err := inst.Mount(&Container{ID: "a"}); err != nil {
		t.Fatalf("unexpected mount error: %v", err)
	}
	if err := inst.Mount(&Container{ID: "b"}); err == nil {
		t.Error("expected error on second mount")
	}
	if inst.Container().ID != "a" {
		t.Errorf("expected container 'a', got '%s'", inst.Container().ID)
	}
}

func TestDispose(t *testing.T) {
	inst := newTestInstance(nil)
	inst.WriteString("hello")

	if err := inst.Dispose(); err != nil {
		t.Fatalf("unexpected dispose error: %v", err)
	}
	if err := inst.Dispose(); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed on second dispose, got %v", err)
	}
	if _, err := inst.WriteString("x"); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed on write, got %v", err)
	}
	if inst.Container() != nil {
		t.Error("expected nil container after dispose")
	}
}

func TestDisposeDropsSubscriptions(t *testing.T) {
	inst := newTestInstance(nil)

	calls := 0
	b := inst.Subscribe(EventBell, func(any) { calls++ })

	inst.Dispose()
	inst.events.emit(EventBell, nil)
	b.Dispose() // must not panic

	if calls != 0 {
		t.Errorf("expected 0 calls after dispose, got %d", calls)
	}
}

func TestSubscribeAfterDisposeIsInert(t *testing.T) {
	inst := newTestInstance(nil)
	inst.Dispose()

	calls := 0
	b := inst.Subscribe(EventBell, func(any) { calls++ })
	inst.events.emit(EventBell, nil)
	b.Dispose()

	if calls != 0 {
		t.Errorf("expected inert binding, got %d calls", calls)
	}
}

func TestSendAfterDispose(t *testing.T) {
	inst := newTestInstance(nil)

	data := 0
	inst.Subscribe(EventData, func(any) { data++ })

	inst.Dispose()
	inst.SendText("x")
	inst.SendBinary([]byte("y"))
	inst.SendKey(KeyEvent{Key: "a"})
	inst.Resize(10, 10)

	if data != 0 {
		t.Errorf("expected no events after dispose, got %d", data)
	}
}

func TestScrollbackDisabled(t *testing.T) {
	inst := newTestInstance(&Options{Rows: 2, Cols: 10, Scrollback: -1})

	scrolls := 0
	inst.Subscribe(EventScroll, func(any) { scrolls++ })

	inst.WriteString("1\r\n2\r\n3")

	if scrolls != 1 {
		t.Errorf("expected scroll event even without storage, got %d", scrolls)
	}
	if inst.Terminal().ScrollbackLen() != 0 {
		t.Errorf("expected no stored scrollback, got %d", inst.Terminal().ScrollbackLen())
	}
}
