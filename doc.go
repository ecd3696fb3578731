// Package termview exposes the go-headless-term emulator as a declarative
// Bubble Tea component.
//
// The package contains no terminal emulation of its own: escape-sequence
// parsing, screen buffers, cursor handling, scrollback and selection all
// live in [github.com/danielgatis/go-headless-term]. termview owns the glue:
// constructing the terminal from declarative props, loading addons, binding
// a fixed set of named events to caller-supplied callbacks with
// deterministic setup/teardown ordering, and disposing everything when the
// widget unmounts.
//
// # Quick Start
//
// Mount a widget, feed it PTY output, and read typed input back through the
// data callback:
//
//	w, err := termview.New(termview.Props{
//	    Options: &termview.Options{Rows: 24, Cols: 80},
//	    Callbacks: termview.Callbacks{
//	        OnData: func(s string) { pty.WriteString(s) },
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Unmount()
//
//	w.Write(output)           // emulator output in
//	fmt.Println(w.View())     // rendered screen out
//
// Inside a Bubble Tea program, forward messages through Update and embed
// View in the parent's view:
//
//	case tea.KeyMsg:
//	    m.term, cmd = m.term.Update(msg)
//
// # Lifecycle
//
// [New] constructs the instance from [Props.Options], loads [Props.Addons]
// in order (a load failure aborts the mount and is returned), installs the
// custom key handler, attaches the render surface, and finally calls OnInit
// with the live instance. [Widget.Unmount] reverses it: bindings are
// disposed, OnDispose observes the still-live instance, and disposal
// failures are logged and suppressed so unmount always succeeds.
//
// [Widget.SetProps] applies updates declaratively. Options are compared by
// pointer identity: a new pointer rebuilds the instance from scratch,
// discarding screen content and scrollback. Event callbacks are compared by
// function identity and rebound individually; binding churn never recreates
// the instance.
//
// # Events
//
// Twelve named events can be observed through the [Callbacks] props or by
// calling [Instance.Subscribe] directly: bell, binary, cursor-move, data,
// key, line-feed, render, resize, scroll, selection-change, title-change
// and write-parsed. Each subscription is represented by a disposable
// [Binding]; the widget guarantees every binding is disposed before the
// instance that produced it.
//
// All callbacks run synchronously on the goroutine driving the widget,
// normally the Bubble Tea update loop. There is no background threading.
//
// # Addons
//
// An [Addon] extends the instance at construction time. The caller keeps
// ownership; the widget only invokes Load once per mount, in slice order.
// [RecorderAddon] ships with the package and captures raw output bytes for
// replay or regression tests.
package termview
