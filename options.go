package termview

// defaultScrollbackLines is the scrollback capacity used when Options does
// not specify one.
const defaultScrollbackLines = 1000

// Options is a create-only snapshot of terminal construction settings.
//
// Options values are compared by pointer identity, not by field equality:
// passing a different *Options to [Widget.SetProps] tears the live instance
// down and builds a fresh one, discarding screen content and scrollback.
// Passing the same pointer never triggers recreation, whatever its fields
// hold. Nil falls back to the wrapped library's defaults (24x80, line wrap
// on, cursor visible).
type Options struct {
	// Rows and Cols are the initial dimensions. Values <= 0 use the
	// library defaults (24x80).
	Rows int
	Cols int

	// Scrollback is the maximum number of scrollback lines retained.
	// 0 uses defaultScrollbackLines; negative disables scrollback.
	Scrollback int

	// AutoResize grows the buffer instead of scrolling or wrapping.
	AutoResize bool

	// DisableSixel turns off Sixel graphics sequences.
	DisableSixel bool

	// DisableKitty turns off Kitty graphics sequences.
	DisableKitty bool
}

// scrollbackLimit resolves the configured scrollback capacity.
func (o *Options) scrollbackLimit() int {
	if o == nil || o.Scrollback == 0 {
		return defaultScrollbackLines
	}
	if o.Scrollback < 0 {
		return 0
	}
	return o.Scrollback
}
