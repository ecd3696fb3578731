package termview

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	headlessterm "github.com/danielgatis/go-headless-term"
)

// encodeKey translates a bubbletea key message into the byte sequence a
// terminal application expects to read. Cursor and keypad keys honor the
// terminal's application modes (DECCKM).
func encodeKey(msg tea.KeyMsg, term *headlessterm.Terminal) []byte {
	var b []byte

	switch msg.Type {
	case tea.KeyRunes:
		b = []byte(string(msg.Runes))
	case tea.KeySpace:
		b = []byte{' '}
	case tea.KeyEnter:
		b = []byte{'\r'}
	case tea.KeyTab:
		b = []byte{'\t'}
	case tea.KeyShiftTab:
		b = []byte("\x1b[Z")
	case tea.KeyBackspace:
		b = []byte{0x7f}
	case tea.KeyEsc:
		b = []byte{0x1b}
	case tea.KeyUp:
		b = cursorKey(term, 'A')
	case tea.KeyDown:
		b = cursorKey(term, 'B')
	case tea.KeyRight:
		b = cursorKey(term, 'C')
	case tea.KeyLeft:
		b = cursorKey(term, 'D')
	case tea.KeyHome:
		b = cursorKey(term, 'H')
	case tea.KeyEnd:
		b = cursorKey(term, 'F')
	case tea.KeyPgUp:
		b = []byte("\x1b[5~")
	case tea.KeyPgDown:
		b = []byte("\x1b[6~")
	case tea.KeyDelete:
		b = []byte("\x1b[3~")
	case tea.KeyInsert:
		b = []byte("\x1b[2~")
	case tea.KeyF1:
		b = []byte("\x1bOP")
	case tea.KeyF2:
		b = []byte("\x1bOQ")
	case tea.KeyF3:
		b = []byte("\x1bOR")
	case tea.KeyF4:
		b = []byte("\x1bOS")
	case tea.KeyF5:
		b = []byte("\x1b[15~")
	case tea.KeyF6:
		b = []byte("\x1b[17~")
	case tea.KeyF7:
		b = []byte("\x1b[18~")
	case tea.KeyF8:
		b = []byte("\x1b[19~")
	case tea.KeyF9:
		b = []byte("\x1b[20~")
	case tea.KeyF10:
		b = []byte("\x1b[21~")
	case tea.KeyF11:
		b = []byte("\x1b[23~")
	case tea.KeyF12:
		b = []byte("\x1b[24~")
	default:
		// Control characters map directly to their byte values in
		// bubbletea's key type space (ctrl+a == 1 ... ctrl+_ == 31).
		if msg.Type > 0 && msg.Type < 32 {
			b = []byte{byte(msg.Type)}
		}
	}

	if msg.Alt && len(b) > 0 {
		b = append([]byte{0x1b}, b...)
	}
	return b
}

// cursorKey returns the CSI form of a cursor key, or the SS3 form when the
// terminal is in application cursor keys mode.
func cursorKey(term *headlessterm.Terminal, final byte) []byte {
	if term.HasMode(headlessterm.ModeCursorKeys) {
		return []byte{0x1b, 'O', final}
	}
	return []byte{0x1b, '[', final}
}

// encodePaste wraps pasted text in bracketed paste guards when the
// application has requested them.
func encodePaste(text string, term *headlessterm.Terminal) []byte {
	if term.HasMode(headlessterm.ModeBracketedPaste) {
		return []byte("\x1b[200~" + text + "\x1b[201~")
	}
	return []byte(text)
}

// encodeMouse translates a bubbletea mouse message into a mouse report, or
// returns nil when the application has not enabled mouse tracking. SGR
// encoding is used when the application requested it, X10 otherwise.
func encodeMouse(msg tea.MouseMsg, term *headlessterm.Terminal) []byte {
	tracking := term.HasMode(headlessterm.ModeReportMouseClicks) ||
		term.HasMode(headlessterm.ModeReportCellMouseMotion) ||
		term.HasMode(headlessterm.ModeReportAllMouseMotion)
	if !tracking {
		return nil
	}

	if msg.Action == tea.MouseActionMotion &&
		!term.HasMode(headlessterm.ModeReportCellMouseMotion) &&
		!term.HasMode(headlessterm.ModeReportAllMouseMotion) {
		return nil
	}

	btn := mouseButtonCode(msg.Button)
	if msg.Action == tea.MouseActionMotion {
		btn += 32
	}

	if term.HasMode(headlessterm.ModeSGRMouse) {
		final := byte('M')
		if msg.Action == tea.MouseActionRelease {
			final = 'm'
		}
		return fmt.Appendf(nil, "\x1b[<%d;%d;%d%c", btn, msg.X+1, msg.Y+1, final)
	}

	if msg.Action == tea.MouseActionRelease {
		btn = 3
	}
	return []byte{0x1b, '[', 'M', byte(32 + btn), byte(33 + msg.X), byte(33 + msg.Y)}
}

func mouseButtonCode(btn tea.MouseButton) int {
	switch btn {
	case tea.MouseButtonLeft:
		return 0
	case tea.MouseButtonMiddle:
		return 1
	case tea.MouseButtonRight:
		return 2
	case tea.MouseButtonWheelUp:
		return 64
	case tea.MouseButtonWheelDown:
		return 65
	case tea.MouseButtonWheelLeft:
		return 66
	case tea.MouseButtonWheelRight:
		return 67
	default:
		return 3
	}
}
