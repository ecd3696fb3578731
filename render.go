package termview

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	headlessterm "github.com/danielgatis/go-headless-term"
)

// cellLook is the comparable style key used to group adjacent cells with
// identical attributes into a single styled run.
type cellLook struct {
	fg        string
	bg        string
	bold      bool
	faint     bool
	italic    bool
	underline bool
	blink     bool
	reverse   bool
	strike    bool
}

func (l cellLook) plain() bool {
	return l == cellLook{}
}

func (l cellLook) style() lipgloss.Style {
	s := lipgloss.NewStyle()
	if l.fg != "" {
		s = s.Foreground(lipgloss.Color(l.fg))
	}
	if l.bg != "" {
		s = s.Background(lipgloss.Color(l.bg))
	}
	if l.bold {
		s = s.Bold(true)
	}
	if l.faint {
		s = s.Faint(true)
	}
	if l.italic {
		s = s.Italic(true)
	}
	if l.underline {
		s = s.Underline(true)
	}
	if l.blink {
		s = s.Blink(true)
	}
	if l.reverse {
		s = s.Reverse(true)
	}
	if l.strike {
		s = s.Strikethrough(true)
	}
	return s
}

// look derives the style key for a cell. inverted flips the reverse flag,
// used for the cursor cell and selected cells.
func look(c *headlessterm.Cell, inverted bool) cellLook {
	l := cellLook{
		fg:        colorHex(c.Fg, true),
		bg:        colorHex(c.Bg, false),
		bold:      c.HasFlag(headlessterm.CellFlagBold),
		faint:     c.HasFlag(headlessterm.CellFlagDim),
		italic:    c.HasFlag(headlessterm.CellFlagItalic),
		blink:     c.HasFlag(headlessterm.CellFlagBlinkSlow) || c.HasFlag(headlessterm.CellFlagBlinkFast),
		reverse:   c.HasFlag(headlessterm.CellFlagReverse) != inverted,
		strike:    c.HasFlag(headlessterm.CellFlagStrike),
		underline: c.HasFlag(headlessterm.CellFlagUnderline) ||
			c.HasFlag(headlessterm.CellFlagDoubleUnderline) ||
			c.HasFlag(headlessterm.CellFlagCurlyUnderline) ||
			c.HasFlag(headlessterm.CellFlagDottedUnderline) ||
			c.HasFlag(headlessterm.CellFlagDashedUnderline),
	}
	return l
}

// colorHex resolves a cell color to a hex string, or "" for the terminal
// default (left unstyled so the host theme shows through).
func colorHex(c color.Color, fg bool) string {
	rgba := resolveColor(c, fg)
	if fg && rgba == headlessterm.DefaultForeground {
		return ""
	}
	if !fg && rgba == headlessterm.DefaultBackground {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// resolveColor converts a cell color to RGBA using the emulator's default
// palette. Nil means the default foreground or background.
func resolveColor(c color.Color, fg bool) color.RGBA {
	if c == nil {
		if fg {
			return headlessterm.DefaultForeground
		}
		return headlessterm.DefaultBackground
	}

	switch v := c.(type) {
	case color.RGBA:
		return v
	case *headlessterm.IndexedColor:
		if v.Index >= 0 && v.Index < 256 {
			return headlessterm.DefaultPalette[v.Index]
		}
	case *headlessterm.NamedColor:
		return resolveNamed(v.Name, fg)
	default:
		r, g, b, a := c.RGBA()
		return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}

	if fg {
		return headlessterm.DefaultForeground
	}
	return headlessterm.DefaultBackground
}

func resolveNamed(name int, fg bool) color.RGBA {
	switch {
	case name >= 0 && name < 256:
		return headlessterm.DefaultPalette[name]
	case name == headlessterm.NamedColorForeground:
		return headlessterm.DefaultForeground
	case name == headlessterm.NamedColorBackground:
		return headlessterm.DefaultBackground
	case name == headlessterm.NamedColorCursor:
		return headlessterm.DefaultCursorColor
	case name >= headlessterm.NamedColorDimBlack && name <= headlessterm.NamedColorDimWhite:
		base := headlessterm.DefaultPalette[name-headlessterm.NamedColorDimBlack]
		return color.RGBA{
			R: uint8(float64(base.R) * 0.66),
			G: uint8(float64(base.G) * 0.66),
			B: uint8(float64(base.B) * 0.66),
			A: 255,
		}
	case name == headlessterm.NamedColorBrightForeground:
		return headlessterm.DefaultPalette[15]
	case name == headlessterm.NamedColorDimForeground:
		fg := headlessterm.DefaultForeground
		return color.RGBA{
			R: uint8(float64(fg.R) * 0.66),
			G: uint8(float64(fg.G) * 0.66),
			B: uint8(float64(fg.B) * 0.66),
			A: 255,
		}
	}
	if fg {
		return headlessterm.DefaultForeground
	}
	return headlessterm.DefaultBackground
}

// renderScreen renders the visible rows of the instance, with offset rows of
// scrollback shifted into view from the top.
func renderScreen(inst *Instance, offset int) string {
	term := inst.Terminal()
	rows, cols := term.Rows(), term.Cols()
	curRow, curCol := term.CursorPos()
	showCursor := offset == 0 && term.CursorVisible()

	var sb strings.Builder
	scrollbackLen := term.ScrollbackLen()
	if offset > scrollbackLen {
		offset = scrollbackLen
	}

	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if i < offset {
			// Row pulled back from scrollback; oldest line is index 0.
			line := term.ScrollbackLine(scrollbackLen - offset + i)
			renderCells(&sb, line, cols, -1, nil)
			continue
		}
		row := i - offset
		line := screenRow(term, row, cols)
		cursorCol := -1
		if showCursor && row == curRow {
			cursorCol = curCol
		}
		renderCells(&sb, line, cols, cursorCol, func(col int) bool {
			return term.IsSelected(row, col)
		})
	}
	return sb.String()
}

// screenRow copies one visible row out of the active buffer.
func screenRow(term *headlessterm.Terminal, row, cols int) []headlessterm.Cell {
	line := make([]headlessterm.Cell, 0, cols)
	for col := 0; col < cols; col++ {
		if c := term.Cell(row, col); c != nil {
			line = append(line, *c)
		} else {
			line = append(line, headlessterm.NewCell())
		}
	}
	return line
}

// renderCells writes one row of cells, grouping equal-style runs into single
// lipgloss renders. Wide-character spacer cells produce no output; selected
// returns whether a column is inside the active selection (nil when the row
// cannot be selected).
func renderCells(sb *strings.Builder, line []headlessterm.Cell, cols, cursorCol int, selected func(col int) bool) {
	var (
		run     []rune
		runLook cellLook
	)
	flush := func() {
		if len(run) == 0 {
			return
		}
		if runLook.plain() {
			sb.WriteString(string(run))
		} else {
			sb.WriteString(runLook.style().Render(string(run)))
		}
		run = run[:0]
	}

	for col := 0; col < cols && col < len(line); col++ {
		c := line[col]
		if c.IsWideSpacer() {
			continue
		}
		inverted := col == cursorCol || (selected != nil && selected(col))
		l := look(&c, inverted)
		if len(run) > 0 && l != runLook {
			flush()
		}
		runLook = l
		ch := c.Char
		if ch == 0 {
			ch = ' '
		}
		run = append(run, ch)
	}
	flush()
}
