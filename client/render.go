package client

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"text/template"

	"blockfall/block"
	"blockfall/board"
	"blockfall/grid"
)

const (
	// ASCII colors.
	Red      = "31"
	Green    = "32"
	Yellow   = "33"
	Blue     = "34"
	Magenta  = "35"
	Grey     = "37"
	DarkGrey = "90"

	resetPos    = "\033[H"        // Reset cursor position to 0,0
	clearScreen = "\033[2J\033[H" // Clear the screen and reset the cursor
	empty       = "  "
	ghost       = "[]"
	cursor      = "<>"
	spark       = "\x1b[2m··\x1b[0m"
	flash       = "\x1b[1m\x1b[7m[]\x1b[0m"
)

//go:embed "layout.tmpl"
var layout string

var colorMap = map[block.ID]string{
	block.Red:       Red,
	block.Blue:      Blue,
	block.Green:     Green,
	block.Magenta:   Magenta,
	block.Yellow:    Yellow,
	block.Glass:     Grey,
	block.HardGlass: DarkGrey,
}

func paint(id block.ID) string {
	c, ok := colorMap[id]
	if !ok {
		return empty
	}
	return fmt.Sprintf("\x1b[7m\x1b[%sm[]\x1b[0m", c)
}

type templateData struct {
	Local    *board.View
	Remote   *board.View
	Name     string
	Opponent string
	Pending  [2]int
	NoGhost  bool

	mu sync.Mutex
}

type render struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template
	*templateData
}

func newRender(w io.Writer, l *slog.Logger, noGhost bool, name string) (*render, error) {
	tmp, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &render{
		writer:       w,
		logger:       l,
		template:     tmp,
		templateData: &templateData{Name: name, NoGhost: noGhost},
	}, nil
}

func loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"rows":       rows,
		"statusLine": statusLine,
		"vs":         vs,
	}
	// we use the console raw so new lines don't automatically transform into carriage return
	// to fix that we add a carriage return to every new line in the layout.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	l = strings.ReplaceAll(l, "Blockfall", "\033[1mBlockfall\033[0m")
	return template.New("layout").Funcs(funcMap).Parse(l)
}

// game draws the boards. Local and remote views may be nil.
func (r *render) game(local, remote *board.View, pending [2]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Local, r.Remote, r.Pending = local, remote, pending
	fmt.Fprint(r.writer, resetPos)
	if err := r.template.Execute(r.writer, r.templateData); err != nil {
		r.logger.Error("unable to execute template", slog.String("error", err.Error()))
	}
}

func (r *render) names(local, remote string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Name, r.Opponent = local, remote
}

func (r *render) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Local, r.Remote = nil, nil
	fmt.Fprint(r.writer, clearScreen)
}

// lobby draws a message box over whatever is on screen.
func (r *render) lobby(lines [3]string) {
	fmt.Fprint(r.writer, "\033[10;9H+--------------------------------------+")
	for i, l := range lines {
		fmt.Fprintf(r.writer, "\033[%d;9H|%s|", 11+i, center(l, 38))
	}
	fmt.Fprint(r.writer, "\033[14;9H+--------------------------------------+")
}

func center(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	left := (w - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-len(s)-left)
}

func defaultLobby() [3]string {
	return [3]string{"Welcome to Blockfall", "", "(p)lay  (v)ersus  (w)atch  (q)uit"}
}

func gameOver() [3]string {
	return [3]string{"Game Over :)", "", "(p)lay  (v)ersus  (w)atch  (q)uit"}
}

func youWon() [3]string {
	return [3]string{"You Won!", "", "(p)lay  (v)ersus  (w)atch  (q)uit"}
}

func youLost() [3]string {
	return [3]string{"You Lose :(", "", "(p)lay  (v)ersus  (w)atch  (q)uit"}
}

func connecting() [3]string {
	return [3]string{"connecting to server...", "", "(c)ancel"}
}

func errorMessage() [3]string {
	return [3]string{"something went wrong :(", "", "(p)lay  (v)ersus  (w)atch  (q)uit"}
}

// stack renders one view into rows of cells. Layers, bottom to top: grid,
// falling blocks, ghost, piece, flashes, fragments, cursor.
func stack(v *board.View, noGhost bool) [][]string {
	if v == nil {
		return nil
	}
	out := make([][]string, v.Height)
	for y := range out {
		out[y] = make([]string, v.Width)
		for x := range out[y] {
			out[y][x] = empty
			if v.Cells != nil {
				out[y][x] = paint(v.Cells.At(grid.Pos{X: x, Y: y}))
			}
		}
	}
	set := func(p grid.Pos, s string) {
		if p.Y >= 0 && p.Y < v.Height && p.X >= 0 && p.X < v.Width {
			out[p.Y][p.X] = s
		}
	}
	for _, r := range v.Falling {
		set(grid.Pos{X: r.From.X, Y: r.From.Y + int(r.Progress)}, paint(r.ID))
	}
	if !noGhost {
		for _, p := range v.Ghost {
			set(p, ghost)
		}
	}
	for _, c := range v.Piece {
		set(c.Pos, paint(c.ID))
	}
	for _, f := range v.Flashes {
		set(f.Pos, flash)
	}
	for _, s := range v.Selection {
		set(s, flash)
	}
	for _, f := range v.Fragments {
		p := grid.Pos{X: int(math.Round(f.X)), Y: int(math.Round(f.Y))}
		if p.Y >= 0 && p.Y < v.Height && p.X >= 0 && p.X < v.Width && out[p.Y][p.X] == empty {
			out[p.Y][p.X] = spark
		}
	}
	if v.Cursor != nil {
		set(*v.Cursor, cursor)
	}
	return out
}

// next renders the queued piece in a 3x3 box.
func next(v *board.View) [3]string {
	box := [3][3]string{}
	for y := range box {
		for x := range box[y] {
			box[y][x] = empty
		}
	}
	if v != nil && len(v.Next) > 0 {
		top := v.Next[0].Pos.Y
		for _, c := range v.Next {
			top = min(top, c.Pos.Y)
		}
		for _, c := range v.Next {
			x, y := c.Pos.X, c.Pos.Y-top
			if x >= 0 && x < 3 && y >= 0 && y < 3 {
				box[y][x] = paint(c.ID)
			}
		}
	}
	var rows [3]string
	for i, r := range box {
		rows[i] = strings.Join(r[:], "")
	}
	return rows
}

// sidebar is the text next to a board, one entry per board row.
func sidebar(v *board.View, pending int) []string {
	if v == nil {
		return nil
	}
	n := next(v)
	side := []string{"", " next", " " + n[0], " " + n[1], " " + n[2], "",
		fmt.Sprintf(" score  %d", v.Score),
		fmt.Sprintf(" pieces %d", v.Pieces),
	}
	if v.Wave > 1 {
		side = append(side, fmt.Sprintf(" chain  %d", v.Wave))
	} else {
		side = append(side, "")
	}
	if pending > 0 {
		side = append(side, fmt.Sprintf(" glass  %d", pending))
	}
	if v.Paused {
		side = append(side, "", " \x1b[1mpaused\x1b[0m")
	}
	return side
}

// rows lays the local board, its sidebar and the remote board side by side.
func rows(t *templateData) []string {
	if t == nil || t.Local == nil {
		return nil
	}
	local := stack(t.Local, t.NoGhost)
	remote := stack(t.Remote, true)
	lside := sidebar(t.Local, t.Pending[0])
	rside := sidebar(t.Remote, t.Pending[1])
	h := max(len(local), len(remote))

	var out []string
	for y := range h + 1 {
		var sb strings.Builder
		sb.WriteString(" ")
		writeRow(&sb, local, t.Local.Width, y)
		sb.WriteString(pad(at(lside, y), 16))
		if t.Remote != nil {
			sb.WriteString("   ")
			writeRow(&sb, remote, t.Remote.Width, y)
			sb.WriteString(pad(at(rside, y), 16))
		}
		out = append(out, sb.String())
	}
	return out
}

// writeRow writes one board row between walls, or the floor below the last.
func writeRow(sb *strings.Builder, rows [][]string, width, y int) {
	switch {
	case y < len(rows):
		sb.WriteString("|" + strings.Join(rows[y], "") + "|")
	case y == len(rows):
		sb.WriteString("+" + strings.Repeat("--", width) + "+")
	default:
		sb.WriteString(strings.Repeat(" ", 2*width+2))
	}
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// pad fills s with spaces up to w visible columns. Escape codes take no room.
func pad(s string, w int) string {
	n := visible(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

func visible(s string) int {
	n, esc := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc:
			if r == 'm' {
				esc = false
			}
		default:
			n++
		}
	}
	return n
}

// statusLine is the line under the boards: the last visible score glyphs.
func statusLine(t *templateData) string {
	if t == nil || t.Local == nil {
		return ""
	}
	var parts []string
	for _, g := range t.Local.Glyphs {
		if g.Visible() {
			parts = append(parts, g.Text)
		}
	}
	return pad(" "+strings.Join(parts, " "), 40)
}

func vs(lName, rName string) string {
	maxL := 9
	l := len(lName)
	switch {
	case l > maxL:
		lName = lName[:maxL]
	case l < maxL:
		lName = strings.Repeat(" ", maxL-len(lName)) + lName
	}

	r := len(rName)
	switch {
	case r > maxL:
		rName = rName[:maxL]
	case r < maxL:
		rName += strings.Repeat(" ", maxL-len(rName))
	}
	return fmt.Sprintf(" %s <- vs -> %s ", lName, rName)
}
