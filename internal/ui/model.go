// Package ui renders the nonogram board and routes key events into the
// game machine. All machine calls happen on the Bubble Tea update
// goroutine, so the machine needs no locking.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nonodojo/internal/catalog"
	"nonodojo/internal/game"
	"nonodojo/internal/nonogram"
)

type tickMsg time.Time

type rolloverMsg time.Time

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Fill    key.Binding
	Mark    key.Binding
	Clear   key.Binding
	Undo    key.Binding
	Redo    key.Binding
	Restart key.Binding
	Next    key.Binding
	Easy    key.Binding
	Medium  key.Binding
	Hard    key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Fill:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "fill")),
		Mark:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "mark")),
		Clear:   key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("bksp", "clear")),
		Undo:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "redo")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next puzzle")),
		Easy:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1/2/3", "difficulty")),
		Medium:  key.NewBinding(key.WithKeys("2")),
		Hard:    key.NewBinding(key.WithKeys("3")),
		Dismiss: key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Fill, k.Mark, k.Undo, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Fill, k.Mark, k.Clear},
		{k.Undo, k.Redo, k.Restart, k.Next},
		{k.Easy, k.Help, k.Quit},
	}
}

// Model is the root Bubble Tea model. The machine owns all game state;
// the model owns only the cursor and presentation.
type Model struct {
	machine *game.Machine
	keys    keyMap
	help    help.Model
	theme   Theme
	ascii   bool

	cursorRow int
	cursorCol int
	showHelp  bool
	width     int
	height    int
	status    string
}

func New(machine *game.Machine, asciiOnly bool) Model {
	return Model{
		machine: machine,
		keys:    defaultKeys(),
		help:    help.New(),
		theme:   DefaultTheme(),
		ascii:   asciiOnly,
		status:  "ready",
	}
}

// Run starts the TUI and blocks until the player quits.
func Run(machine *game.Machine, asciiOnly bool) error {
	_, err := tea.NewProgram(New(machine, asciiOnly), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), rolloverCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// rolloverCmd polls the wall clock so a session left open overnight
// picks up the new day's puzzle.
func rolloverCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return rolloverMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.machine.TickSecond(ctx)
		return m, tickCmd()

	case rolloverMsg:
		if err := m.machine.RolloverCheck(ctx); err != nil {
			m.status = "day rollover failed: " + err.Error()
		}
		m.clampCursor()
		return m, rolloverCmd()

	case tea.KeyMsg:
		return m.handleKey(ctx, msg)
	}
	return m, nil
}

func (m Model) handleKey(ctx context.Context, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The victory overlay swallows everything except quit until
	// dismissed.
	if m.machine.NotificationVisible() {
		if key.Matches(msg, m.keys.Dismiss) {
			m.machine.DismissNotification()
			m.status = "solved! press n for the next puzzle"
		}
		return m, nil
	}

	size := m.machine.Puzzle().Size

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Up):
		m.cursorRow = (m.cursorRow - 1 + size) % size
	case key.Matches(msg, m.keys.Down):
		m.cursorRow = (m.cursorRow + 1) % size
	case key.Matches(msg, m.keys.Left):
		m.cursorCol = (m.cursorCol - 1 + size) % size
	case key.Matches(msg, m.keys.Right):
		m.cursorCol = (m.cursorCol + 1) % size
	case key.Matches(msg, m.keys.Fill):
		m.toggle(ctx, nonogram.CellFilled)
	case key.Matches(msg, m.keys.Mark):
		m.toggle(ctx, nonogram.CellMarked)
	case key.Matches(msg, m.keys.Clear):
		m.machine.SetCell(ctx, m.cursorRow, m.cursorCol, nonogram.CellEmpty)
	case key.Matches(msg, m.keys.Undo):
		m.machine.Undo(ctx)
	case key.Matches(msg, m.keys.Redo):
		m.machine.Redo(ctx)
	case key.Matches(msg, m.keys.Restart):
		m.machine.Restart(ctx)
		m.status = "restarted"
	case key.Matches(msg, m.keys.Next):
		if err := m.machine.NextPuzzle(ctx); err != nil {
			m.status = "next puzzle: " + err.Error()
		} else {
			m.status = "switched to " + m.machine.Puzzle().ID
		}
		m.clampCursor()
	case key.Matches(msg, m.keys.Easy):
		m.switchDifficulty(ctx, catalog.Easy)
	case key.Matches(msg, m.keys.Medium):
		m.switchDifficulty(ctx, catalog.Medium)
	case key.Matches(msg, m.keys.Hard):
		m.switchDifficulty(ctx, catalog.Hard)
	}
	return m, nil
}

// toggle flips the cursor cell between the given value and empty, so
// pressing fill on a filled cell clears it.
func (m *Model) toggle(ctx context.Context, c nonogram.Cell) {
	g := m.machine.Grid()
	if len(g) == 0 {
		return
	}
	if g[m.cursorRow][m.cursorCol] == c {
		c = nonogram.CellEmpty
	}
	m.machine.SetCell(ctx, m.cursorRow, m.cursorCol, c)
}

func (m *Model) switchDifficulty(ctx context.Context, d catalog.Difficulty) {
	if err := m.machine.SetDifficulty(ctx, d); err != nil {
		m.status = "difficulty switch: " + err.Error()
		return
	}
	m.status = "difficulty: " + string(d)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	size := m.machine.Puzzle().Size
	if size <= 0 {
		m.cursorRow, m.cursorCol = 0, 0
		return
	}
	if m.cursorRow >= size {
		m.cursorRow = size - 1
	}
	if m.cursorCol >= size {
		m.cursorCol = size - 1
	}
}

func (m Model) View() string {
	if !m.machine.Loaded() {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.boardView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	body := b.String()

	if m.machine.NotificationVisible() {
		return m.overlayView()
	}
	return body
}

func (m Model) headerView() string {
	pz := m.machine.Puzzle()
	title := fmt.Sprintf("nonodojo · %s · %s · %s", m.machine.Difficulty(), pz.Name, m.machine.Day())
	header := m.theme.Header.Render(title)
	if m.machine.Locked() {
		header += " " + m.theme.SolvedBadge.Render("SOLVED")
	}
	return header
}

func (m Model) statusView() string {
	elapsed := m.machine.Elapsed()
	line := fmt.Sprintf("%s  ·  %02d:%02d", m.status, elapsed/60, elapsed%60)
	if remaining, err := m.machine.Remaining(context.Background()); err == nil {
		line += fmt.Sprintf("  ·  %d left in rotation", remaining)
	}
	return m.theme.Status.Render(line)
}

func (m Model) glyphs() (filled, marked, empty string) {
	if m.ascii {
		return "##", "x ", ". "
	}
	return "██", "✕ ", "· "
}

// boardView draws column clues above the grid and row clues to its
// left, with the cursor cell inverted.
func (m Model) boardView() string {
	grid := m.machine.Grid()
	clues := m.machine.Clues()
	size := len(grid)
	if size == 0 {
		return ""
	}
	filled, marked, empty := m.glyphs()

	rowLabels := make([]string, size)
	labelWidth := 0
	for i, rc := range clues.Rows {
		rowLabels[i] = clueText(rc)
		if len(rowLabels[i]) > labelWidth {
			labelWidth = len(rowLabels[i])
		}
	}

	colHeight := 0
	for _, cc := range clues.Cols {
		if len(cc) > colHeight {
			colHeight = len(cc)
		}
	}

	var b strings.Builder
	for line := 0; line < colHeight; line++ {
		b.WriteString(strings.Repeat(" ", labelWidth+1))
		for c := 0; c < size; c++ {
			cc := clues.Cols[c]
			pad := colHeight - len(cc)
			if line < pad {
				b.WriteString("  ")
				continue
			}
			b.WriteString(m.theme.Clue.Render(fmt.Sprintf("%2d", cc[line-pad])))
		}
		b.WriteString("\n")
	}

	for r := 0; r < size; r++ {
		b.WriteString(m.theme.Clue.Render(fmt.Sprintf("%*s", labelWidth, rowLabels[r])))
		b.WriteString(" ")
		for c := 0; c < size; c++ {
			var cell string
			var style lipgloss.Style
			switch grid[r][c] {
			case nonogram.CellFilled:
				cell, style = filled, m.theme.CellFilled
			case nonogram.CellMarked:
				cell, style = marked, m.theme.CellMarked
			default:
				cell, style = empty, m.theme.CellEmpty
			}
			if r == m.cursorRow && c == m.cursorCol && !m.machine.Locked() {
				style = m.theme.Cursor
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func clueText(clue []int) string {
	parts := make([]string, len(clue))
	for i, n := range clue {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func (m Model) overlayView() string {
	pz := m.machine.Puzzle()
	elapsed := m.machine.Elapsed()
	msg := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.OverlayTitle.Render("Puzzle solved!"),
		"",
		fmt.Sprintf("%s in %02d:%02d", pz.Name, elapsed/60, elapsed%60),
		m.theme.Muted.Render("press enter to continue"),
	)
	box := m.theme.Overlay.Render(msg)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
