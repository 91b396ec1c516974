// Package tui is the interactive explorer screen: a sql editor, a
// parameterized query form and a result pane with table and chart views.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"bqexplore/chart"
	"bqexplore/core"
	"bqexplore/explorer"
)

// The sample queries target the public usa_names dataset, so a fresh setup
// has something to run against.
const (
	defaultQuery = `SELECT name, gender, SUM(number) as total_count
FROM ` + "`bigquery-public-data.usa_names.usa_1910_2013`" + `
WHERE state = 'TX'
GROUP BY name, gender
ORDER BY total_count DESC
LIMIT 10`

	paramTemplate = `SELECT name, gender, SUM(number) as total_count
FROM ` + "`bigquery-public-data.usa_names.usa_1910_2013`" + `
WHERE state = @state
AND name LIKE @name_prefix
GROUP BY name, gender
ORDER BY total_count DESC
LIMIT @limit`
)

var states = []string{"TX", "CA", "NY", "FL", "IL"}

// focus identifies the active pane.
type focus int

const (
	focusEditor focus = iota
	focusState
	focusPrefix
	focusLimit
	focusResults
)

type queryFinishedMsg struct {
	result *core.Result
	err    error
	took   time.Duration
}

// Model is the bubbletea model for the explorer screen.
type Model struct {
	exp    *explorer.Explorer
	logger *zap.Logger
	styles Styles

	editor   textarea.Model
	prefix   textinput.Model
	limit    textinput.Model
	spin     spinner.Model
	results  viewport.Model
	stateIdx int

	focus     focus
	running   bool
	err       error
	result    *core.Result
	status    string
	chartKind chart.Kind

	width  int
	height int
	ready  bool
}

func New(exp *explorer.Explorer, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	editor := textarea.New()
	editor.SetValue(defaultQuery)
	editor.SetHeight(8)
	editor.Focus()

	prefix := textinput.New()
	prefix.Placeholder = "Name starts with"
	prefix.SetValue("Jo")
	prefix.CharLimit = 32

	limit := textinput.New()
	limit.Placeholder = "Number of results"
	limit.SetValue("10")
	limit.CharLimit = 4

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		exp:       exp,
		logger:    logger,
		styles:    DefaultStyles(),
		editor:    editor,
		prefix:    prefix,
		limit:     limit,
		spin:      spin,
		results:   viewport.New(80, 16),
		chartKind: chart.KindBar,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// buildParams assembles the bindings for the parameterized template from the
// form inputs. The prefix gets the LIKE wildcard appended here, never inside
// the query text.
func buildParams(state, namePrefix, limit string) ([]core.Parameter, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(limit), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("limit must be a number: %w", err)
	}
	if n < 1 {
		return nil, fmt.Errorf("limit must be positive")
	}

	return []core.Parameter{
		core.NewStringParameter("state", state),
		core.NewStringParameter("name_prefix", namePrefix+"%"),
		core.NewInt64Parameter("limit", n),
	}, nil
}

func (m *Model) runLiteral() tea.Cmd {
	query := m.editor.Value()
	exp := m.exp

	return func() tea.Msg {
		start := time.Now()
		result, err := exp.RunLiteral(context.Background(), query)
		return queryFinishedMsg{result: result, err: err, took: time.Since(start)}
	}
}

func (m *Model) runParameterized() tea.Cmd {
	params, err := buildParams(states[m.stateIdx], m.prefix.Value(), m.limit.Value())
	if err != nil {
		return func() tea.Msg {
			return queryFinishedMsg{err: err}
		}
	}

	exp := m.exp
	return func() tea.Msg {
		start := time.Now()
		result, err := exp.RunParameterized(context.Background(), paramTemplate, params)
		return queryFinishedMsg{result: result, err: err, took: time.Since(start)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(msg.Width - 4)
		m.results.Width = msg.Width - 4
		m.results.Height = max(msg.Height-22, 8)
		m.ready = true
		m.refreshResults()
		return m, nil

	case queryFinishedMsg:
		m.running = false
		m.err = msg.err
		if msg.err == nil {
			m.result = msg.result
			m.status = fmt.Sprintf("query returned %d rows in %s", msg.result.Len(), msg.took.Round(time.Millisecond))
			m.focus = focusResults
			m.applyFocus()
		}
		m.refreshResults()
		return m, nil

	case spinner.TickMsg:
		if m.running {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "tab":
			m.focus = m.nextFocus()
			m.applyFocus()
			return m, nil

		case "ctrl+r":
			if m.running {
				return m, nil
			}
			m.running = true
			m.err = nil
			m.status = ""
			return m, tea.Batch(m.runLiteral(), m.spin.Tick)

		case "ctrl+p":
			if m.running {
				return m, nil
			}
			m.running = true
			m.err = nil
			m.status = ""
			return m, tea.Batch(m.runParameterized(), m.spin.Tick)
		}

		switch m.focus {
		case focusState:
			switch msg.String() {
			case "left", "h":
				m.stateIdx = (m.stateIdx + len(states) - 1) % len(states)
			case "right", "l", " ":
				m.stateIdx = (m.stateIdx + 1) % len(states)
			}
			return m, nil

		case focusResults:
			switch msg.String() {
			case "c":
				m.chartKind = m.chartKind.Next()
				m.refreshResults()
				return m, nil
			case "q":
				return m, tea.Quit
			}
		}
	}

	// forward remaining messages to the focused component
	switch m.focus {
	case focusEditor:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
	case focusPrefix:
		var cmd tea.Cmd
		m.prefix, cmd = m.prefix.Update(msg)
		cmds = append(cmds, cmd)
	case focusLimit:
		var cmd tea.Cmd
		m.limit, cmd = m.limit.Update(msg)
		cmds = append(cmds, cmd)
	case focusResults:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) nextFocus() focus {
	switch m.focus {
	case focusEditor:
		return focusState
	case focusState:
		return focusPrefix
	case focusPrefix:
		return focusLimit
	case focusLimit:
		return focusResults
	default:
		return focusEditor
	}
}

func (m *Model) applyFocus() {
	m.editor.Blur()
	m.prefix.Blur()
	m.limit.Blur()

	switch m.focus {
	case focusEditor:
		m.editor.Focus()
	case focusPrefix:
		m.prefix.Focus()
	case focusLimit:
		m.limit.Focus()
	}
}
