package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqexplore/chart"
	"bqexplore/core"
	"bqexplore/core/mock"
)

func TestBuildParams(t *testing.T) {
	r := require.New(t)

	params, err := buildParams("TX", "Jo", "10")
	r.NoError(err)
	r.Len(params, 3)

	assert.Equal(t, core.Parameter{Name: "state", Type: core.ParameterString, Value: "TX"}, params[0])
	assert.Equal(t, core.Parameter{Name: "name_prefix", Type: core.ParameterString, Value: "Jo%"}, params[1])
	assert.Equal(t, core.Parameter{Name: "limit", Type: core.ParameterInt64, Value: int64(10)}, params[2])

	// the form bindings must line up with the template placeholders
	r.NoError(core.ValidateParameters(paramTemplate, params))
}

func TestBuildParamsInvalidLimit(t *testing.T) {
	_, err := buildParams("TX", "Jo", "ten")
	assert.Error(t, err)

	_, err = buildParams("TX", "Jo", "0")
	assert.Error(t, err)
}

func testResult(t *testing.T, rowCount int) *core.Result {
	t.Helper()

	result := new(core.Result)
	stream := mock.NewResultStream(mock.NewRows(0, rowCount),
		mock.ResultStreamWithHeader(core.Header{"name", "total_count"}))
	require.NoError(t, result.SetIter(stream, nil))

	return result
}

// sized returns a model that has received its window size, mirroring what
// the program delivers on startup.
func sized(t *testing.T) Model {
	t.Helper()

	m := New(nil, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	model, ok := updated.(Model)
	require.True(t, ok)
	return model
}

func TestUpdate_QueryFinished(t *testing.T) {
	r := require.New(t)

	m := sized(t)
	updated, _ := m.Update(queryFinishedMsg{result: testResult(t, 5), took: 120 * time.Millisecond})
	m = updated.(Model)

	r.False(m.running)
	r.NoError(m.err)
	assert.Equal(t, focusResults, m.focus)
	assert.Contains(t, m.status, "5 rows")
	assert.Contains(t, m.View(), "5 rows")
}

func TestUpdate_QueryFailed(t *testing.T) {
	r := require.New(t)

	m := sized(t)
	m.running = true

	updated, _ := m.Update(queryFinishedMsg{err: errors.New("query failed: syntax error")})
	m = updated.(Model)

	r.False(m.running)
	r.Error(m.err)

	// the banner shows the message and an editable query box remains -
	// a failed run leaves the screen usable
	view := m.View()
	assert.Contains(t, view, "syntax error")
	assert.Contains(t, view, "Query")
}

func TestUpdate_ChartKindCycle(t *testing.T) {
	m := sized(t)

	updated, _ := m.Update(queryFinishedMsg{result: testResult(t, 3)})
	m = updated.(Model)
	require.Equal(t, focusResults, m.focus)
	require.Equal(t, chart.KindBar, m.chartKind)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = updated.(Model)
	assert.Equal(t, chart.KindLine, m.chartKind)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = updated.(Model)
	assert.Equal(t, chart.KindArea, m.chartKind)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = updated.(Model)
	assert.Equal(t, chart.KindBar, m.chartKind)
}

func TestUpdate_FocusCycle(t *testing.T) {
	m := sized(t)
	require.Equal(t, focusEditor, m.focus)

	order := []focus{focusState, focusPrefix, focusLimit, focusResults, focusEditor}
	for _, want := range order {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		assert.Equal(t, want, m.focus)
	}
}
