package app

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModelCountsResults(t *testing.T) {
	m := NewProgressModel(3, nil)

	m, _ = update(t, m, ResultMsg{Done: 1, Total: 3, Result: pipeline.Result{QuestionID: "q1", Strategy: strategy.LLMText}})
	m, _ = update(t, m, ResultMsg{Done: 2, Total: 3, Result: pipeline.Result{QuestionID: "q2", Strategy: strategy.Error}})

	assert.Equal(t, 2, m.Done())
	assert.Equal(t, 1, m.counts[strategy.LLMText])
	assert.Equal(t, 1, m.counts[strategy.Error])
	assert.Contains(t, m.render(), "q2")
}

func TestProgressModelKeepsRecentTail(t *testing.T) {
	m := NewProgressModel(20, nil)
	for i := range 10 {
		m, _ = update(t, m, ResultMsg{Done: i + 1, Result: pipeline.Result{QuestionID: fmt.Sprintf("q%d", i)}})
	}

	require.Len(t, m.recent, recentLimit)
	assert.Equal(t, "q9", m.recent[len(m.recent)-1].QuestionID)
	assert.Equal(t, 20, m.total)
}

func TestProgressModelCtrlCCancels(t *testing.T) {
	calls := 0
	m := NewProgressModel(2, func() { calls++ })

	m, _ = update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	m, _ = update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})

	assert.True(t, m.Cancelled())
	assert.Equal(t, 1, calls)
	assert.True(t, strings.Contains(m.render(), "Cancelling"))
}

func TestProgressModelFinishedQuits(t *testing.T) {
	m := NewProgressModel(1, nil)
	m, cmd := update(t, m, FinishedMsg{Batch: pipeline.Batch{RunID: "run-9", Summary: pipeline.Summary{Total: 1}}})

	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.Contains(t, m.render(), "run-9")
}
