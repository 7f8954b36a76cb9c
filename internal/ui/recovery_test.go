package ui

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pokeMsg struct{}

// flakyModel panics on the first poke when panicOnPoke is set, quits otherwise.
type flakyModel struct {
	panicOnPoke bool
	panicOnView bool
	pokes       int
}

func (m *flakyModel) Init() tea.Cmd {
	return func() tea.Msg { return pokeMsg{} }
}

func (m *flakyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(pokeMsg); ok {
		m.pokes++
		if m.panicOnPoke {
			panic("update panic test")
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *flakyModel) View() string {
	if m.panicOnView {
		panic("view panic test")
	}
	return "Test UI"
}

func headless() []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer()}
}

func TestRecoveryHandler_NormalExit(t *testing.T) {
	rh := NewRecoveryHandler(zap.NewNop(), func() (tea.Model, []tea.ProgramOption) {
		return &flakyModel{}, headless()
	})

	require.NoError(t, rh.Run(context.Background()))
	assert.Zero(t, rh.RestartCount())
}

func TestRecoveryHandler_RestartsAfterPanic(t *testing.T) {
	var starts atomic.Int32
	rh := NewRecoveryHandler(zap.NewNop(), func() (tea.Model, []tea.ProgramOption) {
		// Crash on the first two starts only.
		return &flakyModel{panicOnPoke: starts.Add(1) <= 2}, headless()
	}).WithRestartPolicy(time.Millisecond, 5)

	require.NoError(t, rh.Run(context.Background()))
	assert.Equal(t, 2, rh.RestartCount())
	assert.Equal(t, int32(3), starts.Load())
}

func TestRecoveryHandler_GivesUp(t *testing.T) {
	rh := NewRecoveryHandler(zap.NewNop(), func() (tea.Model, []tea.ProgramOption) {
		return &flakyModel{panicOnPoke: true}, headless()
	}).WithRestartPolicy(time.Millisecond, 2)

	err := rh.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many times")
	assert.Equal(t, 3, rh.RestartCount())
}

func TestRecoveryHandler_FactoryPanic(t *testing.T) {
	var starts atomic.Int32
	rh := NewRecoveryHandler(zap.NewNop(), func() (tea.Model, []tea.ProgramOption) {
		if starts.Add(1) == 1 {
			panic("factory panic test")
		}
		return &flakyModel{}, headless()
	}).WithRestartPolicy(time.Millisecond, 1)

	require.NoError(t, rh.Run(context.Background()))
	assert.Equal(t, 1, rh.RestartCount())
}

func TestSafeModel(t *testing.T) {
	inner := &flakyModel{panicOnPoke: true}
	sm := NewSafeModel(inner, zap.NewNop())

	assert.NotNil(t, sm.Init())

	m, cmd := sm.Update(pokeMsg{})
	assert.Same(t, sm, m)
	assert.Nil(t, cmd)
	assert.True(t, strings.HasPrefix(sm.View(), "UI error in Update"))

	// ctrl+c always gets out of a failed model.
	_, cmd = sm.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// A successful update clears the failure.
	inner.panicOnPoke = false
	_, cmd = sm.Update(pokeMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, "Test UI", sm.View())
	assert.Same(t, inner, sm.Model())

	inner.panicOnView = true
	assert.Contains(t, sm.View(), "view crashed")
}
