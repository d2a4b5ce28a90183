package main

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightcode-go/services/config"
	"lightcode-go/x/shmring"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func step(t *testing.T, m tea.Model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(model)
	require.True(t, ok)
	return mm
}

func ticks(t *testing.T, m model, n int) model {
	for i := 0; i < n; i++ {
		m = step(t, m, tickMsg(time.Time{}))
	}
	return m
}

func TestModel_ClickKeyTurnsOn(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	m := newModel(sim, nil)

	m = step(t, m, keyRune('c'))
	assert.True(t, sim.Btn.Pressed())
	m = ticks(t, m, 40)
	assert.False(t, sim.Btn.Pressed())
	assert.Equal(t, "solid", sim.State().State)
	assert.Contains(t, m.View(), "solid group=0 mode=0")
}

func TestModel_SpaceTogglesSwitch(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	m := newModel(sim, nil)

	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, sim.Btn.Pressed())
	assert.Contains(t, m.View(), "SWITCH DOWN")
	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, sim.Btn.Pressed())
}

func TestModel_SensorAndPowerKeys(t *testing.T) {
	sim := newTestSim(t, "blf-a6", defaultSimOptions())
	m := newModel(sim, nil)

	m = step(t, m, keyRune('-'))
	assert.Equal(t, uint8(149), sim.Volt.Get())
	m = step(t, m, keyRune('t'))
	assert.Nil(t, sim.Temp)

	m = step(t, m, keyRune('p'))
	assert.Equal(t, 1, sim.State().Mode)
	assert.Contains(t, m.status, "power cut for 200ms")
}

func TestModel_ProfileReload(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	m := newModel(sim, nil)

	m = step(t, m, profileMsg{err: errors.New("parse error")})
	assert.Equal(t, "reload failed: parse error", m.status)

	p, err := config.Lookup("tail-light")
	require.NoError(t, err)
	m = step(t, m, profileMsg{p: p})
	assert.Equal(t, "reloaded tail-light", m.status)
	assert.Equal(t, "tail-light", sim.Profile().Name)
}

func TestModel_LogTail(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	logs := shmring.New(1024)
	m := newModel(sim, logs)
	for i := 0; i < 10; i++ {
		logs.Write([]byte("[INFO] line\n"))
	}
	m = ticks(t, m, 1)
	assert.Len(t, m.tail, logLines)
	assert.Contains(t, m.View(), "[INFO] line")
}

func TestModel_Quit(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	_, cmd := newModel(sim, nil).Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
