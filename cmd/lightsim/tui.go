package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lightcode-go/services/config"
	"lightcode-go/services/telemetry"
	"lightcode-go/x/shmring"
	"lightcode-go/x/timex"
)

type keyMap struct {
	Switch   key.Binding
	Tap      key.Binding
	VoltUp   key.Binding
	VoltDown key.Binding
	TempUp   key.Binding
	TempDown key.Binding
	ShortCut key.Binding
	LongCut  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Switch:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "press/release")),
		Tap:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "click")),
		VoltUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "battery")),
		VoltDown: key.NewBinding(key.WithKeys("-")),
		TempUp:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t/T", "temperature")),
		TempDown: key.NewBinding(key.WithKeys("T")),
		ShortCut: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "tap power")),
		LongCut:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "power off 5s")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Tap, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Switch, k.Tap},
		{k.VoltUp, k.TempUp},
		{k.ShortCut, k.LongCut},
		{k.Help, k.Quit},
	}
}

type styles struct {
	Title  lipgloss.Style
	Bar    lipgloss.Style
	Muted  lipgloss.Style
	Warn   lipgloss.Style
	Switch lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
		Bar:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Switch: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
	}
}

type tickMsg time.Time

type profileMsg struct {
	p   config.Profile
	err error
}

const (
	barWidth = 32
	logLines = 6
)

type model struct {
	sim    *Sim
	keys   keyMap
	help   help.Model
	styles styles
	logs   *shmring.Ring
	tail   []string
	status string
	tapped int
}

func newModel(sim *Sim, logs *shmring.Ring) model {
	return model{
		sim:    sim,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: defaultStyles(),
		logs:   logs,
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(timex.Period(m.sim.Profile().TickMs), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return m.tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.tapped > 0 {
			m.tapped--
			if m.tapped == 0 {
				m.sim.Btn.Set(false)
			}
		}
		m.sim.Step()
		m.drainLogs()
		return m, m.tick()

	case profileMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		if err := m.sim.Reload(msg.p); err != nil {
			m.status = "reload failed: " + err.Error()
			return m, nil
		}
		m.status = "reloaded " + msg.p.Name
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sim
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Switch):
		s.Btn.Toggle()
		m.tapped = 0
	case key.Matches(msg, m.keys.Tap):
		s.Btn.Set(true)
		m.tapped = int(s.Profile().Click.Debounce) + 2
	case key.Matches(msg, m.keys.VoltUp):
		s.Volt.Add(1)
	case key.Matches(msg, m.keys.VoltDown):
		s.Volt.Add(-1)
	case key.Matches(msg, m.keys.TempUp):
		if s.Temp != nil {
			s.Temp.Add(1)
		}
	case key.Matches(msg, m.keys.TempDown):
		if s.Temp != nil {
			s.Temp.Add(-1)
		}
	case key.Matches(msg, m.keys.ShortCut), key.Matches(msg, m.keys.LongCut):
		off := 200 * time.Millisecond
		if key.Matches(msg, m.keys.LongCut) {
			off = 5 * time.Second
		}
		m.tapped = 0
		if err := s.PowerCycle(off); err != nil {
			m.status = "boot failed: " + err.Error()
		} else {
			m.status = fmt.Sprintf("power cut for %s", off)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *model) drainLogs() {
	if m.logs == nil || m.logs.Available() == 0 {
		return
	}
	buf := make([]byte, m.logs.Available())
	n := m.logs.TryReadInto(buf)
	for _, l := range strings.Split(strings.TrimRight(string(buf[:n]), "\n"), "\n") {
		m.tail = append(m.tail, l)
	}
	if len(m.tail) > logLines {
		m.tail = m.tail[len(m.tail)-logLines:]
	}
}

func (m model) View() string {
	s := m.sim
	st := s.State()
	p := s.Profile()
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("lightsim  " + p.Name))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  t=%s", s.Elapsed().Truncate(100*time.Millisecond))))
	b.WriteString("\n\n")

	for ch := 0; ch < p.Channels; ch++ {
		d := int(st.Duties[ch])
		fill := d * barWidth / 255
		b.WriteString(fmt.Sprintf("ch%d %3d ", ch, d))
		b.WriteString(m.styles.Bar.Render(strings.Repeat("█", fill)))
		b.WriteString(m.styles.Muted.Render(strings.Repeat("·", barWidth-fill)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	sw := m.styles.Muted.Render("switch up")
	if s.Btn.Pressed() {
		sw = m.styles.Switch.Render("SWITCH DOWN")
	}
	b.WriteString(sw + "   " + telemetry.Summary(st) + "\n")

	reg := telemetry.Summary(s.Regulation())
	if s.Controller().Sleeping() {
		reg = m.styles.Warn.Render(reg + " (asleep)")
	}
	b.WriteString(reg + "\n")
	if m.status != "" {
		b.WriteString(m.styles.Muted.Render(m.status) + "\n")
	}
	b.WriteString("\n")
	for _, l := range m.tail {
		b.WriteString(m.styles.Muted.Render(l) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
