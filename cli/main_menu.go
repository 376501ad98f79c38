package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fieldmap.dev/fieldmapd/cache"
)

type mainState int

const (
	showMenu mainState = iota
	showSettings
	showOffline
	showWaypoints
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type TickMsg time.Time

func tickEvery() tea.Cmd {
	return tea.Every(50*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type uiModel struct {
	list        list.Model
	state       mainState
	settings    settingsModel
	offline     offlineModel
	waypoints   waypointsModel
	comps       *components
	cacheStatus cache.Status
	statusChan  <-chan cache.Status
}

type item struct {
	title, desc string
	state       mainState
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

func initialModel(comps *components, start mainState) uiModel {
	items := []list.Item{
		item{title: "Settings", desc: "Modify fieldmapd settings", state: showSettings},
		item{title: "Offline Maps", desc: "Download, pause and clear the offline basemap", state: showOffline},
		item{title: "Waypoints", desc: "Watch the waypoint log and leg distances", state: showWaypoints},
	}

	listDelegate := list.NewDefaultDelegate()
	m := uiModel{
		list:       list.New(items, listDelegate, 0, 0),
		state:      start,
		comps:      comps,
		statusChan: comps.manager.Subscribe(),
	}
	m.cacheStatus = comps.manager.Status()
	m.settings = getSettingsModel(comps)
	m.offline = getOfflineModel()
	m.waypoints = getWaypointsModel()
	m.list.Title = "Fieldmapd Actions"
	return m
}

func (m uiModel) Init() tea.Cmd {
	return tickEvery()
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && m.state == showMenu && m.list.FilterState() != list.Filtering {
			it := m.list.SelectedItem().(item)
			m.state = it.state
			return m, nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		m.settings, _ = m.settings.Update(msg, &m)
		m.offline, _ = m.offline.Update(msg, &m)
		m.waypoints, _ = m.waypoints.Update(msg, &m)
	case TickMsg:
		select {
		case status := <-m.statusChan:
			m.cacheStatus = status
		default:
		}
		m.offline, _ = m.offline.Update(msg, &m)
		m.waypoints, _ = m.waypoints.Update(msg, &m)
		return m, tickEvery()
	}

	var cmd tea.Cmd
	switch m.state {
	case showSettings:
		m.settings, cmd = m.settings.Update(msg, &m)
	case showOffline:
		m.offline, cmd = m.offline.Update(msg, &m)
	case showWaypoints:
		m.waypoints, cmd = m.waypoints.Update(msg, &m)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m uiModel) View() string {
	switch m.state {
	case showSettings:
		return m.settings.View()
	case showOffline:
		return m.offline.View(&m)
	case showWaypoints:
		return m.waypoints.View(&m)
	}
	return docStyle.Render(m.list.View())
}

func runUI(start mainState) {
	comps, err := build()
	if err != nil {
		fmt.Printf("could not start ui: %v\n", err)
		os.Exit(1)
	}
	p := tea.NewProgram(initialModel(comps, start), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
