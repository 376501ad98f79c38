package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"fieldmap.dev/fieldmapd/render"
)

type SettingType int

const (
	String SettingType = iota
	Int
	Bool
)

type settingsState int

const (
	showSettingsMenu settingsState = iota
	settingsExit
	settingsInput
	saveSettings
)

type settingsItem struct {
	title, desc string
	state       settingsState
	key         string
	Type        SettingType
}

func (i settingsItem) Title() string       { return i.title }
func (i settingsItem) Description() string { return i.desc }
func (i settingsItem) FilterValue() string { return i.title }

type settingsModel struct {
	list         list.Model
	state        settingsState
	textInput    textinput.Model
	selectedItem settingsItem
	prompt       string
	comps        *components
}

func getSettingsModel(comps *components) settingsModel {
	items := []list.Item{
		settingsItem{title: "Offline Tiles", desc: "Toggle use of the offline basemap cache", state: showSettingsMenu, key: "offline", Type: Bool},
		settingsItem{title: "Tile Source URL", desc: "Remote tile archive to download and fall back to", state: settingsInput, key: "url", Type: String},
		settingsItem{title: "Dark Theme", desc: "Toggle the dark basemap palette", state: showSettingsMenu, key: "dark", Type: Bool},
		settingsItem{title: "GPS Timeout", desc: "Seconds to wait for a position fix", state: settingsInput, key: "gps_timeout", Type: Int},
		settingsItem{title: "Log Level", desc: "debug, info, warn or error", state: settingsInput, key: "log_level", Type: String},
	}
	for _, role := range render.Roles() {
		items = append(items, settingsItem{
			title: "Show " + role,
			desc:  "Toggle the " + role + " basemap layer",
			state: showSettingsMenu,
			key:   "layer:" + role,
			Type:  Bool,
		})
	}
	items = append(items,
		settingsItem{title: "Save", desc: "Persist settings", state: saveSettings},
		settingsItem{title: "Exit", desc: "Back to the main menu", state: settingsExit},
	)

	listDelegate := list.NewDefaultDelegate()
	m := settingsModel{list: list.New(items, listDelegate, 0, 0), comps: comps}
	m.list.Title = "Fieldmapd Settings"
	m.textInput = textinput.New()
	return m
}

func (m settingsModel) Update(msg tea.Msg, mm *uiModel) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.state == showSettingsMenu {
			it, ok := m.list.SelectedItem().(settingsItem)
			if !ok {
				return m, nil
			}
			m.selectedItem = it
			m.state = it.state
			switch m.state {
			case settingsExit:
				m.state = showSettingsMenu
				mm.state = showMenu
			case settingsInput:
				m.prompt = it.title
				m.textInput.SetValue(m.currentValue(it))
				m.textInput.Focus()
			case saveSettings:
				m.state = showSettingsMenu
				m.comps.settings.Save(m.comps.store)
				m.comps.settings.SetLogLevel()
				mm.state = showMenu
			case showSettingsMenu:
				m.toggle(it)
			}
			return m, nil
		}
		if msg.Type == tea.KeyEnter && m.state == settingsInput {
			m.apply(m.selectedItem, m.textInput.Value())
			m.textInput.Blur()
			m.state = showSettingsMenu
			return m, nil
		}
		if msg.Type == tea.KeyEsc && m.state == settingsInput {
			m.textInput.Blur()
			m.state = showSettingsMenu
			return m, nil
		}
		if msg.Type == tea.KeyEsc && m.state == showSettingsMenu {
			mm.state = showMenu
			return m, nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	if m.state == settingsInput {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *settingsModel) currentValue(it settingsItem) string {
	s := m.comps.settings
	switch it.key {
	case "url":
		return s.TileSourceURL
	case "gps_timeout":
		return strconv.Itoa(s.GpsTimeoutSeconds)
	case "log_level":
		return s.LogLevel
	}
	return ""
}

func (m *settingsModel) toggle(it settingsItem) {
	s := m.comps.settings
	switch {
	case it.key == "offline":
		s.OfflineTilesEnabled = !s.OfflineTilesEnabled
		if s.OfflineTilesEnabled {
			if !m.comps.manager.HasCache() {
				m.comps.manager.Start(s.TileSourceURL)
			}
		} else {
			m.comps.manager.Disable()
		}
	case it.key == "dark":
		s.DarkTheme = !s.DarkTheme
		if s.DarkTheme {
			m.comps.mapModel.SetTheme(render.DarkTheme())
		} else {
			m.comps.mapModel.SetTheme(render.LightTheme())
		}
	case len(it.key) > 6 && it.key[:6] == "layer:":
		role := it.key[6:]
		s.LayerVisibility[role] = !s.LayerVisibility[role]
		m.comps.mapModel.SetRoleVisibility(role, s.LayerVisibility[role])
	}
}

func (m *settingsModel) apply(it settingsItem, value string) {
	s := m.comps.settings
	switch it.key {
	case "url":
		s.TileSourceURL = value
		m.comps.resolver.RemoteURL = value
	case "gps_timeout":
		seconds, err := strconv.Atoi(value)
		if err == nil && seconds > 0 {
			s.GpsTimeoutSeconds = seconds
		}
	case "log_level":
		s.LogLevel = value
	}
}

func (m settingsModel) View() string {
	if m.state == settingsInput {
		return docStyle.Render(fmt.Sprintf("%s\n\n%s\n\n(enter to apply, esc to cancel)", m.prompt, m.textInput.View()))
	}
	return docStyle.Render(m.list.View())
}
