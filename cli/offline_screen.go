package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"fieldmap.dev/fieldmapd/cache"
)

type offlineModel struct{}

func getOfflineModel() offlineModel {
	return offlineModel{}
}

func (m offlineModel) Update(msg tea.Msg, mm *uiModel) (offlineModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "s":
		mm.comps.manager.Start(mm.comps.settings.TileSourceURL)
	case "p":
		mm.comps.manager.Pause()
	case "r":
		mm.comps.manager.Resume(mm.comps.settings.TileSourceURL)
	case "c":
		if err := mm.comps.manager.Clear(); err != nil {
			mm.cacheStatus = mm.comps.manager.Status()
		}
	case "esc":
		mm.state = showMenu
	}
	return m, nil
}

func (m offlineModel) View(mm *uiModel) string {
	status := mm.cacheStatus
	progress := fmt.Sprintf("%d bytes", status.BytesStored)
	if status.TotalChunks > 0 {
		progress = fmt.Sprintf("%3d%%  %d / %d bytes  (%d / %d chunks)",
			status.Fraction(), status.BytesStored, status.TotalBytes,
			status.StoredChunks, status.TotalChunks)
	}
	errorLine := ""
	if status.Phase == cache.Error {
		errorLine = fmt.Sprintf("\nerror: %s", status.Error)
	}
	return docStyle.Render(fmt.Sprintf(
		"Offline Basemap\n\nphase: %s\ncached: %t\nprogress: %s%s\n\n(s start, p pause, r resume, c clear, esc back)",
		status.Phase,
		mm.comps.manager.HasCache(),
		progress,
		errorLine,
	) + "\n")
}
