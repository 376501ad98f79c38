package settings

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"fieldmap.dev/fieldmapd/params"
	"fieldmap.dev/fieldmapd/utils"
)

type AppSettings struct {
	OfflineTilesEnabled bool            `json:"offline_tiles_enabled"`
	TileSourceURL       string          `json:"tile_source_url"`
	LocalArchivePaths   []string        `json:"local_archive_paths"`
	DarkTheme           bool            `json:"dark_theme"`
	LayerVisibility     map[string]bool `json:"layer_visibility"`
	GpsTimeoutSeconds   int             `json:"gps_timeout_seconds"`
	LogLevel            string          `json:"log_level"`
}

func (s *AppSettings) Default() {
	s.OfflineTilesEnabled = false
	s.TileSourceURL = REMOTE_DEMO_ARCHIVE
	s.LocalArchivePaths = []string{BUNDLED_ARCHIVE_PATH, BUNDLED_ARCHIVE_ALT_PATH}
	s.DarkTheme = false
	s.LayerVisibility = map[string]bool{}
	for _, role := range []string{"land", "water", "roads", "buildings", "boundaries", "labels"} {
		s.LayerVisibility[role] = true
	}
	s.GpsTimeoutSeconds = 10
	s.LogLevel = "error"
}

func (s *AppSettings) GpsTimeout() time.Duration {
	if s.GpsTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.GpsTimeoutSeconds) * time.Second
}

func (s *AppSettings) Load(store *params.Store) (success bool) {
	s.Default() // set defaults so settings not already in param are defaulted
	data, err := store.Get(params.SETTINGS)
	if err != nil {
		utils.Logde(err)
		return false
	}

	err = json.Unmarshal(data, s)
	if err != nil {
		utils.Loge(err)
		return false
	}

	s.SetLogLevel()

	return true
}

func (s *AppSettings) LoadWithRetries(store *params.Store, tries int) {
	for range tries {
		if s.Load(store) {
			break
		}
		time.Sleep(1 * time.Second)
	}
	s.Save(store)
}

func (s *AppSettings) Save(store *params.Store) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		utils.Loge(err)
		return
	}
	err = store.Put(params.SETTINGS, data)
	if err != nil {
		utils.Loge(err)
		return
	}
}

func (s *AppSettings) Unmarshal(data []byte) {
	err := json.Unmarshal(data, s)
	if err != nil {
		utils.Loge(err)
	}
}

func (s *AppSettings) SetLogLevel() {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "info":
		slog.SetLogLoggerLevel(slog.LevelInfo)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelError)
	}
}
