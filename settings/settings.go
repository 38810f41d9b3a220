// Package settings persists the player's client preferences between
// sessions using the platform's conventional data directory.
package settings

import (
	"encoding/json"

	"github.com/quasilyte/gdata"
	"go.uber.org/zap"
)

const settingsItem = "settings"

// Saved is the preference data stored on disk.
type Saved struct {
	PlayerName    string `json:"playerName"`
	ServerAddress string `json:"serverAddress"`
	MasterURL     string `json:"masterUrl"`
}

// Defaults for a first run with no saved settings.
func Defaults() Saved {
	return Saved{
		PlayerName:    "Pilot",
		ServerAddress: "localhost:5000",
		MasterURL:     "http://localhost:8080",
	}
}

// Store reads and writes saved settings. A nil manager (when the data
// directory could not be opened) degrades to defaults without error.
type Store struct {
	log     *zap.Logger
	manager *gdata.Manager
}

func NewStore(log *zap.Logger) *Store {
	m, err := gdata.Open(gdata.Config{
		AppName: "starfray",
	})
	if err != nil {
		log.Warn("settings persistence unavailable", zap.Error(err))
		m = nil
	}
	return &Store{log: log, manager: m}
}

// Load returns the saved settings, or defaults when nothing is saved
// yet or the saved data is unreadable.
func (s *Store) Load() Saved {
	if s.manager == nil {
		return Defaults()
	}

	data, err := s.manager.LoadItem(settingsItem)
	if err != nil {
		s.log.Warn("could not load settings", zap.Error(err))
		return Defaults()
	}
	if data == nil {
		return Defaults()
	}

	saved := Defaults()
	if err := json.Unmarshal(data, &saved); err != nil {
		s.log.Warn("could not parse saved settings", zap.Error(err))
		return Defaults()
	}
	return saved
}

// Save writes the settings to disk.
func (s *Store) Save(saved Saved) error {
	if s.manager == nil {
		return nil
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	if err := s.manager.SaveItem(settingsItem, data); err != nil {
		s.log.Warn("could not save settings", zap.Error(err))
		return err
	}
	return nil
}
