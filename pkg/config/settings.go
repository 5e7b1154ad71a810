package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dbauto/orgchart/pkg/errors"
	"github.com/dbauto/orgchart/pkg/layout"
	"github.com/dbauto/orgchart/pkg/org"
)

const settingsFile = "settings.json"

// ChartSettings is everything the UI can change at runtime, persisted
// between restarts. Layout geometry, visibility filters, root selection,
// report windows, and export appearance all live here; server wiring does
// not.
type ChartSettings struct {
	Layout  layout.Settings   `json:"layout"`
	Filters org.FilterOptions `json:"filters"`

	TopUserEmail string `json:"topUserEmail,omitempty"`
	TopUserID    string `json:"topUserId,omitempty"`

	NewHireDays  int `json:"newHireDays"`
	RecentDays   int `json:"recentDays"`

	// Colors override the per-depth palette when non-empty.
	Colors []string `json:"colors,omitempty"`

	// Columns controls directory export visibility; a key set to false
	// hides that column.
	Columns map[string]bool `json:"columns,omitempty"`
}

// DefaultChartSettings returns the settings a fresh install starts with.
func DefaultChartSettings() ChartSettings {
	return ChartSettings{
		Layout: layout.DefaultSettings(),
		Filters: org.FilterOptions{
			HideDisabled: true,
			HideGuests:   true,
		},
		NewHireDays: 30,
		RecentDays:  365,
	}
}

// Validate checks the settings as a whole, including the embedded layout
// settings.
func (s ChartSettings) Validate() error {
	if err := s.Layout.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateEmail(s.TopUserEmail); err != nil {
		return err
	}
	for _, c := range s.Colors {
		if err := errors.ValidateHexColor(c); err != nil {
			return err
		}
	}
	if s.NewHireDays < 0 || s.RecentDays < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "report windows must be non-negative")
	}
	return nil
}

// SettingsStore persists chart settings as JSON in the data directory.
// Reads and writes are serialized; the HTTP handlers call this from
// concurrent requests.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewSettingsStore creates a store in dir, creating the directory if
// needed.
func NewSettingsStore(dir string) (*SettingsStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	return &SettingsStore{path: filepath.Join(dir, settingsFile)}, nil
}

// Load reads the persisted settings, falling back to defaults when the
// file does not exist yet.
func (s *SettingsStore) Load() (ChartSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return DefaultChartSettings(), nil
	}
	if err != nil {
		return ChartSettings{}, err
	}

	// Start from defaults so fields added after the file was written get
	// their default instead of the zero value.
	settings := DefaultChartSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return ChartSettings{}, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// Save validates and persists the settings atomically.
func (s *SettingsStore) Save(settings ChartSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), settingsFile+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
