package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	keyLastProfile = "last_profile_id"
	keyLastProject = "last_project_id"
	keyGeometry    = "geometry"
	keyWindowState = "window_state"
	keyTheme       = "theme"

	DefaultTheme = "dark"
)

// Settings are the UI preferences that survive restarts.
type Settings struct {
	LastProfileID *int64
	LastProjectID *int64
	Geometry      []byte // opaque layout blob, stored hex encoded
	WindowState   []byte
	Theme         string
}

func DefaultSettings() Settings {
	return Settings{Theme: DefaultTheme}
}

// SettingsStore reads and writes settings.json in the data directory.
type SettingsStore struct {
	path string
	log  *log.Logger
}

// SettingsPath returns the settings file location inside dataDir.
func SettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "settings.json")
}

func NewSettingsStore(path string, logger *log.Logger) *SettingsStore {
	return &SettingsStore{path: path, log: logger}
}

func (s *SettingsStore) Path() string { return s.path }

// Load returns the stored settings. A missing or unreadable file yields
// the defaults.
func (s *SettingsStore) Load() Settings {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	v.SetDefault(keyTheme, DefaultTheme)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.log != nil {
			s.log.Warn("settings unreadable, using defaults", "path", s.path, "err", err)
		}
		return DefaultSettings()
	}

	out := Settings{
		LastProfileID: optionalInt(v, keyLastProfile),
		LastProjectID: optionalInt(v, keyLastProject),
		Geometry:      s.blob(v, keyGeometry),
		WindowState:   s.blob(v, keyWindowState),
		Theme:         v.GetString(keyTheme),
	}
	if out.Theme == "" {
		out.Theme = DefaultTheme
	}
	return out
}

func optionalInt(v *viper.Viper, key string) *int64 {
	if !v.IsSet(key) || v.Get(key) == nil {
		return nil
	}
	n := v.GetInt64(key)
	return &n
}

func (s *SettingsStore) blob(v *viper.Viper, key string) []byte {
	raw := v.GetString(key)
	if raw == "" {
		return nil
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		if s.log != nil {
			s.log.Debug("ignoring malformed setting", "key", key, "err", err)
		}
		return nil
	}
	return b
}

// Save writes every set field. Nil fields are left out of the file.
func (s *SettingsStore) Save(in Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if in.LastProfileID != nil {
		v.Set(keyLastProfile, *in.LastProfileID)
	}
	if in.LastProjectID != nil {
		v.Set(keyLastProject, *in.LastProjectID)
	}
	if len(in.Geometry) > 0 {
		v.Set(keyGeometry, hex.EncodeToString(in.Geometry))
	}
	if len(in.WindowState) > 0 {
		v.Set(keyWindowState, hex.EncodeToString(in.WindowState))
	}
	theme := in.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	v.Set(keyTheme, theme)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
