package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"focusflow/internal/tasks"
	"focusflow/internal/view"
)

const (
	AppName               = "focusflow"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "focusflow.db"
	DefaultLogName        = "focusflow.log"
	DefaultMaxBlobBytes   = 5 << 20
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	New            string `toml:"new"`
	Search         string `toml:"search"`
	FilterAll      string `toml:"filter_all"`
	FilterActive   string `toml:"filter_active"`
	FilterDone     string `toml:"filter_completed"`
	Sort           string `toml:"sort"`
	Select         string `toml:"select"`
	Toggle         string `toml:"toggle"`
	ToggleFirst    string `toml:"toggle_first"`
	Edit           string `toml:"edit"`
	MoveUp         string `toml:"move_up"`
	MoveDown       string `toml:"move_down"`
	Delete         string `toml:"delete"`
	CompleteMarked string `toml:"complete_selected"`
	ClearCompleted string `toml:"clear_completed"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
}

type Config struct {
	DBPath        string `toml:"db_path"`
	StorageKey    string `toml:"storage_key"`
	MaxBlobBytes  int    `toml:"max_blob_bytes"`
	DefaultFilter string `toml:"default_filter"`
	DefaultSort   string `toml:"default_sort"`
	LogPath       string `toml:"log_path"`
	LogLevel      string `toml:"log_level"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath returns $XDG_CONFIG_HOME/focusflow/config.toml, falling
// back to ~/.config and finally the working directory.
func ResolveConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, DefaultConfigFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", AppName, DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first when the file
// does not exist. Relative db and log paths are resolved against the config
// directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.StorageKey == "" {
		c.StorageKey = def.StorageKey
	}
	if c.MaxBlobBytes < 0 {
		c.MaxBlobBytes = def.MaxBlobBytes
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	c.DefaultFilter = string(view.ParseFilter(c.DefaultFilter))
	if _, _, err := view.ParseSort(c.DefaultSort); err != nil {
		c.DefaultSort = def.DefaultSort
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		c.LogLevel = def.LogLevel
	}
	c.Keys = c.Keys.withDefaults(def.Keys)
}

func (c Config) resolve(dir string) Config {
	if !filepath.IsAbs(c.DBPath) && !strings.HasPrefix(c.DBPath, "file:") {
		c.DBPath = filepath.Join(dir, c.DBPath)
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
	return c
}

// ViewParams turns the default filter and sort into initial view parameters.
func (c Config) ViewParams() view.Params {
	p := view.DefaultParams()
	p.Filter = view.ParseFilter(c.DefaultFilter)
	if key, dir, err := view.ParseSort(c.DefaultSort); err == nil {
		p.Sort, p.Dir = key, dir
	}
	return p
}

// Level returns the configured log level, or Info when it is unreadable.
func (c Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(v string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.TrimSpace(v)))
	return lvl, err
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// withDefaults fills unset keys so a partial [keys] table still yields a
// complete keymap.
func (k Keymap) withDefaults(def Keymap) Keymap {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&k.Quit, def.Quit)
	fill(&k.Up, def.Up)
	fill(&k.Down, def.Down)
	fill(&k.New, def.New)
	fill(&k.Search, def.Search)
	fill(&k.FilterAll, def.FilterAll)
	fill(&k.FilterActive, def.FilterActive)
	fill(&k.FilterDone, def.FilterDone)
	fill(&k.Sort, def.Sort)
	fill(&k.Select, def.Select)
	fill(&k.Toggle, def.Toggle)
	fill(&k.ToggleFirst, def.ToggleFirst)
	fill(&k.Edit, def.Edit)
	fill(&k.MoveUp, def.MoveUp)
	fill(&k.MoveDown, def.MoveDown)
	fill(&k.Delete, def.Delete)
	fill(&k.CompleteMarked, def.CompleteMarked)
	fill(&k.ClearCompleted, def.ClearCompleted)
	fill(&k.Confirm, def.Confirm)
	fill(&k.Cancel, def.Cancel)
	return k
}

func defaultConfig() Config {
	return Config{
		DBPath:        DefaultDBName,
		StorageKey:    tasks.DefaultKey,
		MaxBlobBytes:  DefaultMaxBlobBytes,
		DefaultFilter: string(view.FilterAll),
		DefaultSort:   "created-desc",
		LogPath:       DefaultLogName,
		LogLevel:      "info",
		Keys: Keymap{
			Quit:           "q",
			Up:             "k",
			Down:           "j",
			New:            "n",
			Search:         "/",
			FilterAll:      "a",
			FilterActive:   "x",
			FilterDone:     "c",
			Sort:           "s",
			Select:         " ",
			Toggle:         "enter",
			ToggleFirst:    "ctrl+j",
			Edit:           "e",
			MoveUp:         "alt+up",
			MoveDown:       "alt+down",
			Delete:         "d",
			CompleteMarked: "b",
			ClearCompleted: "C",
			Confirm:        "y",
			Cancel:         "esc",
		},
	}
}
