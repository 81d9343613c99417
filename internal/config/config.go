package config

import (
	"errors"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskdeck.db"
	DefaultSettingsName   = "settings.json"
	DefaultExportName     = "tasks_export.json"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Add         string `toml:"add"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Complete    string `toml:"complete"`
	Delete      string `toml:"delete"`
	Detail      string `toml:"detail"`
	Search      string `toml:"search"`
	CycleStatus string `toml:"cycle_status"`
	CycleGroup  string `toml:"cycle_group"`
	Calendar    string `toml:"calendar"`
	Export      string `toml:"export"`
	Import      string `toml:"import"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
}

type Config struct {
	DBPath           string `toml:"db_path"`
	SettingsPath     string `toml:"settings_path"`
	ExportPath       string `toml:"export_path"`
	DefaultFilter    string `toml:"default_filter"`
	ReminderInterval int    `toml:"reminder_interval_secs"`
	Keys             Keymap `toml:"keys"`
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = DefaultSettingsName
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = DefaultExportName
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = 60
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:           DefaultDBName,
		SettingsPath:     DefaultSettingsName,
		ExportPath:       DefaultExportName,
		DefaultFilter:    "all",
		ReminderInterval: 60,
		Keys: Keymap{
			Quit:        "q",
			Add:         "a",
			Up:          "k",
			Down:        "j",
			Complete:    " ",
			Delete:      "d",
			Detail:      "enter",
			Search:      "/",
			CycleStatus: "f",
			CycleGroup:  "g",
			Calendar:    "v",
			Export:      "E",
			Import:      "I",
			Confirm:     "enter",
			Cancel:      "esc",
		},
	}
}
