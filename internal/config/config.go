package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazygrid/internal/format"
)

// EnvPrefix prefixes environment overrides, e.g. LAZYGRID_GRID_PAGE_SIZE
const EnvPrefix = "LAZYGRID"

// Config holds all application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Grid    GridConfig    `mapstructure:"grid"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Display format.Locale `mapstructure:"display"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	UI      UIConfig      `mapstructure:"ui"`
	History HistoryConfig `mapstructure:"history"`
}

// SourceConfig selects where rows come from
type SourceConfig struct {
	// Kind is one of empty, local, odata, sqlite, postgres
	Kind        string `mapstructure:"kind"`
	URL         string `mapstructure:"url"`
	Dialect     string `mapstructure:"dialect"`
	RowsFile    string `mapstructure:"rows_file"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	Table       string `mapstructure:"table"`
}

type GridConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type RemoteConfig struct {
	TimeoutMS     int  `mapstructure:"timeout_ms"`
	CountFallback bool `mapstructure:"count_fallback"`
}

// Timeout returns the remote timeout as a duration
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	Collection string `mapstructure:"collection"`
	Dialect    string `mapstructure:"dialect"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives log output instead of stderr when set
	File string `mapstructure:"file"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
	// MaxCellWidth bounds a rendered cell, in terminal columns
	MaxCellWidth int `mapstructure:"max_cell_width"`
}

// HistoryConfig controls the load history database
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path defaults to history.db in the user config directory
	Path string `mapstructure:"path"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:    "empty",
			Dialect: "odata4",
		},
		Grid: GridConfig{
			PageSize: 50,
		},
		Remote: RemoteConfig{
			TimeoutMS:     30000,
			CountFallback: false,
		},
		Display: format.DefaultLocale(),
		Server: ServerConfig{
			Addr:       ":8080",
			Collection: "items",
			Dialect:    "odata4",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: false,
			MaxCellWidth: 40,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()

	v.SetDefault("source.kind", d.Source.Kind)
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.dialect", d.Source.Dialect)
	v.SetDefault("source.rows_file", d.Source.RowsFile)
	v.SetDefault("source.sqlite_path", d.Source.SQLitePath)
	v.SetDefault("source.postgres_dsn", d.Source.PostgresDSN)
	v.SetDefault("source.table", d.Source.Table)
	v.SetDefault("grid.page_size", d.Grid.PageSize)
	v.SetDefault("remote.timeout_ms", d.Remote.TimeoutMS)
	v.SetDefault("remote.count_fallback", d.Remote.CountFallback)
	v.SetDefault("display.settings.id_field", d.Display.Settings.IDField)
	v.SetDefault("display.settings.thousand_separator", d.Display.Settings.ThousandSeparator)
	v.SetDefault("display.settings.decimal_precision", d.Display.Settings.DecimalPrecision)
	v.SetDefault("display.settings.decimal_separator", d.Display.Settings.DecimalSeparator)
	v.SetDefault("display.calendar.date_format", d.Display.Calendar.DateFormat)
	v.SetDefault("display.calendar.date_time_format", d.Display.Calendar.DateTimeFormat)
	v.SetDefault("display.calendar.time_format", d.Display.Calendar.TimeFormat)
	v.SetDefault("display.calendar.week_start", d.Display.Calendar.WeekStart)
	v.SetDefault("display.lang.yes", d.Display.Lang.Yes)
	v.SetDefault("display.lang.no", d.Display.Lang.No)
	v.SetDefault("display.lang.pager_page", d.Display.Lang.PagerPage)
	v.SetDefault("display.lang.pager_of_pages", d.Display.Lang.PagerOfPages)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.collection", d.Server.Collection)
	v.SetDefault("server.dialect", d.Server.Dialect)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.max_cell_width", d.UI.MaxCellWidth)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
}

// Load loads configuration. An empty path searches the user config
// directory, the working directory and ./config for config.yaml; a missing
// file there is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// HistoryPath resolves the history database location
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazygrid"), nil
}
