// Package config loads webdesk settings from file, environment, and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"webdesk/desktop"
	"webdesk/store"
)

// EnvPrefix is prepended to every environment override, e.g. WEBDESK_ADDR.
const EnvPrefix = "WEBDESK"

type StoreConfig struct {
	Driver string
	Path   string
}

type LayoutConfig struct {
	Density  string
	Policy   string
	GridSize int
	IconSize int
	Gap      int
	Columns  int
}

type Config struct {
	Addr             string
	DataDir          string
	Write            bool
	Store            StoreConfig
	Layout           LayoutConfig
	AutosaveInterval time.Duration
	UploadDir        string
	MaxUploadBytes   int64
	AuditLog         string
	LogLevel         string
	MaxImportBytes   int64
}

// New returns a viper instance with defaults applied and, when present, the
// config file read. cfgFile overrides the default location.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "webdesk"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func SetDefaults(v *viper.Viper) {
	dataDir := filepath.Join(".", ".webdesk")
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "webdesk")
	}
	v.SetDefault("addr", ":8080")
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("write", false)
	v.SetDefault("store.driver", store.DriverBolt)
	v.SetDefault("store.path", "")
	v.SetDefault("layout.density", desktop.DensityDesktop)
	v.SetDefault("layout.policy", string(desktop.PolicyColumn))
	v.SetDefault("layout.grid_size", 0)
	v.SetDefault("layout.icon_size", 0)
	v.SetDefault("layout.gap", -1)
	v.SetDefault("layout.columns", 0)
	v.SetDefault("autosave_interval", 30*time.Second)
	v.SetDefault("upload_dir", "")
	v.SetDefault("max_upload_bytes", int64(64<<20))
	v.SetDefault("audit_log", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_import_bytes", int64(8<<20))
}

// Load reads the typed configuration out of v. Paths left empty are derived
// from data_dir.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Addr:    v.GetString("addr"),
		DataDir: v.GetString("data_dir"),
		Write:   v.GetBool("write"),
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
			Path:   v.GetString("store.path"),
		},
		Layout: LayoutConfig{
			Density:  v.GetString("layout.density"),
			Policy:   v.GetString("layout.policy"),
			GridSize: v.GetInt("layout.grid_size"),
			IconSize: v.GetInt("layout.icon_size"),
			Gap:      v.GetInt("layout.gap"),
			Columns:  v.GetInt("layout.columns"),
		},
		AutosaveInterval: v.GetDuration("autosave_interval"),
		UploadDir:        v.GetString("upload_dir"),
		MaxUploadBytes:   v.GetInt64("max_upload_bytes"),
		AuditLog:         v.GetString("audit_log"),
		LogLevel:         v.GetString("log_level"),
		MaxImportBytes:   v.GetInt64("max_import_bytes"),
	}

	switch c.Store.Driver {
	case store.DriverBolt, store.DriverSQLite:
	default:
		return c, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		name := "desktop.db"
		if c.Store.Driver == store.DriverSQLite {
			name = "desktop.sqlite"
		}
		c.Store.Path = filepath.Join(c.DataDir, name)
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(c.DataDir, "modifications.jsonl")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return c, fmt.Errorf("log_level: %w", err)
	}
	if _, err := c.DesktopLayout(); err != nil {
		return c, err
	}
	return c, nil
}

// DesktopLayout starts from the density preset and applies any explicit
// geometry overrides.
func (c Config) DesktopLayout() (desktop.Layout, error) {
	l := desktop.LayoutFor(c.Layout.Density)
	if c.Layout.Policy != "" {
		l.Policy = desktop.Policy(c.Layout.Policy)
	}
	if c.Layout.GridSize > 0 {
		l.GridSize = c.Layout.GridSize
	}
	if c.Layout.IconSize > 0 {
		l.IconSize = c.Layout.IconSize
	}
	if c.Layout.Gap >= 0 {
		l.Gap = c.Layout.Gap
	}
	if c.Layout.Columns > 0 {
		l.Columns = c.Layout.Columns
	}
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}
	return l, nil
}

// Logger builds the root logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// EnsureDataDir creates the data directory if needed.
func (c Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
