package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"reportship/internal/pipeline"

	"github.com/spf13/viper"
)

type Remote struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Dir            string        `mapstructure:"dir"`
	User           string        `mapstructure:"user"`
	KeyPath        string        `mapstructure:"key_path"`
	KnownHosts     string        `mapstructure:"known_hosts"`
	UseAgent       bool          `mapstructure:"use_agent"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type TimeZone struct {
	Name        string `mapstructure:"name"`
	OffsetHours int    `mapstructure:"offset_hours"`
	DST         bool   `mapstructure:"dst"`
}

type Config struct {
	WatchRoot       string        `mapstructure:"watch_root"`
	Extensions      []string      `mapstructure:"extensions"`
	Remote          Remote        `mapstructure:"remote"`
	TimeZone        TimeZone      `mapstructure:"timezone"`
	TransferTimeout time.Duration `mapstructure:"transfer_timeout"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	LogFile         string        `mapstructure:"log_file"`
	DBPath          string        `mapstructure:"db_path"`
	DaemonPort      int           `mapstructure:"daemon_port"`
	BufferSize      int           `mapstructure:"buffer_size"`
}

var Default = Config{
	WatchRoot:  "/var/tmp/exim/mime/reports",
	Extensions: slices.Clone(pipeline.DefaultExtensions),
	Remote: Remote{
		Port:           22,
		KeyPath:        "~/.ssh/id_rsa",
		UseAgent:       true,
		ConnectTimeout: 10 * time.Second,
	},
	TimeZone: TimeZone{
		Name:        "EST",
		OffsetHours: -5,
		DST:         true,
	},
	TransferTimeout: 5 * time.Minute,
	DaemonPort:      9301,
	BufferSize:      100,
}

// Load reads the config file at path, or ~/.reportship/config.yaml when path
// is empty. A missing default file is not an error; defaults and
// REPORTSHIP_* environment variables still apply.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".reportship")

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	v.SetDefault("watch_root", Default.WatchRoot)
	v.SetDefault("extensions", Default.Extensions)
	v.SetDefault("remote.host", "")
	v.SetDefault("remote.dir", "")
	v.SetDefault("remote.user", "")
	v.SetDefault("remote.port", Default.Remote.Port)
	v.SetDefault("remote.key_path", Default.Remote.KeyPath)
	v.SetDefault("remote.known_hosts", "")
	v.SetDefault("remote.use_agent", Default.Remote.UseAgent)
	v.SetDefault("remote.connect_timeout", Default.Remote.ConnectTimeout)
	v.SetDefault("timezone.name", Default.TimeZone.Name)
	v.SetDefault("timezone.offset_hours", Default.TimeZone.OffsetHours)
	v.SetDefault("timezone.dst", Default.TimeZone.DST)
	v.SetDefault("transfer_timeout", Default.TransferTimeout)
	v.SetDefault("settle_delay", Default.SettleDelay)
	v.SetDefault("log_file", "")
	v.SetDefault("db_path", filepath.Join(configDir, "history.db"))
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("buffer_size", Default.BufferSize)

	v.SetEnvPrefix("REPORTSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, notFound := errors.AsType[viper.ConfigFileNotFoundError](err)
		if path != "" || !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Remote.KeyPath = expandHome(cfg.Remote.KeyPath, home)
	cfg.Remote.KnownHosts = expandHome(cfg.Remote.KnownHosts, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.LogFile = expandHome(cfg.LogFile, home)

	return &cfg, nil
}

// Validate checks the settings the daemon cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if c.WatchRoot == "" {
		errs = append(errs, errors.New("watch_root is required"))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("at least one extension is required"))
	}
	if c.Remote.Host == "" {
		errs = append(errs, errors.New("remote.host is required"))
	}
	if c.Remote.Port <= 0 || c.Remote.Port > 65535 {
		errs = append(errs, fmt.Errorf("remote.port out of range: %d", c.Remote.Port))
	}
	if c.Remote.Dir == "" {
		errs = append(errs, errors.New("remote.dir is required"))
	}
	if c.Remote.User == "" {
		errs = append(errs, errors.New("remote.user is required"))
	}
	if c.TransferTimeout <= 0 {
		errs = append(errs, errors.New("transfer_timeout must be positive"))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, errors.New("buffer_size must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) RemoteAddr() string {
	return net.JoinHostPort(c.Remote.Host, strconv.Itoa(c.Remote.Port))
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}

	return path
}
