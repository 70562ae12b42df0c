// Package pqreactorconfig loads pqreactor-loadtest's configuration from
// flags, environment variables, and an optional config file, and can watch
// that file for live changes to the pool's log settings.
package pqreactorconfig

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every setting pqreactor-loadtest (and, in principle, any
// other pqreactor-based binary) needs at startup.
type Config struct {
	DSN            string        `mapstructure:"dsn"`
	PoolSize       int           `mapstructure:"pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	LogOutput      string        `mapstructure:"log_output"`
}

// Default returns the configuration used when no flag, environment
// variable, or config file overrides a setting.
func Default() Config {
	return Config{
		DSN:            "",
		PoolSize:       10,
		ConnectTimeout: 5 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		LogOutput:      "stderr",
	}
}

// Loader binds a Config to a viper instance backed by an afero filesystem,
// so tests can load configuration from an in-memory file instead of touching
// disk.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader builds a Loader over fs. Pass afero.NewOsFs() in production and
// afero.NewMemMapFs() in tests.
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	def := Default()
	v.SetDefault("dsn", def.DSN)
	v.SetDefault("pool_size", def.PoolSize)
	v.SetDefault("connect_timeout", def.ConnectTimeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("log_output", def.LogOutput)
	v.SetEnvPrefix("PQREACTOR")
	v.AutomaticEnv()
	return &Loader{v: v, fs: fs}
}

// BindFlags binds pflag flags (dsn, pool-size, connect-timeout, log-level,
// log-format, log-output) into the loader, so command-line values take
// precedence over both the config file and the environment.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, name := range []string{"dsn", "pool-size", "connect-timeout", "log-level", "log-format", "log-output"} {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		key := flagNameToKey(name)
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("pqreactorconfig: binding flag %q: %w", name, err)
		}
	}
	return nil
}

// LoadFile reads path (any format viper supports: yaml, json, toml, ...)
// into the loader, if it exists. A missing file is not an error: defaults,
// flags, and the environment still apply.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if _, statErr := l.fs.Stat(path); statErr != nil {
			return nil
		}
		return fmt.Errorf("pqreactorconfig: reading %s: %w", path, err)
	}
	return nil
}

// WatchFile arranges for onChange to be called every time the loaded config
// file changes on disk, with the freshly re-decoded Config. It relies on
// viper's fsnotify-backed watcher, so it only has an effect after LoadFile
// has successfully located a real file (afero's in-memory filesystem used in
// tests has no fsnotify events to deliver).
func (l *Loader) WatchFile(onChange func(Config)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := l.Decode()
		if err != nil {
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Decode materializes the current Config from flags, environment, config
// file, and defaults, in that order of precedence (viper's own precedence
// order, which this Loader relies on rather than reimplementing).
func (l *Loader) Decode() (Config, error) {
	var cfg Config
	decoderOpts := func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}
	if err := l.v.Unmarshal(&cfg, decoderOpts); err != nil {
		return Config{}, fmt.Errorf("pqreactorconfig: decoding config: %w", err)
	}
	if cfg.PoolSize <= 0 {
		return Config{}, fmt.Errorf("pqreactorconfig: pool_size must be positive, got %d", cfg.PoolSize)
	}
	return cfg, nil
}

func flagNameToKey(flagName string) string {
	key := make([]byte, 0, len(flagName))
	for i := 0; i < len(flagName); i++ {
		if flagName[i] == '-' {
			key = append(key, '_')
			continue
		}
		key = append(key, flagName[i])
	}
	return string(key)
}
