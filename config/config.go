package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/musicflow/redact"
)

type Config struct {
	Bot      Bot      `yaml:"bot"`
	Log      Log      `yaml:"log"`
	Spotify  Spotify  `yaml:"spotify"`
	Pipeline Pipeline `yaml:"pipeline"`
	Health   Health   `yaml:"health"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("bot", c.Bot.ToDict()).
		Dict("log", c.Log.ToDict()).
		Dict("spotify", c.Spotify.ToDict()).
		Dict("pipeline", c.Pipeline.ToDict()).
		Dict("health", c.Health.ToDict())
}

func (c *Config) setDefaults() {
	c.Bot.setDefaults()
	c.Log.setDefaults()
	c.Spotify.setDefaults()
	c.Pipeline.setDefaults()
	c.Health.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Bot.validate(); nil != err {
		return fmt.Errorf("bot config validation failed: %v", err)
	}

	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.Spotify.validate(); nil != err {
		return fmt.Errorf("spotify config validation failed: %v", err)
	}

	if err := c.Pipeline.validate(); nil != err {
		return fmt.Errorf("pipeline config validation failed: %v", err)
	}

	if err := c.Health.validate(); nil != err {
		return fmt.Errorf("health config validation failed: %v", err)
	}

	return nil
}

type Bot struct {
	APIURL       string `yaml:"api_url"`
	Token        string `yaml:"-"`
	DownloadsDir string `yaml:"downloads_dir"`
}

func (c *Bot) ToDict() *zerolog.Event {
	return zerolog.
		Dict().
		Str("api_url", c.APIURL).
		Str("token", redact.String(c.Token)).
		Str("downloads_dir", c.DownloadsDir)
}

func (c *Bot) setDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}

	if c.DownloadsDir == "" {
		c.DownloadsDir = "./downloads"
	}
}

func (c *Bot) validate() error {
	if c.Token == "" {
		return errors.New("make sure the BOT_TOKEN environment variable is set")
	}

	if i, err := os.Stat(c.DownloadsDir); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return errors.New("downloads_dir does not exist")
		}

		return fmt.Errorf("failed to stat downloads_dir: %v", err)
	} else if !i.IsDir() {
		return errors.New("downloads_dir must be a directory")
	}

	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "pretty"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty"}, c.Format) {
		return fmt.Errorf("format must be 'json' or 'pretty', got: %s", c.Format)
	}

	return nil
}

type Spotify struct {
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
}

func (c *Spotify) ToDict() *zerolog.Event {
	return zerolog.
		Dict().
		Str("client_id", redact.String(c.ClientID)).
		Str("client_secret", redact.String(c.ClientSecret))
}

func (c *Spotify) setDefaults() {}

func (c *Spotify) validate() error {
	if c.ClientID == "" {
		return errors.New("make sure the SPOTIFY_CLIENT_ID environment variable is set")
	}

	if c.ClientSecret == "" {
		return errors.New("make sure the SPOTIFY_CLIENT_SECRET environment variable is set")
	}

	return nil
}

type Pipeline struct {
	Concurrency  int      `yaml:"concurrency"`
	TrackTimeout Duration `yaml:"track_timeout"`
	BatchTimeout Duration `yaml:"batch_timeout"`
	MaxBatchSize int      `yaml:"max_batch_size"`
}

func (c *Pipeline) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("concurrency", c.Concurrency).
		Str("track_timeout", c.TrackTimeout.String()).
		Str("batch_timeout", c.BatchTimeout.String()).
		Int("max_batch_size", c.MaxBatchSize)
}

func (c *Pipeline) setDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = 3
	}

	if c.TrackTimeout.Duration == 0 {
		c.TrackTimeout.Duration = 60 * time.Second
	}

	// BatchTimeout defaults to 0, meaning no batch-wide deadline.

	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 50
	}
}

func (c *Pipeline) validate() error {
	if c.Concurrency < 1 {
		return errors.New("concurrency must be greater than 0")
	}

	if c.TrackTimeout.Duration < 0 {
		return errors.New("track_timeout must be greater than 0")
	}

	if c.BatchTimeout.Duration < 0 {
		return errors.New("batch_timeout must not be negative")
	}

	if c.MaxBatchSize < 0 {
		return errors.New("max_batch_size must not be negative")
	}

	return nil
}

type Health struct {
	Addr string `yaml:"addr"`
}

func (c *Health) ToDict() *zerolog.Event {
	return zerolog.
		Dict().
		Str("addr", c.Addr)
}

func (c *Health) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":5000"
	}
}

func (c *Health) validate() error {
	return nil
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	d.Duration = parsed

	return nil
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(lo.Ternary(len(filename) > 0, filename, "config.yaml"))
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %s: %v", filename, err)
	}

	var conf Config
	if err := yaml.Unmarshal(data, &conf); nil != err {
		return nil, fmt.Errorf("failed to parse config file %s: %v", filename, err)
	}

	conf.Bot.Token = os.Getenv("BOT_TOKEN")
	conf.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	conf.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return &conf, nil
}
