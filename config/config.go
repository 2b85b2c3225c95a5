/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Built-in defaults
  2. YAML file (optional, -config flag)
  3. Environment variables (INCENTIVE_*)
  4. Command-line flags, applied by cmd/server

YAML SCHEMA:
  server:
    port: 8080
  database:
    path: incentives.db
  log:
    level: info      # debug, info, warn, error
    format: text     # text, json
  engine:
    timezone: Asia/Kolkata
    double_target_bonus: "5000"
    country_synonyms:
      uae: [united arab emirates, emirates]
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/normalize"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port      int
	DBPath    string
	LogLevel  string
	LogFormat string

	Timezone          string
	DoubleTargetBonus decimal.Decimal
	CountrySynonyms   map[string][]string
}

// configFile mirrors the YAML schema.
type configFile struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Engine struct {
		Timezone          string              `yaml:"timezone"`
		DoubleTargetBonus string              `yaml:"double_target_bonus"`
		CountrySynonyms   map[string][]string `yaml:"country_synonyms"`
	} `yaml:"engine"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:              8080,
		DBPath:            "incentives.db",
		LogLevel:          "info",
		LogFormat:         "text",
		Timezone:          "UTC",
		DoubleTargetBonus: incentive.DefaultDoubleTargetBonus,
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config %s: %w", path, err)
		}
		defer f.Close()
		if err := cfg.read(f); err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) read(r io.Reader) error {
	var file configFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if file.Server.Port != 0 {
		c.Port = file.Server.Port
	}
	if file.Database.Path != "" {
		c.DBPath = file.Database.Path
	}
	if file.Log.Level != "" {
		c.LogLevel = file.Log.Level
	}
	if file.Log.Format != "" {
		c.LogFormat = file.Log.Format
	}
	if file.Engine.Timezone != "" {
		c.Timezone = file.Engine.Timezone
	}
	if file.Engine.DoubleTargetBonus != "" {
		d, err := decimal.NewFromString(file.Engine.DoubleTargetBonus)
		if err != nil {
			return fmt.Errorf("engine.double_target_bonus: %w", err)
		}
		c.DoubleTargetBonus = d
	}
	if len(file.Engine.CountrySynonyms) > 0 {
		c.CountrySynonyms = file.Engine.CountrySynonyms
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("INCENTIVE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INCENTIVE_PORT: %w", err)
		}
		c.Port = port
	}
	if v := getenv("INCENTIVE_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("INCENTIVE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("INCENTIVE_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	return nil
}

// Engine builds the incentive engine this configuration describes.
func (c Config) Engine() (incentive.Engine, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return incentive.Engine{}, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	table := normalize.DefaultCountryTable()
	table.Add(c.CountrySynonyms)

	return incentive.NewEngine(
		incentive.WithCalendar(incentive.NewCalendar(loc)),
		incentive.WithNormalizer(normalize.New(table)),
		incentive.WithDoubleTargetBonus(c.DoubleTargetBonus),
	), nil
}

// Logger builds the process logger.
func (c Config) Logger() (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
