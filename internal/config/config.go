// Package config loads the settings shared by all commands.
//
// Precedence, highest first: command-line flags, environment variables
// (KODA_* and the conventional OPENAI_* names), the config.toml file, and
// the defaults of NewDefaultConfig. A .env file may seed the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shivanshkc/koda/pkg/models"
	"github.com/shivanshkc/koda/pkg/render"
	"github.com/shivanshkc/koda/pkg/think"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "KODA"

// DefaultEnvFile is loaded when present and no other env file is requested.
const DefaultEnvFile = ".env"

// Transports understood by the commands.
const (
	TransportHTTP = "http"
	TransportSDK  = "sdk"
)

// Config holds the resolved settings.
type Config struct {
	BaseURL    string   `mapstructure:"base_url"`
	APIKey     string   `mapstructure:"api_key"`
	Model      string   `mapstructure:"model"`
	Models     []string `mapstructure:"models"`
	Transport  string   `mapstructure:"transport"`
	Language   string   `mapstructure:"language"`
	Converter  string   `mapstructure:"converter"`
	Viewer     string   `mapstructure:"viewer"`
	Stylesheet string   `mapstructure:"stylesheet"`
	Markers    Markers  `mapstructure:"markers"`
}

// Markers delimit the thinking segment of a response.
type Markers struct {
	Open  string `mapstructure:"open"`
	Close string `mapstructure:"close"`
}

// NewDefaultConfig returns the built-in settings. The base URL has no default.
func NewDefaultConfig() *Config {
	return &Config{
		APIKey:    "dummy",
		Models:    append([]string(nil), models.Default...),
		Transport: TransportHTTP,
		Language:  "English",
		Converter: render.ConverterAuto,
		Viewer:    render.DefaultViewer,
		Markers: Markers{
			Open:  think.DefaultOpenMarker,
			Close: think.DefaultCloseMarker,
		},
	}
}

// Options locate the configuration sources.
type Options struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string
	// ConfigDir is searched for config.toml when ConfigFile is empty.
	// Empty means the koda directory under the user configuration directory.
	ConfigDir string
}

// LoadEnvFile loads a dotenv file into the process environment without overriding
// variables that are already set. An empty path means DefaultEnvFile, which may be missing.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// InitViper creates a viper instance with defaults, the config file and the environment wired in.
// Flags are bound by the caller with BindPFlag.
func InitViper(opts Options) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		dir := opts.ConfigDir
		if dir == "" {
			if userDir, err := os.UserConfigDir(); err == nil {
				dir = filepath.Join(userDir, "koda")
			}
		}
		if dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Without an explicit file, running with defaults is fine.
		if opts.ConfigFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// KODA_BASE_URL, KODA_MARKERS_OPEN, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The names used by OpenAI clients, below the KODA_ ones.
	_ = v.BindEnv("api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("base_url", "OPENAI_BASE_URL")

	return v, nil
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// setViperDefaults registers NewDefaultConfig in viper using dotted keys.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("model", d.Model)
	v.SetDefault("models", d.Models)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("language", d.Language)
	v.SetDefault("converter", d.Converter)
	v.SetDefault("viewer", d.Viewer)
	v.SetDefault("stylesheet", d.Stylesheet)
	v.SetDefault("markers.open", d.Markers.Open)
	v.SetDefault("markers.close", d.Markers.Close)
}
