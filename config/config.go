// Package config loads the service and CLI settings: defaults first, then an
// optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Assessor AssessorConfig `yaml:"assessor"`
	Intake   IntakeConfig   `yaml:"intake"`
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	AllowOrigins string `yaml:"allow_origins"`
	UploadDir    string `yaml:"upload_dir"`
	// PublicURL prefixes stored media links; empty means derive from the request.
	PublicURL     string `yaml:"public_url"`
	MaxMediaBytes int64  `yaml:"max_media_bytes"`
	BodyLimit     int    `yaml:"body_limit"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "mongo" or "memory".
	Driver string      `yaml:"driver"`
	Mongo  MongoConfig `yaml:"mongo"`
}

// MongoConfig mirrors the MONGO_* environment the API has always read.
type MongoConfig struct {
	// Mode is auto, local or remote.
	Mode           string        `yaml:"mode"`
	URI            string        `yaml:"uri"`
	URILocal       string        `yaml:"uri_local"`
	URIRemote      string        `yaml:"uri_remote"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Debug          bool          `yaml:"debug"`
}

// GeocoderConfig configures the Nominatim client.
type GeocoderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	UserAgent    string        `yaml:"user_agent"`
	ViewBox      string        `yaml:"viewbox"`
	CountryCodes string        `yaml:"country_codes"`
	Language     string        `yaml:"language"`
	MinInterval  time.Duration `yaml:"min_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// AssessorConfig selects and configures the priority model.
type AssessorConfig struct {
	// Provider is ollama, gemini or none.
	Provider string       `yaml:"provider"`
	Region   string       `yaml:"region"`
	Ollama   OllamaConfig `yaml:"ollama"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

type OllamaConfig struct {
	BaseURL     string        `yaml:"base_url"`
	TextModel   string        `yaml:"text_model"`
	VisionModel string        `yaml:"vision_model"`
	Timeout     time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// IntakeConfig holds the report form settings.
type IntakeConfig struct {
	Category           string        `yaml:"category"`
	CenterLat          float64       `yaml:"center_lat"`
	CenterLon          float64       `yaml:"center_lon"`
	OutOfAreaThreshold float64       `yaml:"out_of_area_threshold"`
	TextDelay          time.Duration `yaml:"text_delay"`
	MediaDelay         time.Duration `yaml:"media_delay"`
	MinDescription     int           `yaml:"min_description"`
	MaxMediaBytes      int64         `yaml:"max_media_bytes"`
	HandoffNumber      string        `yaml:"handoff_number"`
}

// Center is the default map centre.
func (c IntakeConfig) Center() geo.Coordinates {
	return geo.Coordinates{Latitude: c.CenterLat, Longitude: c.CenterLon}
}

// APIConfig is used by the CLI commands that talk to a running server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the Mangaluru deployment defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":3005",
			AllowOrigins:  "http://localhost:3000, http://localhost:3001, http://localhost:5173",
			UploadDir:     "uploads",
			MaxMediaBytes: 50 << 20,
			BodyLimit:     55 << 20,
		},
		Store: StoreConfig{
			Driver: "mongo",
			Mongo: MongoConfig{
				Mode:           "auto",
				URILocal:       "mongodb://localhost:27017",
				Database:       "karunya_kripa",
				ConnectTimeout: 15 * time.Second,
			},
		},
		Geocoder: GeocoderConfig{
			BaseURL:      "https://nominatim.openstreetmap.org",
			UserAgent:    "KarunyaKripa/1.0",
			ViewBox:      "74.7,12.8,75.0,13.1",
			CountryCodes: "in",
			Language:     "en",
			MinInterval:  time.Second,
			Timeout:      10 * time.Second,
		},
		Assessor: AssessorConfig{
			Provider: "ollama",
			Region:   "Mangalore, India",
			Ollama: OllamaConfig{
				BaseURL:     "http://localhost:11434",
				TextModel:   "granite3.1-dense:2b",
				VisionModel: "llava",
				Timeout:     60 * time.Second,
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
		},
		Intake: IntakeConfig{
			Category:           string(models.ReportEmergency),
			CenterLat:          12.9141,
			CenterLon:          74.8560,
			OutOfAreaThreshold: 0.5,
			TextDelay:          time.Second,
			MediaDelay:         100 * time.Millisecond,
			MinDescription:     15,
			MaxMediaBytes:      50 << 20,
			HandoffNumber:      "919845255777",
		},
		API: APIConfig{
			BaseURL: "http://localhost:3005",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the process environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file over the defaults without consulting the
// environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile writes c as YAML, creating the parent directory.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.UploadDir == "" {
		return fmt.Errorf("server.upload_dir is required")
	}
	if c.Server.MaxMediaBytes <= 0 {
		return fmt.Errorf("server.max_media_bytes must be positive")
	}
	if int64(c.Server.BodyLimit) < c.Server.MaxMediaBytes {
		return fmt.Errorf("server.body_limit must be at least server.max_media_bytes")
	}

	switch c.Store.Driver {
	case "mongo":
		switch c.Store.Mongo.Mode {
		case "auto", "local", "remote":
		default:
			return fmt.Errorf("store.mongo.mode must be auto, local or remote, got %q", c.Store.Mongo.Mode)
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database is required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver must be mongo or memory, got %q", c.Store.Driver)
	}

	if c.Geocoder.ViewBox != "" {
		if _, err := geo.ParseBBox(c.Geocoder.ViewBox); err != nil {
			return fmt.Errorf("geocoder.viewbox: %w", err)
		}
	}
	if c.Geocoder.MinInterval < 0 {
		return fmt.Errorf("geocoder.min_interval must not be negative")
	}

	switch c.Assessor.Provider {
	case "ollama", "none":
	case "gemini":
		if c.Assessor.Gemini.APIKey == "" {
			return fmt.Errorf("assessor.gemini.api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("assessor.provider must be ollama, gemini or none, got %q", c.Assessor.Provider)
	}

	if !models.ReportType(c.Intake.Category).Valid() {
		return fmt.Errorf("intake.category %q is not a report type", c.Intake.Category)
	}
	if !c.Intake.Center().Valid() {
		return fmt.Errorf("intake centre %s is out of range", c.Intake.Center())
	}
	if c.Intake.OutOfAreaThreshold <= 0 {
		return fmt.Errorf("intake.out_of_area_threshold must be positive")
	}
	if c.Intake.TextDelay <= 0 || c.Intake.MediaDelay <= 0 {
		return fmt.Errorf("intake delays must be positive")
	}
	if c.Intake.MaxMediaBytes <= 0 {
		return fmt.Errorf("intake.max_media_bytes must be positive")
	}
	if c.Intake.HandoffNumber == "" {
		return fmt.Errorf("intake.handoff_number is required")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is normally
// os.LookupEnv. Blank values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		var s string
		str(&s, key)
		if d, err := time.ParseDuration(s); err == nil {
			*dst = d
		}
	}
	boolean := func(dst *bool, key string) {
		var s string
		str(&s, key)
		if b, err := strconv.ParseBool(s); err == nil {
			*dst = b
		}
	}

	str(&c.Server.Addr, "KK_ADDR")
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		c.Server.Addr = ":" + strings.TrimSpace(v)
	}
	str(&c.Server.AllowOrigins, "KK_ALLOW_ORIGINS")
	str(&c.Server.UploadDir, "KK_UPLOAD_DIR", "UPLOAD_DIR")
	str(&c.Server.PublicURL, "KK_PUBLIC_URL")

	str(&c.Store.Driver, "KK_STORE_DRIVER")
	str(&c.Store.Mongo.Mode, "MONGO_MODE")
	c.Store.Mongo.Mode = strings.ToLower(c.Store.Mongo.Mode)
	str(&c.Store.Mongo.URI, "MONGO_URI")
	str(&c.Store.Mongo.URILocal, "MONGO_URI_LOCAL")
	str(&c.Store.Mongo.URIRemote, "MONGO_URI_REMOTE")
	str(&c.Store.Mongo.Database, "MONGO_DB")
	boolean(&c.Store.Mongo.Debug, "MONGO_DEBUG")

	str(&c.Geocoder.BaseURL, "KK_NOMINATIM_URL")
	str(&c.Geocoder.UserAgent, "KK_NOMINATIM_USER_AGENT")
	dur(&c.Geocoder.MinInterval, "KK_NOMINATIM_MIN_INTERVAL")

	str(&c.Assessor.Provider, "KK_ASSESSOR")
	str(&c.Assessor.Ollama.BaseURL, "KK_OLLAMA_URL", "OLLAMA_HOST")
	str(&c.Assessor.Ollama.TextModel, "KK_OLLAMA_TEXT_MODEL")
	str(&c.Assessor.Ollama.VisionModel, "KK_OLLAMA_VISION_MODEL")
	str(&c.Assessor.Gemini.APIKey, "KK_GEMINI_API_KEY", "GEMINI_API_KEY")
	str(&c.Assessor.Gemini.Model, "KK_GEMINI_MODEL")

	str(&c.Intake.HandoffNumber, "KK_HANDOFF_NUMBER")

	str(&c.API.BaseURL, "KK_API_URL")

	str(&c.Log.Level, "KK_LOG_LEVEL")
	boolean(&c.Log.Development, "KK_LOG_DEV")
}
