package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RIFTWATCH_"

// TimelineOff disables the match timeline store
const TimelineOff = "off"

// Config holds every runtime parameter of the engine and its surfaces
type Config struct {
	Env string `yaml:"env" validate:"required"`

	// Live client
	LiveClientURL string        `yaml:"live_client_url" validate:"required,url"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	SnapshotDir   string        `yaml:"snapshot_dir"`

	// Loops
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	ViewInterval time.Duration `yaml:"view_interval" validate:"gt=0"`
	Views        []string      `yaml:"views" validate:"min=1,unique,dive,oneof=order_stats chaos_stats gold_diff win_probability team_summary"`

	// Model
	Temperature float64 `yaml:"temperature" validate:"gt=0"`
	ScalerPath  string  `yaml:"scaler_path"`
	ModelPath   string  `yaml:"model_path"`
	AlwaysInfer bool    `yaml:"always_infer"`

	// Presentation
	ListenAddr     string   `yaml:"listen_addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	TimelinePath   string   `yaml:"timeline_path"`
	RedisAddr      string   `yaml:"redis_addr"`
	RedisChannel   string   `yaml:"redis_channel" validate:"required_with=RedisAddr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Env:            "local",
		LiveClientURL:  "https://127.0.0.1:2999",
		FetchTimeout:   2 * time.Second,
		PollInterval:   1 * time.Second,
		ViewInterval:   15 * time.Second,
		Views:          []string{"order_stats", "chaos_stats", "gold_diff", "win_probability", "team_summary"},
		Temperature:    1.5,
		ScalerPath:     filepath.Join("models", "scaler.json"),
		ModelPath:      filepath.Join("models", "model.json"),
		ListenAddr:     ":8000",
		AllowedOrigins: []string{"http://localhost:3000"},
		RedisChannel:   "riftwatch:snapshots",
	}
}

// Load builds the configuration: defaults, then a .env file if one is
// found, then the YAML file at path (if non-empty), then RIFTWATCH_*
// environment variables, then overrides. The result is validated.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	loadDotEnv()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv tries the usual locations; existing variables are never
// overwritten.
func loadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	setString("ENV", &c.Env)
	setString("LIVE_CLIENT_URL", &c.LiveClientURL)
	setString("SNAPSHOT_DIR", &c.SnapshotDir)
	setString("SCALER_PATH", &c.ScalerPath)
	setString("MODEL_PATH", &c.ModelPath)
	setString("LISTEN_ADDR", &c.ListenAddr)
	setString("TIMELINE_PATH", &c.TimelinePath)
	setString("REDIS_ADDR", &c.RedisAddr)
	setString("REDIS_CHANNEL", &c.RedisChannel)
	setList("VIEWS", &c.Views)
	setList("ALLOWED_ORIGINS", &c.AllowedOrigins)

	if err := setDuration("FETCH_TIMEOUT", &c.FetchTimeout); err != nil {
		return err
	}
	if err := setDuration("POLL_INTERVAL", &c.PollInterval); err != nil {
		return err
	}
	if err := setDuration("VIEW_INTERVAL", &c.ViewInterval); err != nil {
		return err
	}
	if err := setFloat("TEMPERATURE", &c.Temperature); err != nil {
		return err
	}
	return setBool("ALWAYS_INFER", &c.AlwaysInfer)
}

var validate = validator.New()

// Validate checks the configuration against its field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TimelineFile resolves where the match timeline lives. An empty result
// means the timeline is disabled.
func (c *Config) TimelineFile() (string, error) {
	switch c.TimelinePath {
	case TimelineOff:
		return "", nil
	case "":
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to get config dir: %w", err)
		}
		return filepath.Join(configDir, "Riftwatch", "timeline.db"), nil
	default:
		return c.TimelinePath, nil
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setList(key string, dst *[]string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*dst = out
}

func setDuration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = d
	return nil
}

func setFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = f
	return nil
}

func setBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = b
	return nil
}
