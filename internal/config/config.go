package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings. StatePath, Cache.Dir and Source.Dir default to
	// subpaths of WorkDir when left empty.
	WorkDir   string `yaml:"work_dir"`
	TempDir   string `yaml:"temp_dir"`
	OutputDir string `yaml:"output_dir"`
	StatePath string `yaml:"state_path"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Segment cache settings
	Cache CacheConfig `yaml:"cache"`

	// Source fetching settings
	Source SourceConfig `yaml:"source"`

	// Text overlay settings
	Overlay OverlayConfig `yaml:"overlay"`

	// Queue settings
	Queue QueueConfig `yaml:"queue"`

	// Server settings
	Server ServerConfig `yaml:"server"`

	// Upload settings
	Upload UploadConfig `yaml:"upload"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type CacheConfig struct {
	Dir         string `yaml:"dir"`
	MaxAgeHours int    `yaml:"max_age_hours"`
	MaxBytes    int64  `yaml:"max_bytes"`
}

type SourceConfig struct {
	Dir          string   `yaml:"dir"`
	YtDlpPath    string   `yaml:"ytdlp_path"`
	AltEndpoints []string `yaml:"alt_endpoints"`
	ForceClient  bool     `yaml:"force_client"`
}

type OverlayConfig struct {
	FontSize    int    `yaml:"font_size"`
	FontColor   string `yaml:"font_color"`
	RectColor   string `yaml:"rect_color"`
	RectPadding int    `yaml:"rect_padding"`
	RectRadius  int    `yaml:"rect_radius"`
	Align       string `yaml:"align"`
}

type QueueConfig struct {
	Workers         int `yaml:"workers"`
	GraceDelaySecs  int `yaml:"grace_delay_secs"`
	LongSegmentSecs int `yaml:"long_segment_secs"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	RemoteURL string `yaml:"remote_url"`
}

type UploadConfig struct {
	TitleTemplate string `yaml:"title_template"`
	Description   string `yaml:"description"`
	Tags          string `yaml:"tags"`
	Privacy       string `yaml:"privacy"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		cfg.deriveWorkPaths()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.deriveWorkPaths()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.deriveWorkPaths()
	return cfg, nil
}

// deriveWorkPaths fills the storage paths left unset from WorkDir, so a
// config that only relocates work_dir moves everything with it.
func (c *Config) deriveWorkPaths() {
	if c.WorkDir == "" {
		c.WorkDir = "./work"
	}
	if c.StatePath == "" {
		c.StatePath = filepath.Join(c.WorkDir, "state.json")
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(c.WorkDir, "cache")
	}
	if c.Source.Dir == "" {
		c.Source.Dir = filepath.Join(c.WorkDir, "sources")
	}
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:   "./work",
		TempDir:   "./temp",
		OutputDir: "./output",
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "fast",
			CRF:        23,
		},
		Cache: CacheConfig{
			MaxAgeHours: 24,
			MaxBytes:    2 << 30,
		},
		Source: SourceConfig{
			YtDlpPath: "yt-dlp",
		},
		Overlay: OverlayConfig{
			FontSize:    40,
			FontColor:   "#FFFFFF",
			RectColor:   "rgba(0,0,0,0.6)",
			RectPadding: 20,
			RectRadius:  10,
			Align:       "center",
		},
		Queue: QueueConfig{
			Workers:         3,
			GraceDelaySecs:  30,
			LongSegmentSecs: 180,
		},
		Server: ServerConfig{
			Port: 3000,
		},
		Upload: UploadConfig{
			Privacy: "private",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".shortsmaker", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
