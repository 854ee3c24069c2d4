package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "vimhelp.yaml"

type Config struct {
	SourceDir string `yaml:"source_dir"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	Workers   int    `yaml:"workers"`
	TagsFile  bool   `yaml:"tags_file"`
	Manifest  bool   `yaml:"manifest"`

	// Format and text options, e.g. vimhelp_tag_prefix or text_width.
	Options map[string]any `yaml:"options"`

	Server Server `yaml:"server"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Server configures the HTTP service.
type Server struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SourceDir: "docs",
		OutputDir: "doc",
		Format:    "vimhelp",
		Workers:   4,
		TagsFile:  true,
		Manifest:  true,
		Options:   map[string]any{},
		Server: Server{
			Port:           "8090",
			WorkerCount:    4,
			MaxQueueSize:   100,
			MaxUploadBytes: 52428800, // 50MB
			JobTTL:         1 * time.Hour,
		},
		PDFFallbackPdftotext: true,
	}
}

// Load builds the configuration from defaults, an optional .env file, the
// YAML file at path and VIMHELP_* environment variables, in that order.
// An empty path reads DefaultFile if present; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	cfg.clamp()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.SourceDir = envOr("VIMHELP_SOURCE_DIR", cfg.SourceDir)
	cfg.OutputDir = envOr("VIMHELP_OUTPUT_DIR", cfg.OutputDir)
	cfg.Format = envOr("VIMHELP_FORMAT", cfg.Format)
	cfg.Workers = envInt("VIMHELP_WORKERS", cfg.Workers)
	cfg.TagsFile = envBool("VIMHELP_TAGS_FILE", cfg.TagsFile)
	cfg.Manifest = envBool("VIMHELP_MANIFEST", cfg.Manifest)

	cfg.Server.Port = envOr("VIMHELP_PORT", cfg.Server.Port)
	cfg.Server.APIKey = envOr("VIMHELP_API_KEY", cfg.Server.APIKey)
	cfg.Server.WorkerCount = envInt("VIMHELP_WORKER_COUNT", cfg.Server.WorkerCount)
	cfg.Server.MaxQueueSize = envInt("VIMHELP_MAX_QUEUE_SIZE", cfg.Server.MaxQueueSize)
	cfg.Server.MaxUploadBytes = envInt64("VIMHELP_MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)
	cfg.Server.JobTTL = envDuration("VIMHELP_JOB_TTL", cfg.Server.JobTTL)

	cfg.PDFFallbackPdftotext = envBool("VIMHELP_PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
}

func (c *Config) clamp() {
	def := Default()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Server.WorkerCount <= 0 {
		c.Server.WorkerCount = def.Server.WorkerCount
	}
	if c.Server.MaxQueueSize <= 0 {
		c.Server.MaxQueueSize = def.Server.MaxQueueSize
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = def.Server.MaxUploadBytes
	}
	if c.Server.JobTTL <= 0 {
		c.Server.JobTTL = def.Server.JobTTL
	}
	if c.Options == nil {
		c.Options = map[string]any{}
	}
}

// Validate checks the settings a build needs. Format names are checked
// against the registry by the builder.
func (c Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Format == "" {
		return fmt.Errorf("format is required")
	}
	if st, err := os.Stat(c.SourceDir); err != nil {
		return fmt.Errorf("source_dir: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("source_dir %s is not a directory", c.SourceDir)
	}
	src, _ := filepath.Abs(c.SourceDir)
	out, _ := filepath.Abs(c.OutputDir)
	if src == out {
		return fmt.Errorf("output_dir must differ from source_dir")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
