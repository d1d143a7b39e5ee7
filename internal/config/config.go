package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		// user -> API key; empty disables auth (local dev only)
		APIKeys       map[string]string `yaml:"apiKeys"`
		RatePerSecond float64           `yaml:"ratePerSecond"`
		RateBurst     int               `yaml:"rateBurst"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`

	AI struct {
		Provider          string  `yaml:"provider"` // gemini | openai
		Model             string  `yaml:"model"`
		BaseURL           string  `yaml:"baseURL"`
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
		// never put the key in config.yaml; it comes from GEMINI_API_KEY / OPENAI_API_KEY
		APIKey string `yaml:"-"`
	} `yaml:"ai"`

	Report struct {
		ImageConcurrency int           `yaml:"imageConcurrency"`
		ExtractDelay     time.Duration `yaml:"extractDelay"`
		Timeout          time.Duration `yaml:"timeout"`
		MaxUploadBytes   int64         `yaml:"maxUploadBytes"`
	} `yaml:"report"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | memory
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool          `yaml:"enabled"`
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		URLExpiry  time.Duration `yaml:"urlExpiry"`
	} `yaml:"minio"`
}

// Load baca file config.yaml, lalu override dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies env overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	switch c.AI.Provider {
	case "openai":
		c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.Report.ImageConcurrency <= 0 {
		c.Report.ImageConcurrency = 2
	}
	if c.Report.MaxUploadBytes <= 0 {
		c.Report.MaxUploadBytes = 32 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config: unknown ai.provider %q (gemini, openai)", c.AI.Provider)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown database.driver %q (mysql, postgres, memory)", c.Database.Driver)
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return fmt.Errorf("config: minio.endpoint and minio.bucketName are required when minio is enabled")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
