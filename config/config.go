package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Auth         AuthConfig         `yaml:"auth"`
	Users        []User             `yaml:"users"`
	Storage      StorageConfig      `yaml:"storage"`
	Drive        DriveConfig        `yaml:"drive"`
	Minio        MinioConfig        `yaml:"minio"`
	Blob         BlobConfig         `yaml:"blob"`
	Distribution DistributionConfig `yaml:"distribution"`
	SMS          SMSConfig          `yaml:"sms"`
	Explorer     ExplorerConfig     `yaml:"explorer"`
	Runs         RunsConfig         `yaml:"runs"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type ServerConfig struct {
	Port         int `yaml:"port"`
	MaxUploadMB  int `yaml:"max_upload_mb"`
	RateLimit    int `yaml:"rate_limit"` // requests per minute per client
	RateBurst    int `yaml:"rate_burst"`
	ShutdownSecs int `yaml:"shutdown_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// StorageConfig selects the remote store backend and its retry policy.
type StorageConfig struct {
	Backend       string        `yaml:"backend"` // drive, minio, blob
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
	SharedDriveID   string `yaml:"shared_drive_id"`
	Endpoint        string `yaml:"endpoint"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
	Public     bool   `yaml:"public"`
}

type BlobConfig struct {
	URL     string `yaml:"url"`
	BaseURL string `yaml:"base_url"`
}

type DistributionConfig struct {
	FilenamePrefix string `yaml:"filename_prefix"`
	Period         string `yaml:"period"`
	ParentID       string `yaml:"parent_id"` // container holding the period folders, "" for root
}

type SMSConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"`
	AuthToken   string        `yaml:"auth_token"`
	Sender      string        `yaml:"sender"`
	Service     string        `yaml:"service"`
	TemplateID  string        `yaml:"template_id"`
	ShortenURL  string        `yaml:"shorten_url"`
	CountryCode string        `yaml:"country_code"`
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	Template    string        `yaml:"template"`
}

type ExplorerConfig struct {
	PageSize    int `yaml:"page_size"`
	MaxPageSize int `yaml:"max_page_size"`
}

type RunsConfig struct {
	MaxRuns int `yaml:"max_runs"` // 0 = unlimited
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

var GlobalConfig *Config

// Load reads the YAML file at path. ${VAR} references are expanded from the
// environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes raw YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 64
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 100
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 20
	}
	if c.Server.ShutdownSecs == 0 {
		c.Server.ShutdownSecs = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "drive"
	}
	if c.Storage.RetryAttempts == 0 {
		c.Storage.RetryAttempts = 3
	}
	if c.Storage.RetryDelay == 0 {
		c.Storage.RetryDelay = 5 * time.Second
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Distribution.FilenamePrefix == "" {
		c.Distribution.FilenamePrefix = "Payslip"
	}
	if c.SMS.CountryCode == "" {
		c.SMS.CountryCode = "91"
	}
	if c.SMS.Interval == 0 {
		c.SMS.Interval = 250 * time.Millisecond
	}
	if c.SMS.Timeout == 0 {
		c.SMS.Timeout = 30 * time.Second
	}
	if c.Explorer.PageSize == 0 {
		c.Explorer.PageSize = 25
	}
	if c.Explorer.MaxPageSize == 0 {
		c.Explorer.MaxPageSize = 200
	}
	if c.Runs.MaxRuns == 0 {
		c.Runs.MaxRuns = 50
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "payslip_sender"
	}
}

// Validate checks the settings the selected backend cannot run without.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "drive":
		if c.Drive.SharedDriveID == "" {
			return fmt.Errorf("drive.shared_drive_id is required for the drive backend")
		}
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("minio.endpoint and minio.bucket are required for the minio backend")
		}
	case "blob":
		if c.Blob.URL == "" {
			return fmt.Errorf("blob.url is required for the blob backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.RetryAttempts < 1 {
		return fmt.Errorf("storage.retry_attempts must be at least 1")
	}
	return nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
