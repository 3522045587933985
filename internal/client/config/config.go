package config

import "time"

// Config holds runtime settings for the drive CLI.
//
// The S3 fields point at the bucket holding blob content; MetadataDSN points
// at the Postgres database holding FileRecord rows. Either AccessToken (a JWT
// whose subject is the user id) or OwnerID must be set for owner-scoped
// operations.
type Config struct {
	MetadataDSN string

	S3Endpoint   string
	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3PublicBase string

	AccessToken string
	OwnerID     string

	DownloadDir    string
	LocalStorePath string
	MaxUploadSize  int64

	RemoveDelay    time.Duration
	RetryDelay     time.Duration
	StaggerDelay   time.Duration
	MaxAttempts    int
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.MetadataDSN = "postgres://localhost:5432/drive"
	c.S3Endpoint = "http://127.0.0.1:9000"
	c.S3Region = "us-east-1"
	c.S3Bucket = "drive"
	c.DownloadDir = "downloads"
	c.LocalStorePath = "drive-state.db"
	c.MaxUploadSize = 50 * 1024 * 1024
	c.RemoveDelay = 3 * time.Second
	c.RetryDelay = 2 * time.Second
	c.StaggerDelay = 500 * time.Millisecond
	c.MaxAttempts = 3
	c.RequestTimeout = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
