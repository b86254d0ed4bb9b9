// Package config handles configuration for the media core, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the media fetcher.
//
// Fields:
//   - HomeserverURL: base URL of the media repository.
//   - CacheDir / TempDir: durable cache and ephemeral export directories.
//   - ThumbnailWidth / ThumbnailHeight: target bounds for thumbnails.
//   - ThumbnailCacheEntries: size of the decrypted-thumbnail memory cache.
//   - TransferTimeout: per-download deadline handed to the transfer backend.
//   - S3*: object storage settings for the s3:// transfer backend.
type Config struct {
	HomeserverURL         string
	CacheDir              string
	TempDir               string
	ThumbnailWidth        int
	ThumbnailHeight       int
	ThumbnailCacheEntries int
	TransferTimeout       time.Duration
	S3RootUser            string
	S3RootPassword        string
	S3Region              string
	S3BaseEndpoint        string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HomeserverURL = "http://127.0.0.1:8008"
	c.CacheDir = "/tmp/chatmedia/cache"
	c.TempDir = "/tmp/chatmedia/export"
	c.ThumbnailWidth = 320
	c.ThumbnailHeight = 240
	c.ThumbnailCacheEntries = 64
	c.TransferTimeout = 30 * time.Second
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
