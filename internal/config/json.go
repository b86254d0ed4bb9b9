package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/chatmedia/internal/flagx"
	"github.com/dmitrijs2005/chatmedia/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	HomeserverURL         string         `json:"homeserver_url"`
	CacheDir              string         `json:"cache_dir"`
	TempDir               string         `json:"temp_dir"`
	ThumbnailWidth        int            `json:"thumbnail_width"`
	ThumbnailHeight       int            `json:"thumbnail_height"`
	ThumbnailCacheEntries int            `json:"thumbnail_cache_entries"`
	TransferTimeout       timex.Duration `json:"transfer_timeout"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; if none is
// given, nothing is loaded. Zero-valued JSON fields leave the existing
// Config value untouched.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.HomeserverURL != "" {
		cfg.HomeserverURL = jc.HomeserverURL
	}
	if jc.CacheDir != "" {
		cfg.CacheDir = jc.CacheDir
	}
	if jc.TempDir != "" {
		cfg.TempDir = jc.TempDir
	}
	if jc.ThumbnailWidth > 0 {
		cfg.ThumbnailWidth = jc.ThumbnailWidth
	}
	if jc.ThumbnailHeight > 0 {
		cfg.ThumbnailHeight = jc.ThumbnailHeight
	}
	if jc.ThumbnailCacheEntries > 0 {
		cfg.ThumbnailCacheEntries = jc.ThumbnailCacheEntries
	}
	if jc.TransferTimeout.Duration > 0 {
		cfg.TransferTimeout = time.Duration(jc.TransferTimeout.Duration)
	}
	if jc.S3RootUser != "" {
		cfg.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		cfg.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
}
