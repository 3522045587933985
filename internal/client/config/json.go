package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/chafidzadlan/anotherfile/internal/flagx"
	"github.com/chafidzadlan/anotherfile/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, non-zero values are copied into
// the runtime Config.
type JsonConfig struct {
	MetadataDSN string `json:"metadata_dsn"`

	S3Endpoint   string `json:"s3_endpoint"`
	S3Region     string `json:"s3_region"`
	S3Bucket     string `json:"s3_bucket"`
	S3AccessKey  string `json:"s3_access_key"`
	S3SecretKey  string `json:"s3_secret_key"`
	S3PublicBase string `json:"s3_public_base"`

	AccessToken string `json:"access_token"`
	OwnerID     string `json:"owner_id"`

	DownloadDir    string `json:"download_dir"`
	LocalStorePath string `json:"local_store_path"`
	MaxUploadSize  int64  `json:"max_upload_size"`

	RemoveDelay    timex.Duration `json:"remove_delay"`
	RetryDelay     timex.Duration `json:"retry_delay"`
	StaggerDelay   timex.Duration `json:"stagger_delay"`
	MaxAttempts    int            `json:"max_attempts"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given nothing happens. Read or unmarshal errors panic (caller may
// recover if desired). Zero-valued JSON fields leave the config untouched so
// a partial file only overrides what it names.
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

	setString(&cfg.MetadataDSN, jc.MetadataDSN)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3PublicBase, jc.S3PublicBase)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.OwnerID, jc.OwnerID)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.LocalStorePath, jc.LocalStorePath)

	if jc.MaxUploadSize > 0 {
		cfg.MaxUploadSize = jc.MaxUploadSize
	}
	if jc.MaxAttempts > 0 {
		cfg.MaxAttempts = jc.MaxAttempts
	}
	setDuration(&cfg.RemoveDelay, jc.RemoveDelay)
	setDuration(&cfg.RetryDelay, jc.RetryDelay)
	setDuration(&cfg.StaggerDelay, jc.StaggerDelay)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
