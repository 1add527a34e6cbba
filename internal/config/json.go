package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/efactura/internal/flagx"
	"github.com/dmitrijs2005/efactura/internal/timex"
)

// JsonConfig is the DTO for the JSON config file. Absent fields leave the
// current value untouched, hence the pointers for flags and numbers.
type JsonConfig struct {
	ClientID       string          `json:"client_id"`
	ClientSecret   string          `json:"client_secret"`
	RedirectURI    string          `json:"redirect_uri"`
	PublicHost     string          `json:"public_host"`
	CallbackPort   *int            `json:"callback_port"`
	AuthURL        string          `json:"auth_url"`
	TokenURL       string          `json:"token_url"`
	Env            string          `json:"env"`
	APIBase        string          `json:"api_base"`
	RateInterval   *timex.Duration `json:"rate_interval"`
	HTTPTimeout    *timex.Duration `json:"http_timeout"`
	RedirectWait   *timex.Duration `json:"redirect_wait"`
	Dest           string          `json:"dest"`
	Days           *int            `json:"days"`
	PDF            *bool           `json:"pdf"`
	Standard       string          `json:"pdf_standard"`
	Validation     string          `json:"pdf_validation"`
	TokenFile      string          `json:"token_file"`
	StateDB        string          `json:"state_db"`
	DailyQuota     *int            `json:"daily_quota"`
	ConnectorCmd   string          `json:"connector_cmd"`
	ConnectorGrace *timex.Duration `json:"connector_grace"`
	S3             *JsonS3Config   `json:"s3"`
	Debug          *bool           `json:"debug"`
}

type JsonS3Config struct {
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// parseJson overlays cfg with the file given via -c/--config in args. No
// flag means no change.
func parseJson(cfg *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setStr(&cfg.ClientID, jc.ClientID)
	setStr(&cfg.ClientSecret, jc.ClientSecret)
	setStr(&cfg.RedirectURI, jc.RedirectURI)
	setStr(&cfg.PublicHost, jc.PublicHost)
	setPtr(&cfg.CallbackPort, jc.CallbackPort)
	setStr(&cfg.AuthURL, jc.AuthURL)
	setStr(&cfg.TokenURL, jc.TokenURL)
	setStr(&cfg.Env, jc.Env)
	setStr(&cfg.APIBase, jc.APIBase)
	setDuration(&cfg.RateInterval, jc.RateInterval)
	setDuration(&cfg.HTTPTimeout, jc.HTTPTimeout)
	setDuration(&cfg.RedirectWait, jc.RedirectWait)
	setStr(&cfg.Dest, jc.Dest)
	setPtr(&cfg.Days, jc.Days)
	setPtr(&cfg.PDF, jc.PDF)
	setStr(&cfg.Standard, jc.Standard)
	setStr(&cfg.Validation, jc.Validation)
	setStr(&cfg.TokenFile, jc.TokenFile)
	setStr(&cfg.StateDB, jc.StateDB)
	setPtr(&cfg.DailyQuota, jc.DailyQuota)
	setStr(&cfg.ConnectorCmd, jc.ConnectorCmd)
	setDuration(&cfg.ConnectorGrace, jc.ConnectorGrace)
	setPtr(&cfg.Debug, jc.Debug)

	if s3 := jc.S3; s3 != nil {
		setStr(&cfg.S3.Bucket, s3.Bucket)
		setStr(&cfg.S3.Prefix, s3.Prefix)
		setStr(&cfg.S3.Region, s3.Region)
		setStr(&cfg.S3.Endpoint, s3.Endpoint)
		setStr(&cfg.S3.AccessKey, s3.AccessKey)
		setStr(&cfg.S3.SecretKey, s3.SecretKey)
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
