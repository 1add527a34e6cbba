package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv exports the variables of path into the process environment
// without overriding existing ones. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

type lookupFunc func(key string) (string, bool)

// parseEnv overlays cfg with the environment. Unset or empty variables keep
// the current value.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str(&cfg.ClientID, "EFACTURA_CLIENT_ID")
	e.str(&cfg.ClientID, "CLIENT_ID")
	e.str(&cfg.ClientSecret, "EFACTURA_CLIENT_SECRET")
	e.str(&cfg.ClientSecret, "CLIENT_SECRET")
	e.str(&cfg.RedirectURI, "EFACTURA_REDIRECT_URI")
	e.str(&cfg.PublicHost, "EFACTURA_PUBLIC_HOST")
	e.int(&cfg.CallbackPort, "EFACTURA_CALLBACK_PORT")
	e.str(&cfg.AuthURL, "EFACTURA_AUTH_URL")
	e.str(&cfg.TokenURL, "EFACTURA_TOKEN_URL")
	e.str(&cfg.Env, "EFACTURA_ENV")
	e.str(&cfg.APIBase, "EFACTURA_API_BASE")

	e.duration(&cfg.RateInterval, "EFACTURA_RATE_INTERVAL")
	e.duration(&cfg.HTTPTimeout, "EFACTURA_HTTP_TIMEOUT")
	e.duration(&cfg.RedirectWait, "EFACTURA_REDIRECT_WAIT")

	e.str(&cfg.Dest, "EFACTURA_DEST")
	e.int(&cfg.Days, "EFACTURA_DAYS")
	e.bool(&cfg.PDF, "EFACTURA_PDF")
	e.str(&cfg.Standard, "EFACTURA_PDF_STANDARD")
	e.str(&cfg.Validation, "EFACTURA_PDF_VALIDATION")

	e.str(&cfg.TokenFile, "EFACTURA_TOKEN_FILE")
	e.str(&cfg.StateDB, "EFACTURA_STATE_DB")
	e.int(&cfg.DailyQuota, "EFACTURA_DAILY_QUOTA")

	e.str(&cfg.ConnectorCmd, "EFACTURA_CONNECTOR_CMD")
	e.duration(&cfg.ConnectorGrace, "EFACTURA_CONNECTOR_GRACE")

	e.str(&cfg.S3.Bucket, "EFACTURA_S3_BUCKET")
	e.str(&cfg.S3.Prefix, "EFACTURA_S3_PREFIX")
	e.str(&cfg.S3.Region, "EFACTURA_S3_REGION")
	e.str(&cfg.S3.Endpoint, "EFACTURA_S3_ENDPOINT")
	e.str(&cfg.S3.AccessKey, "EFACTURA_S3_ACCESS_KEY")
	e.str(&cfg.S3.SecretKey, "EFACTURA_S3_SECRET_KEY")

	e.bool(&cfg.Debug, "EFACTURA_DEBUG")

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	return v, ok && v != ""
}

func (e *envReader) str(dst *string, key string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(dst *int, key string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (e *envReader) bool(dst *bool, key string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (e *envReader) duration(dst *time.Duration, key string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
