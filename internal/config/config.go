package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/efactura/internal/archive"
	"github.com/dmitrijs2005/efactura/internal/common"
)

const (
	DefaultAuthURL  = "https://logincert.anaf.ro/anaf-oauth2/v1/authorize"
	DefaultTokenURL = "https://logincert.anaf.ro/anaf-oauth2/v1/token"
	DefaultDays     = 60
)

// Config holds runtime settings for a fetch.
type Config struct {
	ClientID     string
	ClientSecret string

	// RedirectURI is registered with ANAF. When empty it is derived from
	// PublicHost.
	RedirectURI  string
	PublicHost   string
	CallbackPort int
	AuthURL      string
	TokenURL     string
	Env          string

	// APIBase overrides the data API root derived from Env.
	APIBase string

	RateInterval time.Duration
	HTTPTimeout  time.Duration
	RedirectWait time.Duration

	Dest       string
	Days       int
	PDF        bool
	Standard   string
	Validation string
	ForceLogin bool

	TokenFile  string
	StateDB    string
	DailyQuota int

	ConnectorCmd   string
	ConnectorGrace time.Duration

	S3 archive.Config

	Debug   bool
	NoColor bool
}

// LoadDefaults populates c with defaults. Local state lives in the user's
// config directory.
func (c *Config) LoadDefaults() {
	stateDir := defaultStateDir()

	c.CallbackPort = 8765
	c.AuthURL = DefaultAuthURL
	c.TokenURL = DefaultTokenURL
	c.Env = "prod"
	c.RateInterval = 2 * time.Second
	c.HTTPTimeout = 30 * time.Second
	c.RedirectWait = 90 * time.Second
	c.Dest = "efactura"
	c.Days = DefaultDays
	c.Standard = "FACT1"
	c.Validation = "DA"
	c.TokenFile = filepath.Join(stateDir, "token.json")
	c.StateDB = filepath.Join(stateDir, "state.db")
	c.DailyQuota = 10
	c.ConnectorGrace = 10 * time.Second
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".efactura"
	}
	return filepath.Join(dir, "efactura")
}

// LoadConfig applies defaults, .env, environment and the JSON file named in
// args. Flags are applied afterwards by the command tree.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Redirect is the redirect URI sent to the authorization server.
func (c *Config) Redirect() string {
	if c.RedirectURI != "" {
		return c.RedirectURI
	}
	if c.PublicHost == "" {
		return ""
	}
	host := strings.TrimSuffix(c.PublicHost, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + "/callback"
}

// Validate checks the settings a fetch cannot run without.
func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: set CLIENT_ID and CLIENT_SECRET", common.ErrMissingCredentials)
	}
	if c.Redirect() == "" {
		return errors.New("no redirect URI: set EFACTURA_REDIRECT_URI or EFACTURA_PUBLIC_HOST")
	}
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.CallbackPort <= 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("invalid callback port %d", c.CallbackPort)
	}
	return nil
}
