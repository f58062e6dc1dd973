// Package config loads the CLI configuration from flags, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/naka-gawa/repo-year/internal/domain"
	"github.com/naka-gawa/repo-year/internal/gateway"
)

// Sentinel validation errors.
var (
	ErrMissingToken  = errors.New("GITHUB_TOKEN environment variable is not set")
	ErrInvalidDate   = errors.New("invalid date, please use YYYY/MM/DD")
	ErrInvalidRange  = errors.New("--from must be before --to")
	ErrUnknownZone   = errors.New("unknown time zone")
	ErrInvalidFormat = errors.New("unknown output format")
)

// envPrefix prefixes every environment variable read by viper.
const envPrefix = "REPOYEAR"

// inputDateLayout is the layout of --from and --to.
const inputDateLayout = "2006/01/02"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds everything a command needs.
type Config struct {
	User     string   `mapstructure:"user"`
	From     string   `mapstructure:"from"`
	To       string   `mapstructure:"to"`
	Timezone string   `mapstructure:"timezone"`
	Backend  string   `mapstructure:"backend"`
	Snapshot string   `mapstructure:"snapshot"`
	Format   string   `mapstructure:"format"`
	Only     []string `mapstructure:"only"`
	Hide     []string `mapstructure:"hide"`
	Verbose  bool     `mapstructure:"verbose"`

	Token        string `mapstructure:"token"`
	RefreshToken string `mapstructure:"refresh_token"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// keys lists every setting that may come from the environment.
var keys = []string{
	"user", "from", "to", "timezone", "backend", "snapshot", "format", "only", "hide", "verbose",
	"refresh_token", "client_id", "client_secret",
}

// Load reads .env (if present), binds flags and REPOYEAR_* environment
// variables, and falls back to GITHUB_TOKEN for the token.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("format", FormatText)
	v.SetDefault("timezone", "Local")
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	if err := v.BindEnv("token", envPrefix+"_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token: %w", err)
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	from, to, err := c.Range()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return ErrInvalidRange
	}
	return nil
}

// Location returns the time zone dates are projected to.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, c.Timezone)
	}
	return loc, nil
}

// Range parses --from and --to. Zero times mean unset.
func (c *Config) Range() (from, to time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if c.From != "" {
		if from, err = time.ParseInLocation(inputDateLayout, c.From, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --from %q", ErrInvalidDate, c.From)
		}
	}
	if c.To != "" {
		if to, err = time.ParseInLocation(inputDateLayout, c.To, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --to %q", ErrInvalidDate, c.To)
		}
		// Include the whole last day.
		to = to.AddDate(0, 0, 1).Add(-time.Second)
	}
	return from, to, nil
}

// Query returns the gateway query for the configured user and range.
func (c *Config) Query() (gateway.Query, error) {
	from, to, err := c.Range()
	if err != nil {
		return gateway.Query{}, err
	}
	return gateway.Query{Login: c.User, From: from, To: to}, nil
}

// Credentials returns the GitHub credentials, or ErrMissingToken when none
// are configured.
func (c *Config) Credentials() (gateway.Credentials, error) {
	creds := gateway.Credentials{
		AccessToken:  c.Token,
		RefreshToken: c.RefreshToken,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
	refresh := creds.RefreshToken != "" && creds.ClientID != "" && creds.ClientSecret != ""
	if creds.AccessToken == "" && !refresh {
		return gateway.Credentials{}, ErrMissingToken
	}
	return creds, nil
}

// Filter returns the repository filter for --only and --hide. --hide wins
// over --only for a repository named by both.
func (c *Config) Filter() *domain.Filter {
	f := domain.AllOn()
	if len(c.Only) > 0 {
		f = domain.WithOnlyRepos(c.Only...)
	}
	for _, url := range c.Hide {
		f.SetRepo(url, false)
	}
	return f
}
