// Package config loads the immutable service configuration.
//
// Precedence, lowest first: built-in defaults, the YAML file, a .env file,
// process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Listing fetcher modes.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config is built once at startup and passed by value to each component.
type Config struct {
	Port     string   `yaml:"port"`
	Log      Log      `yaml:"log"`
	Upstream Upstream `yaml:"upstream"`
	Listing  Listing  `yaml:"listing"`
	Resolve  Resolve  `yaml:"resolve"`
}

// Log configures pkg/log.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Upstream holds every third-party base URL.
type Upstream struct {
	UpstreamBase   string `yaml:"upstream_base"`
	NetflixBase    string `yaml:"netflix_base"`
	ProxyBase      string `yaml:"proxy_base"`
	DefaultReferer string `yaml:"default_referer"`

	// CookieURL issues the listing cookie; CookieName is the Set-Cookie
	// entry carrying it.
	CookieURL  string `yaml:"cookie_url"`
	CookieName string `yaml:"cookie_name"`

	// QueryTokenURL issues the "in=..." proxy token; QueryTokenKey is
	// the key of that fragment.
	QueryTokenURL string `yaml:"query_token_url"`
	QueryTokenKey string `yaml:"query_token_key"`

	UserAgent    string        `yaml:"user_agent"`
	TokenTimeout time.Duration `yaml:"token_timeout"`
}

// Listing configures the top 10 pipeline.
type Listing struct {
	URL           string        `yaml:"url"`
	Fetcher       string        `yaml:"fetcher"`
	Timeout       time.Duration `yaml:"timeout"`
	SelectorsPath string        `yaml:"selectors_path"`

	// Browser fetcher only.
	BrowserURL  string `yaml:"browser_url"`
	ChromePath  string `yaml:"chrome_path"`
	BrowserTabs int    `yaml:"browser_tabs"`
}

// Resolve configures the resolution endpoint.
type Resolve struct {
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port: "3000",
		Log:  Log{Level: "info"},
		Upstream: Upstream{
			UpstreamBase:   "https://net51.cc",
			NetflixBase:    "https://net51.cc",
			ProxyBase:      "https://iosmirror.vflix.life/api/stream-proxy",
			DefaultReferer: "https://net51.cc",
			CookieURL:      "https://net51.cc/tv/p.php",
			CookieName:     "t_hash_t",
			QueryTokenURL:  "https://net51.cc/mobile/playlist.php",
			QueryTokenKey:  "in",
			UserAgent:      "Mozilla/5.0 (Linux; Android 13; Pixel 5 Build/TQ3A.230901.001; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/139.0.7258.158 Safari/537.36 /OS.Gatu v3.0",
			TokenTimeout:   10 * time.Second,
		},
		Listing: Listing{
			URL:           "https://net51.cc/mobile/home?app=1",
			Fetcher:       FetcherHTTP,
			Timeout:       15 * time.Second,
			SelectorsPath: "config/selectors.yaml",
			BrowserTabs:   1,
		},
		Resolve: Resolve{
			RateLimit:  30,
			RateWindow: time.Minute,
		},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setString(&c.Upstream.UpstreamBase, "UPSTREAM_BASE")
	setString(&c.Upstream.NetflixBase, "NETFLIX_BASE")
	setString(&c.Upstream.ProxyBase, "PROXY_BASE")
	setString(&c.Upstream.DefaultReferer, "DEFAULT_REFERER")
	setString(&c.Upstream.CookieURL, "COOKIE_URL")
	setString(&c.Upstream.QueryTokenURL, "QUERY_TOKEN_URL")
	setString(&c.Listing.URL, "LISTING_URL")
	setString(&c.Listing.Fetcher, "LISTING_FETCHER")
	setString(&c.Listing.SelectorsPath, "SELECTORS_PATH")
	setString(&c.Listing.BrowserURL, "CHROME_WS_URL")
	setString(&c.Listing.ChromePath, "CHROME_PATH")

	if err := setDuration(&c.Upstream.TokenTimeout, "TOKEN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Listing.Timeout, "LISTING_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("RESOLVE_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RESOLVE_RATE_LIMIT: %w", err)
		}
		c.Resolve.RateLimit = n
	}
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"upstream.upstream_base":   c.Upstream.UpstreamBase,
		"upstream.netflix_base":    c.Upstream.NetflixBase,
		"upstream.proxy_base":      c.Upstream.ProxyBase,
		"upstream.default_referer": c.Upstream.DefaultReferer,
		"upstream.query_token_url": c.Upstream.QueryTokenURL,
		"listing.url":              c.Listing.URL,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("config: empty %s", strings.Join(missing, ", "))
	}

	switch c.Listing.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("config: listing.fetcher must be %q or %q, got %q",
			FetcherHTTP, FetcherBrowser, c.Listing.Fetcher)
	}
	if c.Upstream.TokenTimeout <= 0 || c.Listing.Timeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
