// Package config resolves the refresh settings from defaults, an optional config file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Keys understood by Load. Each can be set in the config file or as NOTEBOOK_INDEX_<KEY>.
const (
	KeyOrg             = "org"
	KeyDBPath          = "db_path"
	KeySiteURL         = "site_url"
	KeyExcludeRepo     = "exclude_repo"
	KeyPageConcurrency = "page_concurrency"
	KeyAPIURL          = "api_url"
)

// Settings is the validated configuration of one run.
type Settings struct {
	Org             string
	DBPath          string
	SiteURL         string
	ExcludeRepo     string
	PageConcurrency int
	// APIURL overrides the GitHub REST root; empty means api.github.com.
	APIURL string
	Token  string
}

// New returns a viper instance with defaults and environment binding applied.
// When cfgFile is non-empty it is read and must exist.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("NOTEBOOK_INDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyOrg, "data-desk-eco")
	v.SetDefault(KeyDBPath, "projects.duckdb")
	v.SetDefault(KeySiteURL, "https://research.datadesk.eco/")
	v.SetDefault(KeyExcludeRepo, "data-desk-eco.github.io")
	v.SetDefault(KeyPageConcurrency, 4)
	v.SetDefault(KeyAPIURL, "")

	// The token follows the gh CLI convention rather than the app prefix.
	if err := v.BindEnv("github_token", "GITHUB_TOKEN", "GH_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind token env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return v, nil
	}

	v.SetConfigName("notebook-index")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load extracts and validates Settings. A missing token is not an error here;
// the gateway reports it as an authentication failure.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Org:             strings.TrimSpace(v.GetString(KeyOrg)),
		DBPath:          strings.TrimSpace(v.GetString(KeyDBPath)),
		SiteURL:         strings.TrimSpace(v.GetString(KeySiteURL)),
		ExcludeRepo:     strings.TrimSpace(v.GetString(KeyExcludeRepo)),
		PageConcurrency: v.GetInt(KeyPageConcurrency),
		APIURL:          strings.TrimSpace(v.GetString(KeyAPIURL)),
		Token:           v.GetString("github_token"),
	}
	switch {
	case s.Org == "":
		return nil, errors.New("organization must not be empty")
	case s.DBPath == "":
		return nil, errors.New("database path must not be empty")
	case !isHTTPURL(s.SiteURL):
		return nil, fmt.Errorf("site url %q must be an http(s) URL", s.SiteURL)
	case s.PageConcurrency < 1:
		return nil, fmt.Errorf("page concurrency must be at least 1, got %d", s.PageConcurrency)
	case s.APIURL != "" && !isHTTPURL(s.APIURL):
		return nil, fmt.Errorf("api url %q must be an http(s) URL", s.APIURL)
	}
	return s, nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
