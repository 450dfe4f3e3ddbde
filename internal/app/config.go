package app

import (
	"os"
	"strings"
	"time"

	"github.com/jeremywohl/flatten"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const AppName = "slicer"

var ErrConfig = errors.New("configuration error")

// Configuration holds application configuration read from a YAML file or
// set by env variables. Immutable after process start.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type Configuration struct {
	// LogLevel is the app verbose logging level.
	// one of - info, debug, trace
	LogLevel string `mapstructure:"log_level"`

	// RefreshIntervalSeconds is the cache refresh loop interval.
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds"`

	// FetchTimeoutSeconds bounds a single inventory fetch, a timed-out
	// fetch counts as a fetch failure.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`

	// CacheMaxFetch is the per-cycle fetch ceiling - a refresh holding
	// more records is truncated but still published.
	CacheMaxFetch int `mapstructure:"cache_max_fetch"`

	// MaxFetchForSort is the stricter ceiling applied to sorted queries.
	MaxFetchForSort int `mapstructure:"max_fetch_for_sort"`

	// PageLimitDefault/PageLimitMax bound query page sizes.
	PageLimitDefault int `mapstructure:"page_limit_default"`
	PageLimitMax     int `mapstructure:"page_limit_max"`

	// InventoryEndpoint is the upstream inventory API base URL.
	InventoryEndpoint string `mapstructure:"inventory_endpoint"`

	// OrchestratorEndpoint is the slice orchestrator base URL.
	OrchestratorEndpoint string `mapstructure:"orchestrator_endpoint"`
}

// Defaults applied when the configuration leaves values unset.
const (
	defaultRefreshInterval  = 300
	defaultFetchTimeout     = 60
	defaultCacheMaxFetch    = 5000
	defaultMaxFetchForSort  = 5000
	defaultPageLimitDefault = 200
	defaultPageLimitMax     = 1000
)

// RefreshInterval returns the refresh interval as a duration.
func (c *Configuration) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c *Configuration) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// LoadConfiguration loads application configuration
//
// Reads in the cfgFile when available and overrides from environment variables.
func (a *App) LoadConfiguration(cfgFile string) error {
	a.v.SetConfigType("yaml")
	a.v.SetEnvPrefix(AppName)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if cfgFile != "" {
		fh, err := os.Open(cfgFile)
		if err != nil {
			return errors.Wrap(ErrConfig, err.Error())
		}

		if err = a.v.ReadConfig(fh); err != nil {
			return errors.Wrap(ErrConfig, "ReadConfig error:"+err.Error())
		}
	}

	a.v.SetDefault("log_level", "info")
	a.v.SetDefault("refresh_interval_seconds", defaultRefreshInterval)
	a.v.SetDefault("fetch_timeout_seconds", defaultFetchTimeout)
	a.v.SetDefault("cache_max_fetch", defaultCacheMaxFetch)
	a.v.SetDefault("max_fetch_for_sort", defaultMaxFetchForSort)
	a.v.SetDefault("page_limit_default", defaultPageLimitDefault)
	a.v.SetDefault("page_limit_max", defaultPageLimitMax)

	if err := a.envBindVars(); err != nil {
		return errors.Wrap(ErrConfig, "env var bind error:"+err.Error())
	}

	if err := a.v.Unmarshal(a.Config); err != nil {
		return errors.Wrap(ErrConfig, "Unmarshal error: "+err.Error())
	}

	return nil
}

// envBindVars binds environment variables to the struct
// without a configuration file being unmarshalled,
// this is a workaround for a viper bug,
//
// This can be replaced by the solution in https://github.com/spf13/viper/pull/1429
// once that PR is merged.
func (a *App) envBindVars() error {
	envKeysMap := map[string]interface{}{}
	if err := mapstructure.Decode(a.Config, &envKeysMap); err != nil {
		return err
	}

	// Flatten nested conf map
	flat, err := flatten.Flatten(envKeysMap, "", flatten.DotStyle)
	if err != nil {
		return errors.Wrap(err, "Unable to flatten config")
	}

	for k := range flat {
		if err := a.v.BindEnv(k); err != nil {
			return errors.Wrap(ErrConfig, "env var bind error: "+err.Error())
		}
	}

	return nil
}
