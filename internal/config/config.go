// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves types.Config from defaults, an optional .env
// file, environment variables, a YAML config file and bound CLI flags,
// in viper's precedence order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-table/internal/fetch"
	"github.com/pdiddy/arxiv-table/internal/logging"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

// EnvPrefix prefixes every environment variable, e.g. ARXIV_TABLE_FETCH_PAGE_SIZE.
const EnvPrefix = "ARXIV_TABLE"

const (
	DefaultUserAgent = "arxiv-table/0.1"
	DefaultTimeout   = 60 * time.Second
)

// Viper keys.
const (
	KeyLogLevel           = "log_level"
	KeyFetchBaseURL       = "fetch.base_url"
	KeyFetchPageSize      = "fetch.page_size"
	KeyFetchMaxResults    = "fetch.max_results"
	KeyFetchFirstResult   = "fetch.first_result"
	KeyFetchFields        = "fetch.fields"
	KeyFetchCleanAbstract = "fetch.clean_abstract"
	KeyFetchTimeout       = "fetch.timeout"
	KeyFetchUserAgent     = "fetch.user_agent"
	KeyDownloadDestDir    = "download.dest_dir"
	KeyDownloadMaxPDFs    = "download.max_pdfs"
	KeyDownloadWorkers    = "download.workers"
	KeyDownloadTimeout    = "download.timeout"
	KeyDownloadUserAgent  = "download.user_agent"
	KeyStorePath          = "store.path"
)

// SetDefaults registers every key with its default so that environment
// variables are honored by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")

	v.SetDefault(KeyFetchBaseURL, fetch.DefaultBaseURL)
	v.SetDefault(KeyFetchPageSize, fetch.DefaultPageSize)
	v.SetDefault(KeyFetchMaxResults, 100)
	v.SetDefault(KeyFetchFirstResult, 0)
	v.SetDefault(KeyFetchFields, []string{})
	v.SetDefault(KeyFetchCleanAbstract, true)
	v.SetDefault(KeyFetchTimeout, DefaultTimeout)
	v.SetDefault(KeyFetchUserAgent, DefaultUserAgent)

	v.SetDefault(KeyDownloadDestDir, "papers/")
	v.SetDefault(KeyDownloadMaxPDFs, 0)
	v.SetDefault(KeyDownloadWorkers, 1)
	v.SetDefault(KeyDownloadTimeout, DefaultTimeout)
	v.SetDefault(KeyDownloadUserAgent, DefaultUserAgent)

	v.SetDefault(KeyStorePath, "")
}

// BindEnv enables ARXIV_TABLE_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would make a stage misbehave.
func Validate(cfg types.Config) error {
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if cfg.Fetch.PageSize <= 0 {
		return fmt.Errorf("invalid fetch.page_size %d (must be positive)", cfg.Fetch.PageSize)
	}
	if cfg.Fetch.FirstResult < 0 {
		return fmt.Errorf("invalid fetch.first_result %d (must not be negative)", cfg.Fetch.FirstResult)
	}
	if cfg.Download.Workers <= 0 {
		return fmt.Errorf("invalid download.workers %d (must be positive)", cfg.Download.Workers)
	}
	if cfg.Download.MaxPDFs < 0 {
		return fmt.Errorf("invalid download.max_pdfs %d (must not be negative)", cfg.Download.MaxPDFs)
	}
	for _, f := range cfg.Fetch.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("invalid fetch.fields: empty field name")
		}
	}
	return nil
}
