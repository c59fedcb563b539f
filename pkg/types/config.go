package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the client default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-table/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the arXiv query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PageSize bounds the number of entries requested per API call (default 1000).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxResults is the total number of entries to request.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// FirstResult skips this many most-recently-updated results.
	FirstResult int `json:"first_result" yaml:"first_result" mapstructure:"first_result"`

	// Fields selects the entry elements to keep. Empty means DefaultFields.
	Fields []string `json:"fields" yaml:"fields" mapstructure:"fields"`

	// CleanAbstract lower-cases abstracts and folds newlines (default true).
	CleanAbstract bool `json:"clean_abstract" yaml:"clean_abstract" mapstructure:"clean_abstract"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DestDir is prepended verbatim to each derived filename, so it should
	// end with a path separator.
	DestDir string `json:"dest_dir" yaml:"dest_dir" mapstructure:"dest_dir"`

	// MaxPDFs limits downloads to the first N rows. Zero means all rows.
	MaxPDFs int `json:"max_pdfs" yaml:"max_pdfs" mapstructure:"max_pdfs"`

	// Workers is the number of concurrent downloads (default 1, sequential).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// StoreConfig holds settings for the SQLite table store.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all stage configurations.
type Config struct {
	// LogLevel is one of debug, info, warn, error (default info).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	Fetch    FetchConfig    `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Download DownloadConfig `json:"download" yaml:"download" mapstructure:"download"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
}
