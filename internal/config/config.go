// Package config loads process-wide settings. Pagination defaults, count
// cache behavior, and server parameters are read once at startup; Reload is
// the only way they change afterward, and never mid-request.
package config

import (
	"sync"
	"time"

	"gql-listkit/internal/qerr"
)

// Defaults applied when neither file, env, nor flags provide a value.
const (
	DefaultPageSize    = 25
	DefaultMaxPageSize = 100
	DefaultCacheTTL    = 5 * time.Minute
)

// Settings holds the full application configuration.
type Settings struct {
	Server     ServerSettings     `mapstructure:"server"`
	Logging    LoggingSettings    `mapstructure:"logging"`
	Database   DatabaseSettings   `mapstructure:"database"`
	Pagination PaginationSettings `mapstructure:"pagination"`
	Cache      CacheSettings      `mapstructure:"cache"`
}

// ServerSettings holds HTTP server parameters for the demo server.
type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingSettings holds structured-logging parameters.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// DatabaseSettings holds the backing store connection parameters.
type DatabaseSettings struct {
	// DSN is a complete go-sql-driver/mysql data source name.
	DSN string `mapstructure:"dsn"`
	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// PaginationSettings holds process-wide pagination defaults consumed by
// strategies whose per-field configuration leaves them unset.
type PaginationSettings struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// CacheSettings controls the collection count cache.
type CacheSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Validate rejects inconsistent settings before they reach any strategy.
func (s *Settings) Validate() error {
	p := s.Pagination
	if p.DefaultPageSize <= 0 {
		return qerr.Configf("pagination.default_page_size must be positive, got %d", p.DefaultPageSize)
	}
	if p.MaxPageSize > 0 && p.DefaultPageSize > p.MaxPageSize {
		return qerr.Configf("pagination.default_page_size %d exceeds max_page_size %d", p.DefaultPageSize, p.MaxPageSize)
	}
	if s.Cache.Enabled && s.Cache.TTL <= 0 {
		return qerr.Configf("cache.ttl must be positive when the count cache is enabled")
	}
	return nil
}

// Store owns the current settings. Load happens once at init; Reload swaps
// the whole snapshot atomically so in-flight requests keep the settings they
// started with.
type Store struct {
	mu      sync.RWMutex
	current *Settings
	loader  func() (*Settings, error)
}

// NewStore builds a store around a loader function and performs the initial
// load.
func NewStore(loader func() (*Settings, error)) (*Store, error) {
	settings, err := loader()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Store{current: settings, loader: loader}, nil
}

// NewStaticStore wraps fixed settings, useful in tests and library embedding.
func NewStaticStore(settings *Settings) (*Store, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Store{current: settings}, nil
}

// Current returns the active settings snapshot.
func (s *Store) Current() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-runs the loader and swaps the snapshot. On error the previous
// settings stay active.
func (s *Store) Reload() error {
	if s.loader == nil {
		return qerr.Configf("settings store has no loader to reload from")
	}
	settings, err := s.loader()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}
