package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Query    QueryConfig    `mapstructure:"query"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "mysql", "postgres", "pgx", "sqlite"
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// QueryConfig selects the conditions read from the database
type QueryConfig struct {
	Year               string `mapstructure:"year"`
	IgnoreExportsSince string `mapstructure:"ignore_exports_since"`
	IncludeExtern      bool   `mapstructure:"include_extern"`
	IncludeHistoZyto   bool   `mapstructure:"include_histo_zyto"`
	WithPatientID      bool   `mapstructure:"with_patient_id"`
	ConditionIDSystem  string `mapstructure:"condition_id_system"`
}

// Filter returns the query filter described by the configuration.
func (q QueryConfig) Filter() QueryFilter {
	return QueryFilter{
		Year:               q.Year,
		IgnoreExportsSince: q.IgnoreExportsSince,
		IncludeExtern:      q.IncludeExtern,
		IncludeHistoZyto:   q.IncludeHistoZyto,
		WithPatientID:      q.WithPatientID,
	}
}

// ReportConfig represents report rendering configuration
type ReportConfig struct {
	Format string `mapstructure:"format"` // "text", "json", "yaml"
	Color  bool   `mapstructure:"color"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
