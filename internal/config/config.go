package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rwdp-check/internal/domain"
)

// Supported database drivers
var validDrivers = map[string]bool{
	"mysql": true, "postgres": true, "pgx": true, "sqlite": true,
}

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	config *domain.Config
}

// NewManager creates a new configuration manager. Flags that were set on the
// command line take precedence over the environment, the config file and the defaults.
func NewManager(flags *pflag.FlagSet) (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(flags); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"driver":               "database.driver",
	"host":                 "database.host",
	"port":                 "database.port",
	"database":             "database.database",
	"user":                 "database.username",
	"password":             "database.password",
	"year":                 "query.year",
	"ignore-exports-since": "query.ignore_exports_since",
	"include-extern":       "query.include_extern",
	"include-histo-zyto":   "query.include_histo_zyto",
	"pat-id":               "query.with_patient_id",
	"format":               "report.format",
	"no-color":             "report.no_color",
	"log-level":            "logging.level",
	"config":               "config_file",
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig(flags *pflag.FlagSet) error {
	v := m.v

	v.SetConfigName("rwdp-check")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.config/rwdp-check")

	v.SetEnvPrefix("RWDP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m.setDefaults()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
	}

	// Config file is optional; defaults, environment and flags apply without one
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Query.Year = SanitizeYear(config.Query.Year)
	config.Report.Color = !v.GetBool("report.no_color")

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	v := m.v

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "onkostar")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.connect_timeout", "10s")

	// Query defaults
	v.SetDefault("query.year", "")
	v.SetDefault("query.ignore_exports_since", "9999-12-31")
	v.SetDefault("query.include_extern", false)
	v.SetDefault("query.include_histo_zyto", false)
	v.SetDefault("query.with_patient_id", false)
	v.SetDefault("query.condition_id_system", "https://fhir.diz.uni-marburg.de/sid/condition-id")

	// Report defaults
	v.SetDefault("report.format", "text")
	v.SetDefault("report.no_color", false)

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetQueryConfig returns query configuration
func (m *Manager) GetQueryConfig() *domain.QueryConfig {
	return &m.config.Query
}

// SetPassword replaces the configured database password, e.g. after prompting for it
func (m *Manager) SetPassword(password string) {
	m.config.Database.Password = password
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	for _, validate := range []func() error{m.ValidateDatabase, m.ValidateQuery, m.ValidateReport} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDatabase validates the database connection settings
func (m *Manager) ValidateDatabase() error {
	db := m.config.Database

	if !validDrivers[db.Driver] {
		return domain.NewValidationError("database.driver", "unsupported driver", db.Driver)
	}
	if db.Driver != "sqlite" {
		if db.Port <= 0 || db.Port > 65535 {
			return domain.NewValidationError("database.port", "must be between 1 and 65535", db.Port)
		}
		if db.Host == "" {
			return domain.NewValidationError("database.host", "database host is required", db.Host)
		}
	}
	if db.Database == "" {
		return domain.NewValidationError("database.database", "database name is required", db.Database)
	}
	return nil
}

// ValidateQuery validates the diagnosis year and export date filter
func (m *Manager) ValidateQuery() error {
	return m.config.Query.Filter().Validate()
}

// ValidateReport validates report and logging settings
func (m *Manager) ValidateReport() error {
	validFormats := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validFormats[strings.ToLower(m.config.Report.Format)] {
		return domain.NewValidationError("report.format", "must be one of text, json, yaml", m.config.Report.Format)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(m.config.Logging.Level)] {
		return domain.NewValidationError("logging.level", "invalid log level", m.config.Logging.Level)
	}
	return nil
}

// SanitizeYear expands abbreviated diagnosis years: "23" becomes "2023" and
// "5" becomes "2005". Four digit years and empty values are returned unchanged.
func SanitizeYear(year string) string {
	if year == "" || len(year) >= 4 {
		return year
	}
	return "2" + strings.Repeat("0", 3-len(year)) + year
}
