package domain

import (
	"context"
)

// ConditionSource provides the conditions of one diagnosis year
type ConditionSource interface {
	Conditions(ctx context.Context, filter QueryFilter) ([]ConditionRecord, error)
}

// ProtocolSource provides the stored export rows of one export package
type ProtocolSource interface {
	ExportedProtocols(ctx context.Context, exportID string) ([]StoredProtocol, error)
}

// ConditionFile reads and writes conditions in the tabular export format
type ConditionFile interface {
	ReadConditions(path string) ([]ConditionRecord, error)
	WriteConditions(path string, records []ConditionRecord) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetQueryConfig() *QueryConfig
	Validate() error
}
