package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/rwdp-check/internal/domain"
)

// Supported drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB wraps a sqlx handle with connection logging
type DB struct {
	*sqlx.DB
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewConnection opens a connection pool for the configured driver and verifies it with a ping
func NewConnection(ctx context.Context, config domain.DatabaseConfig, logger *logrus.Logger) (*DB, error) {
	db, pool, err := open(ctx, config)
	if err != nil {
		return nil, err
	}

	// Configure connection pool settings
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	pingCtx := ctx
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	// Test the connection
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver":         config.Driver,
		"host":           config.Host,
		"port":           config.Port,
		"database":       config.Database,
		"max_open_conns": config.MaxOpenConns,
	}).Info("Database connection established")

	return &DB{
		DB:   db,
		pool: pool,
		log:  logger,
	}, nil
}

func open(ctx context.Context, config domain.DatabaseConfig) (*sqlx.DB, *pgxpool.Pool, error) {
	dsn, err := DSN(config)
	if err != nil {
		return nil, nil, err
	}

	if config.Driver == DriverPgx {
		poolConfig, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing database config: %w", err)
		}
		if config.MaxOpenConns > 0 {
			poolConfig.MaxConns = int32(config.MaxOpenConns)
		}
		if config.ConnMaxLifetime > 0 {
			poolConfig.MaxConnLifetime = config.ConnMaxLifetime
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("creating connection pool: %w", err)
		}
		return sqlx.NewDb(stdlib.OpenDBFromPool(pool), DriverPgx), pool, nil
	}

	db, err := sqlx.Open(config.Driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s database: %w", config.Driver, err)
	}
	return db, nil, nil
}

// DSN builds the data source name for the configured driver. For sqlite the
// database name is the path of the database file.
func DSN(config domain.DatabaseConfig) (string, error) {
	switch config.Driver {
	case DriverMySQL:
		cfg := mysql.NewConfig()
		cfg.User = config.Username
		cfg.Passwd = config.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
		cfg.DBName = config.Database
		cfg.Timeout = config.ConnectTimeout
		return cfg.FormatDSN(), nil

	case DriverPostgres, DriverPgx:
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		parts := []string{
			"host=" + quoteValue(config.Host),
			"port=" + strconv.Itoa(config.Port),
			"dbname=" + quoteValue(config.Database),
			"user=" + quoteValue(config.Username),
			"password=" + quoteValue(config.Password),
			"sslmode=" + quoteValue(sslMode),
		}
		if seconds := int(config.ConnectTimeout.Seconds()); seconds > 0 {
			parts = append(parts, "connect_timeout="+strconv.Itoa(seconds))
		}
		return strings.Join(parts, " "), nil

	case DriverSQLite:
		if config.Database == "" {
			return "", domain.NewValidationError("database.database", "sqlite database file is required", config.Database)
		}
		return config.Database, nil
	}

	return "", domain.NewValidationError("database.driver", "unsupported driver", config.Driver)
}

// quoteValue quotes a keyword/value connection string value if required
func quoteValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

// Close closes the database connection pool
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	db.log.Info("Database connection pool closed")
	return err
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Stats returns connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}
