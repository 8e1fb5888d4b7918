// Package config loads the ChaosMongo configuration surface from the
// environment using caarlos0/env struct tags.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
	"github.com/chaosmongo/chaosmongo/pkg/logger"
)

// ChaosMongoConfig is the full environment-representable configuration
// surface. The collection type map and client-settings hook are
// necessarily programmatic (a map and a function are not
// environment-representable) and are supplied instead as functional
// options to chaosmongo.New — see pkg/chaosmongo/options.go.
type ChaosMongoConfig struct {
	URL                                      string        `env:"URL,required"`
	DefaultDatabase                          string        `env:"DEFAULT_DATABASE"`
	UseDefaultCollectionNames                bool          `env:"USE_DEFAULT_COLLECTION_NAMES" envDefault:"true"`
	HolderID                                 string        `env:"HOLDER_ID"`
	LockCollectionName                       string        `env:"LOCK_COLLECTION_NAME" envDefault:"_locks"`
	MigrationHistoryCollectionName           string        `env:"MIGRATION_HISTORY_COLLECTION_NAME" envDefault:"_migrations"`
	MigrationsLockName                       string        `env:"MIGRATIONS_LOCK_NAME" envDefault:"ChaosMongoMigrations"`
	MigrationLockLeaseTime                   time.Duration `env:"MIGRATION_LOCK_LEASE_TIME" envDefault:"10m"`
	ApplyMigrationsOnStartup                 bool          `env:"APPLY_MIGRATIONS_ON_STARTUP" envDefault:"false"`
	RunConfiguratorsOnStartup                bool          `env:"RUN_CONFIGURATORS_ON_STARTUP" envDefault:"false"`
	UseTransactionsForMigrationsIfAvailable  bool          `env:"USE_TRANSACTIONS_FOR_MIGRATIONS_IF_AVAILABLE" envDefault:"true"`
}

// AppConfig is the ambient process-level configuration (logging, app
// env, service identity) every ChaosMongo-based service carries,
// independent of what the library itself needs. Trimmed of gRPC service
// discovery, auth, and OAuth wiring for product-specific services —
// none of which a Mongo-backed library needs.
type AppConfig struct {
	AppEnv         AppEnv          `env:"APP_ENV" envDefault:"dev"`
	LogLevel       logger.LogLevel `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ServiceName    string          `env:"SERVICE_NAME" envDefault:""`
	ServiceVersion string          `env:"SERVICE_VERSION" envDefault:""`

	Metrics MetricsServerConfig `envPrefix:"METRICS_"`
	Health  HealthServerConfig  `envPrefix:"HEALTH_"`
	GRPC    GRPCServerConfig    `envPrefix:"GRPC_"`
	Mongo   ChaosMongoConfig    `envPrefix:"CHAOSMONGO_"`
}

type MetricsServerConfig struct {
	Host              string        `env:"HOST" envDefault:"0.0.0.0"`
	Port              string        `env:"PORT" envDefault:"9090"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
}

type HealthServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8081"`
}

type GRPCServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"9091"`
}

var (
	once             sync.Once
	configLoadingErr error
	instance         *AppConfig
	loggerEntry      = logrus.WithField("scope", "config")
)

// Validate reports a configuration error when the connection URL is
// unset. (Type-map key/value checks live on chaosmongo.TypeMap.Register,
// since the map itself is not part of this env-sourced struct.)
func (c ChaosMongoConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("config: CHAOSMONGO_URL is required: %w", errmodel.ErrConfiguration)
	}

	return nil
}

// LoadConfig parses AppConfig from the environment and validates it. A
// parse failure (including an unset CHAOSMONGO_URL, which the env tag
// marks required) is reported as errmodel.ErrConfiguration too.
func LoadConfig() (*AppConfig, error) {
	var cfg AppConfig

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse: %w (%w)", err, errmodel.ErrConfiguration)
	}

	if err := cfg.Mongo.Validate(); err != nil {
		return nil, err
	}

	logrus.SetLevel(cfg.LogLevel.ToLogrusLevel())

	loggerEntry.WithFields(logrus.Fields{
		"app_env":      cfg.AppEnv,
		"log_level":    cfg.LogLevel,
		"service_name": cfg.ServiceName,
	}).Info("configuration loaded successfully")

	return &cfg, nil
}

// Config returns the process-wide singleton AppConfig, loading it on
// first call.
func Config() (*AppConfig, error) {
	once.Do(func() {
		instance, configLoadingErr = LoadConfig()
		if configLoadingErr != nil {
			loggerEntry.WithError(configLoadingErr).Error("config loading failed")
		}
	})

	return instance, configLoadingErr
}
