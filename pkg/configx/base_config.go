package configx

import (
	"time"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
)

// Config - config interface.
type Config interface {
	GetServiceName() string
	GetVersion() string
	GetEnvironment() string
	GetServerConfig() *ServerConfig
	GetLoggingConfig() *LoggingConfig
	GetDatabaseConfig() *DatabaseConfig
	IsLocalEnvironment() bool
}

// BaseConfig - app config struct.
// This struct represents the base configuration for the application and is expected to be in the following YAML format:
/*
name: "TestApp"
environment: "development"
version: "1.0"
logging:
  level: "debug"
server:
  port: "8080"
  concurrency: 10
  disableStartupMsg: false
database:
  driver: "mysql"
  name: "system"
  host: "127.0.0.1"
  port: 3306
  user: "root"
  password: "secret"
  poolSize: 10
  minIdle: 0
  acquireTimeout: "5s"
  maxIdleTime: "7h"
  connectTimeout: "10s"
  params:
    time_zone: "'+00:00'"
*/
type BaseConfig struct {
	Name        string          `mapstructure:"name"`
	Environment string          `mapstructure:"environment"`
	Version     string          `mapstructure:"version"`
	Logging     *LoggingConfig  `mapstructure:"logging"`
	Server      *ServerConfig   `mapstructure:"server"`
	Database    *DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port                  string `mapstructure:"port"`
	Concurrency           int    `mapstructure:"concurrency"`
	DisableStartupMessage bool   `mapstructure:"disableStartupMsg"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig - connection pool settings as they appear in the property files.
type DatabaseConfig struct {
	Driver         string            `mapstructure:"driver"`
	Name           string            `mapstructure:"name"`
	Host           string            `mapstructure:"host"`
	Port           int32             `mapstructure:"port"`
	User           string            `mapstructure:"user"`
	Password       string            `mapstructure:"password"`
	PoolSize       int32             `mapstructure:"poolSize"`
	MinIdle        int32             `mapstructure:"minIdle"`
	AcquireTimeout time.Duration     `mapstructure:"acquireTimeout"`
	MaxIdleTime    time.Duration     `mapstructure:"maxIdleTime"`
	ConnectTimeout time.Duration     `mapstructure:"connectTimeout"`
	Params         map[string]string `mapstructure:"params"`
}

// ToConnConfig - resolve the property values into the pool connection configuration.
func (dc *DatabaseConfig) ToConnConfig() dbx.ConnConfig {
	return dbx.ConnConfig{
		Driver:         dc.Driver,
		Host:           dc.Host,
		Port:           dc.Port,
		DBName:         dc.Name,
		User:           dc.User,
		Password:       dc.Password,
		PoolSize:       dc.PoolSize,
		MinIdle:        dc.MinIdle,
		AcquireTimeout: dc.AcquireTimeout,
		MaxIdleTime:    dc.MaxIdleTime,
		ConnectTimeout: dc.ConnectTimeout,
		Params:         dc.Params,
	}
}

func (cfg BaseConfig) GetServiceName() string {
	return cfg.Name
}

func (cfg BaseConfig) GetVersion() string {
	return cfg.Version
}

func (cfg BaseConfig) GetEnvironment() string {
	return cfg.Environment
}

func (cfg BaseConfig) IsLocalEnvironment() bool {
	return checkIfLocalEnv(cfg.Environment)
}

func (cfg BaseConfig) GetServerConfig() *ServerConfig {
	return cfg.Server
}

func (cfg BaseConfig) GetLoggingConfig() *LoggingConfig {
	return cfg.Logging
}

func (cfg BaseConfig) GetDatabaseConfig() *DatabaseConfig {
	return cfg.Database
}
