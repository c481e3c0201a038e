/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tomoncle/crudkit/database"
)

const envPrefix = "CRUDKIT"

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
}

// Config is the demo binary configuration: the HTTP server plus the
// database connection.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Database  database.ConnectionConfig `mapstructure:"database"`
	Bootstrap bool                      `mapstructure:"bootstrap"`
}

func (c *Config) ConfigLoader() *database.Config {
	return &database.Config{ConnectionConfig: c.Database}
}

func defaultConfig() *Config {
	db := database.DefaultConnectionConfig()
	db.Type = "sqlite"
	db.DBName = "crudkit"
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 5 * time.Second,
			LogLevel:        "info",
			LogFormat:       "text",
		},
		Database:  *db,
		Bootstrap: true,
	}
}

// loadConfig applies, in increasing precedence, defaults, the optional
// config file and CRUDKIT_* environment variables (CRUDKIT_DATABASE_HOST).
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"server.addr", "server.mode", "server.shutdown_timeout", "server.log_level", "server.log_format",
		"database.type", "database.host", "database.port", "database.username", "database.password",
		"database.dbname", "database.dsn", "database.sslmode",
		"database.enable_query_log", "database.enable_metrics", "database.enable_tracing",
		"bootstrap",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
