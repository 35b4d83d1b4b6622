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

package database

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the environment variables that
// override them.
var envBindings = map[string]string{
	"connection.type":              "DB_TYPE",
	"connection.dsn":               "DB_DSN",
	"connection.host":              "DB_HOST",
	"connection.port":              "DB_PORT",
	"connection.username":          "DB_USERNAME",
	"connection.password":          "DB_PASSWORD",
	"connection.dbname":            "DB_NAME",
	"connection.sslmode":           "DB_SSLMODE",
	"connection.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"connection.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"connection.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"connection.enable_query_log":  "DB_ENABLE_QUERY_LOG",
	"connection.slow_query_time":   "DB_SLOW_QUERY_TIME",
	"scope.file":                   "DB_SCOPE_FILE",
	"cache.enabled":                "DB_CACHE_ENABLED",
	"cache.redis_url":              "DB_CACHE_REDIS_URL",
	"cache.prefix":                 "DB_CACHE_PREFIX",
	"cache.ttl":                    "DB_CACHE_TTL",
}

// LoadConfig reads a database configuration file (YAML, JSON or TOML by
// extension). An empty path loads defaults and environment overrides only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConnectionConfig()
	v.SetDefault("name", "default")
	v.SetDefault("connection.type", "sqlite")
	v.SetDefault("connection.max_idle_conns", d.MaxIdleConns)
	v.SetDefault("connection.max_open_conns", d.MaxOpenConns)
	v.SetDefault("connection.conn_max_lifetime", d.ConnMaxLifetime)
	v.SetDefault("connection.conn_max_idle_time", d.ConnMaxIdleTime)
	v.SetDefault("connection.connect_timeout", d.ConnectTimeout)
	v.SetDefault("connection.read_timeout", d.ReadTimeout)
	v.SetDefault("connection.write_timeout", d.WriteTimeout)
	v.SetDefault("connection.slow_query_time", d.SlowQueryTime)
	v.SetDefault("connection.charset", d.Charset)
	v.SetDefault("cache.prefix", "bunplus")
	v.SetDefault("cache.ttl", time.Second)
}

// secondsToDurationHook reads bare integers as seconds, the unit the DB_*
// environment variables have always used.
func secondsToDurationHook() mapstructure.DecodeHookFunc {
	return mapstructure.DecodeHookFuncType(func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if n, err := strconv.Atoi(s); err == nil {
				return time.Duration(n) * time.Second, nil
			}
		case reflect.Int, reflect.Int32, reflect.Int64:
			if from == reflect.TypeOf(time.Duration(0)) {
				return data, nil
			}
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		}
		return data, nil
	})
}
