// Package env loads the propadmin configuration. Sources are layered, later
// ones winning: built-in defaults, propadmin.yaml, a .env file, PROPADMIN_*
// environment variables and finally command line flags that were set.
package env

import (
	goerrors "errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/mongodb"
)

const (
	EnvPrefix         = "PROPADMIN_"
	DefaultConfigFile = "propadmin.yaml"
	DefaultDotEnvFile = ".env"

	MongoDriver     = "mongo"
	PostgresDriver  = "postgres"
	PostgRESTDriver = "postgrest"
	MemoryDriver    = "memory"
)

var Drivers = []string{MongoDriver, PostgresDriver, PostgRESTDriver, MemoryDriver}

type Env struct {
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	MongoDB   MongoDBConfig   `koanf:"mongodb"`
	Postgres  PostgresConfig  `koanf:"postgres"`
	PostgREST PostgRESTConfig `koanf:"postgrest"`
	Query     QueryConfig     `koanf:"query"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port           int      `koanf:"port"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Addr is the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type BackendConfig struct {
	Driver string `koanf:"driver"`
}

type MongoDBConfig struct {
	URI      string `koanf:"uri"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DB       string `koanf:"db"`
}

// ConnectionURI prefers an explicit uri over host and credentials.
func (c MongoDBConfig) ConnectionURI() string {

	if c.URI != "" {
		return c.URI
	}

	return mongodb.BuildURI(c.Host, c.Port, c.User, c.Password)
}

type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

type PostgRESTConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Schema  string        `koanf:"schema"`
	Timeout time.Duration `koanf:"timeout"`
}

type QueryConfig struct {
	PageSize int           `koanf:"page_size"`
	MaxAge   time.Duration `koanf:"max_age"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// FlagKeys maps command line flags onto configuration keys. Flags not listed
// here are never read into the configuration.
var FlagKeys = map[string]string{
	"backend":    "backend.driver",
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"port":       "server.port",
	"mongo-uri":  "mongodb.uri",
}

func defaults() map[string]any {

	return map[string]any{
		"server.port":            8080,
		"server.allowed_origins": []string{"http://localhost:3000"},
		"backend.driver":         MongoDriver,
		"mongodb.host":           "localhost",
		"mongodb.port":           27017,
		"mongodb.db":             "propadmin",
		"postgrest.schema":       "public",
		"postgrest.timeout":      "10s",
		"query.page_size":        collection.DefaultPageSize,
		"query.max_age":          "0s",
		"logging.level":          "info",
		"logging.format":         "json",
	}
}

type Options struct {
	// ConfigFile is read when set. Otherwise propadmin.yaml is read if present.
	ConfigFile string
	// DotEnvFile defaults to .env; a missing file is skipped.
	DotEnvFile string
	Flags      *pflag.FlagSet
}

func Load(opts Options) (*Env, error) {

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	configFile := opts.ConfigFile
	if configFile == "" && fileExists(DefaultConfigFile) {
		configFile = DefaultConfigFile
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	dotEnvFile := opts.DotEnvFile
	if dotEnvFile == "" {
		dotEnvFile = DefaultDotEnvFile
	}

	if fileExists(dotEnvFile) {
		if err := godotenv.Load(dotEnvFile); err != nil {
			return nil, fmt.Errorf("read env file %s: %w", dotEnvFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, flagKey(opts.Flags)), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Env
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey turns PROPADMIN_POSTGREST_API_KEY into postgrest.api_key: the first
// underscore separates the section from the key.
func envKey(name string) string {

	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}

	return section + "." + rest
}

func flagKey(flags *pflag.FlagSet) func(f *pflag.Flag) (string, any) {

	return func(f *pflag.Flag) (string, any) {

		key, ok := FlagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}

		return key, posflag.FlagVal(flags, f)
	}
}

func (e Env) Validate() error {

	var errs []error

	if !slices.Contains(Drivers, e.Backend.Driver) {
		errs = append(errs, fmt.Errorf("backend.driver %q must be one of %s", e.Backend.Driver, strings.Join(Drivers, ", ")))
	}

	if e.Server.Port < 1 || e.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", e.Server.Port))
	}

	if e.Query.PageSize < 1 || e.Query.PageSize > collection.MaxPageSize {
		errs = append(errs, fmt.Errorf("query.page_size must be between 1 and %d", collection.MaxPageSize))
	}

	if e.Query.MaxAge < 0 {
		errs = append(errs, goerrors.New("query.max_age must not be negative"))
	}

	if e.Logging.Format != "json" && e.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", e.Logging.Format))
	}

	switch e.Backend.Driver {
	case MongoDriver:
		if e.MongoDB.DB == "" {
			errs = append(errs, goerrors.New("mongodb.db is required"))
		}
	case PostgresDriver:
		if e.Postgres.DSN == "" {
			errs = append(errs, goerrors.New("postgres.dsn is required"))
		}
	case PostgRESTDriver:
		if e.PostgREST.URL == "" {
			errs = append(errs, goerrors.New("postgrest.url is required"))
		}
	}

	return goerrors.Join(errs...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
