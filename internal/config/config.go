// Package config loads edutrack settings from defaults, an optional config
// file, an optional .env file and EDUTRACK_ environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable. The key
// "mongodb.uri" is read from EDUTRACK_MONGODB_URI.
const EnvPrefix = "EDUTRACK"

// DefaultEnvFile is read when LoadOptions.EnvFile is empty.
const DefaultEnvFile = ".env"

// Supported store drivers.
const (
	DriverMongoDB  = "mongodb"
	DriverDynamoDB = "dynamodb"
	DriverBadger   = "badger"
)

// ErrConfigurationMissing is returned when the selected driver lacks the
// settings it needs to connect.
var ErrConfigurationMissing = errors.New("edutrack: configuration missing")

// Config is the resolved configuration.
type Config struct {
	Driver   string
	MongoDB  MongoDB
	DynamoDB DynamoDB
	Badger   Badger
	Log      Log
	HTTP     HTTP
}

// MongoDB configures the mongodb driver.
type MongoDB struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DynamoDB configures the dynamodb driver. Region falls back to AWS_REGION.
type DynamoDB struct {
	Region      string
	Endpoint    string
	Profile     string
	TablePrefix string
}

// Badger configures the embedded badger driver.
type Badger struct {
	Path     string
	InMemory bool
}

// Log selects the log level and handler format.
type Log struct {
	Level  string
	Format string
}

// HTTP configures the API server started by serve.
type HTTP struct {
	Addr string
}

// LoadOptions locates the optional files read by Load.
type LoadOptions struct {
	// ConfigFile is a JSON or YAML file. Empty means none.
	ConfigFile string

	// EnvFile is loaded into the process environment when it exists.
	// Variables already set are not overridden. Empty means DefaultEnvFile.
	EnvFile string
}

func defaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverMongoDB)
	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", "edutrack")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("dynamodb.region", "")
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("dynamodb.profile", "")
	v.SetDefault("dynamodb.table_prefix", "")
	v.SetDefault("badger.path", "edutrack.db")
	v.SetDefault("badger.in_memory", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.addr", ":8080")
}

// Load reads the configuration and validates it.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", envFile, err)
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	cfg := Config{
		Driver: strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
		MongoDB: MongoDB{
			URI:            v.GetString("mongodb.uri"),
			Database:       v.GetString("mongodb.database"),
			ConnectTimeout: v.GetDuration("mongodb.connect_timeout"),
		},
		DynamoDB: DynamoDB{
			Region:      v.GetString("dynamodb.region"),
			Endpoint:    v.GetString("dynamodb.endpoint"),
			Profile:     v.GetString("dynamodb.profile"),
			TablePrefix: v.GetString("dynamodb.table_prefix"),
		},
		Badger: Badger{
			Path:     v.GetString("badger.path"),
			InMemory: v.GetBool("badger.in_memory"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTP{
			Addr: v.GetString("http.addr"),
		},
	}
	if cfg.DynamoDB.Region == "" {
		cfg.DynamoDB.Region = os.Getenv("AWS_REGION")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected driver can be opened.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("%w: set %s_MONGODB_URI or mongodb.uri", ErrConfigurationMissing, EnvPrefix)
		}
		if c.MongoDB.Database == "" {
			return fmt.Errorf("%w: mongodb.database", ErrConfigurationMissing)
		}
	case DriverDynamoDB:
		if c.DynamoDB.Region == "" && c.DynamoDB.Endpoint == "" {
			return fmt.Errorf("%w: set %s_DYNAMODB_REGION, AWS_REGION or dynamodb.endpoint", ErrConfigurationMissing, EnvPrefix)
		}
	case DriverBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			return fmt.Errorf("%w: badger.path", ErrConfigurationMissing)
		}
	default:
		return fmt.Errorf("unknown store driver %q (want %s, %s or %s)",
			c.Driver, DriverMongoDB, DriverDynamoDB, DriverBadger)
	}
	return nil
}
