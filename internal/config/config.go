// Package config assembles the application configuration from defaults,
// an optional JSON file, environment variables and command-line flags,
// in increasing order of priority.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every tunable of the service.
type Config struct {
	// ConfigFile is the path of an optional JSON file with configuration values.
	ConfigFile string `env:"CONFIG" json:"-"`

	RunAddr  string `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel string `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`

	SessionCookieName string `env:"SESSION_COOKIE_NAME" json:"session_cookie_name" validate:"required"`

	// SessionSigningSecretKey is the base64url encoded HMAC key for session cookies.
	// Empty means a random key is generated at startup.
	SessionSigningSecretKey string        `env:"SESSION_SIGNING_SECRET_KEY" json:"session_signing_secret_key" validate:"omitempty,base64url"`
	SessionTTL              time.Duration `env:"SESSION_TTL" json:"session_ttl" validate:"gt=0"`

	BcryptCost int `env:"BCRYPT_COST" json:"bcrypt_cost" validate:"min=4,max=31"`

	// TrustedSubnet restricts GET /urls.json to clients from the CIDR. Empty means no restriction.
	TrustedSubnet string `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	// TrustedProxy is the CIDR of reverse proxies whose X-Real-IP and X-Forwarded-For
	// headers are believed. Empty means the headers are ignored.
	TrustedProxy string `env:"TRUSTED_PROXY" json:"trusted_proxy" validate:"omitempty,cidr"`

	EnableGzip bool `env:"ENABLE_GZIP" json:"enable_gzip"`
}

var defaultConfig = Config{
	RunAddr:                 ":8080",
	LogLevel:                "info",
	SessionCookieName:       "session",
	SessionSigningSecretKey: "",
	SessionTTL:              24 * time.Hour,
	BcryptCost:              bcrypt.DefaultCost,
	TrustedSubnet:           "",
	TrustedProxy:            "",
	EnableGzip:              true,
}

// InitOption customizes the behaviour of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing turns off command-line flags parsing, which is useful in tests.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	var valuesFromFlags Config
	configFileFromFlags := ""
	explicitFlags := map[string]bool{}
	if !options.disableFlagsParsing {
		explicitFlags, err = parseFlags(&valuesFromFlags, &configFileFromFlags)
		if err != nil {
			return nil, err
		}
	}

	configFile := valuesFromEnv.ConfigFile
	if configFileFromFlags != "" {
		configFile = configFileFromFlags
	}
	if configFile != "" {
		if err := values.loadJSON(configFile); err != nil {
			return nil, err
		}
		values.ConfigFile = configFile
	}

	applyEnv(values, &valuesFromEnv)
	applyFlags(values, &valuesFromFlags, explicitFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func (c *Config) loadJSON(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromFile struct {
		Config
		SessionTTL string `json:"session_ttl"`
	}
	fromFile.Config = *c
	fromFile.SessionTTL = ""
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	sessionTTL := c.SessionTTL
	if fromFile.SessionTTL != "" {
		sessionTTL, err = time.ParseDuration(fromFile.SessionTTL)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `time.ParseDuration()` calling: %w", err)
		}
	}

	*c = fromFile.Config
	c.SessionTTL = sessionTTL

	return nil
}

func applyEnv(values, valuesFromEnv *Config) {
	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.SessionCookieName != "" {
		values.SessionCookieName = valuesFromEnv.SessionCookieName
	}

	if valuesFromEnv.SessionSigningSecretKey != "" {
		values.SessionSigningSecretKey = valuesFromEnv.SessionSigningSecretKey
	}

	if valuesFromEnv.SessionTTL != 0 {
		values.SessionTTL = valuesFromEnv.SessionTTL
	}

	if valuesFromEnv.BcryptCost != 0 {
		values.BcryptCost = valuesFromEnv.BcryptCost
	}

	if valuesFromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}

	if valuesFromEnv.TrustedProxy != "" {
		values.TrustedProxy = valuesFromEnv.TrustedProxy
	}

	if _, isSet := os.LookupEnv("ENABLE_GZIP"); isSet {
		values.EnableGzip = valuesFromEnv.EnableGzip
	}
}

func parseFlags(valuesFromFlags *Config, configFile *string) (map[string]bool, error) {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.StringVar(configFile, "c", "", "path to the JSON configuration file")
	flagSet.StringVar(&valuesFromFlags.RunAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&valuesFromFlags.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&valuesFromFlags.TrustedSubnet, "t", "", "CIDR allowed to read /urls.json")
	flagSet.BoolVar(&valuesFromFlags.EnableGzip, "g", true, "compress responses with gzip")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/parseFlags(): error while `flagSet.Parse()` calling: %w", err)
	}

	explicit := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	return explicit, nil
}

func applyFlags(values, valuesFromFlags *Config, explicitFlags map[string]bool) {
	if valuesFromFlags.RunAddr != "" {
		values.RunAddr = valuesFromFlags.RunAddr
	}

	if valuesFromFlags.LogLevel != "" {
		values.LogLevel = valuesFromFlags.LogLevel
	}

	if valuesFromFlags.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromFlags.TrustedSubnet
	}

	if explicitFlags["g"] {
		values.EnableGzip = valuesFromFlags.EnableGzip
	}
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}
