package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cps-console/internal/expiry"
)

const (
	envConfigPath            = "CONFIG_PATH"
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envServerBodyLimit       = "SERVER_BODY_LIMIT"
	envRateLimitRPS          = "RATE_LIMIT_RPS"
	envRateLimitBurst        = "RATE_LIMIT_BURST"
	envEnableProfiling       = "ENABLE_PROFILING"
	envBackendDriver         = "BACKEND_DRIVER"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envAPIBaseURL            = "API_BASE_URL"
	envAPITimeout            = "API_TIMEOUT"
	envAPIToken              = "API_TOKEN"
	envImageProvider         = "IMAGE_PROVIDER"
	envImageMaxBytes         = "IMAGE_MAX_BYTES"
	envImageConcurrency      = "IMAGE_UPLOAD_CONCURRENCY"
	envPicUIURL              = "PICUI_URL"
	envPicUIToken            = "PICUI_TOKEN"
	envPicUIAlbumID          = "PICUI_ALBUM_ID"
	envPicUIPermission       = "PICUI_PERMISSION"
	envS3Bucket              = "S3_BUCKET"
	envAWSRegion             = "REGION"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envS3Endpoint            = "S3_ENDPOINT"
	envS3PublicBaseURL       = "S3_PUBLIC_BASE_URL"
	envS3Prefix              = "S3_KEY_PREFIX"
	envExpiryDangerDays      = "EXPIRY_DANGER_DAYS"
	envExpiryWarningDays     = "EXPIRY_WARNING_DAYS"
	envLogLevel              = "LOG_LEVEL"
	envLogFormat             = "LOG_FORMAT"
	envJWTSecret             = "AUTH_JWT_SECRET"
	envJWTTTL                = "AUTH_TOKEN_TTL"
	envOperators             = "AUTH_OPERATORS"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	ProviderNone  = ""
	ProviderPicUI = "picui"
	ProviderS3    = "s3"
)

const (
	defaultConfigPath         = "config.yaml"
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 10 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultBodyLimit          = "4M"
	defaultRateLimitRPS       = 20.0
	defaultRateLimitBurst     = 40
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "cps_console"
	defaultDBUser             = "cps_console_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 10
	defaultDBMinConns         = 2
	defaultAPIBaseURL         = "http://localhost:8080/api"
	defaultAPITimeout         = 15 * time.Second
	defaultImageMaxBytes      = int64(1536 * 1024)
	defaultImageConcurrency   = 3
	defaultPicUIURL           = "https://picui.cn/api/v1"
	defaultPicUIAlbumID       = int64(1761)
	defaultPicUIPermission    = 1
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultJWTTTL             = 24 * time.Hour
	minJWTSecretLength        = 32
	minUniqueCharsInSecret    = 16
	minRepeatedCharThreshold  = 4
	maxRepeatedChars          = 2

	errPortRequiredFmt         = "PORT must be set"
	errDBPasswordRequiredFmt   = "DB_PASSWORD must be set when BACKEND_DRIVER is postgres"
	errAPIBaseURLRequiredFmt   = "API_BASE_URL must be set"
	errAPITimeoutFmt           = "API_TIMEOUT must be positive"
	errPicUITokenRequiredFmt   = "PICUI_TOKEN must be set when IMAGE_PROVIDER is picui"
	errS3BucketRequiredFmt     = "S3_BUCKET must be set when IMAGE_PROVIDER is s3"
	errRegionRequiredFmt       = "REGION must be set when IMAGE_PROVIDER is s3"
	errJWTSecretMinLengthFmt   = "AUTH_JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "AUTH_JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errOperatorsNeedSecretFmt  = "AUTH_OPERATORS requires AUTH_JWT_SECRET"
	errInvalidConfigurationFmt = "invalid configuration: %w"
	errReadConfigFileFmt       = "failed to read config file %s: %w"
	errParseConfigFileFmt      = "failed to parse config file %s: %w"
)

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Database  DatabaseConfig    `yaml:"database"`
	Backend   BackendConfig     `yaml:"backend"`
	API       APIConfig         `yaml:"api"`
	ImageHost ImageHostConfig   `yaml:"image_host"`
	Expiry    expiry.Thresholds `yaml:"expiry"`
	Log       LogConfig         `yaml:"log"`
	Auth      AuthConfig        `yaml:"auth"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	BodyLimit       string        `yaml:"body_limit"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	// Profiling mounts the pprof handlers under /debug/pprof.
	Profiling bool `yaml:"profiling"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// BackendConfig selects the storage behind the reference server.
type BackendConfig struct {
	Driver string `yaml:"driver"`
}

// APIConfig addresses the REST backend the console talks to.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Token   string        `yaml:"token"`
}

type ImageHostConfig struct {
	Provider    string      `yaml:"provider"`
	MaxBytes    int64       `yaml:"max_bytes"`
	Concurrency int         `yaml:"concurrency"`
	PicUI       PicUIConfig `yaml:"picui"`
	S3          S3Config    `yaml:"s3"`
}

type PicUIConfig struct {
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	AlbumID    int64  `yaml:"album_id"`
	Permission int    `yaml:"permission"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	PublicBaseURL   string `yaml:"public_base_url"`
	KeyPrefix       string `yaml:"key_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// Operators maps operator names to bcrypt password hashes. Empty
	// disables password login.
	Operators map[string]string `yaml:"operators"`
}

// Default returns the configuration used before any file or env override.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            defaultServerPort,
			ReadTimeout:     defaultServerReadTimeout,
			WriteTimeout:    defaultServerWriteTimeout,
			ShutdownTimeout: defaultServerShutdown,
			BodyLimit:       defaultBodyLimit,
			RateLimitRPS:    defaultRateLimitRPS,
			RateLimitBurst:  defaultRateLimitBurst,
		},
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			Database: defaultDBName,
			User:     defaultDBUser,
			SSLMode:  defaultDBSSLMode,
			MaxConns: defaultDBMaxConns,
			MinConns: defaultDBMinConns,
		},
		Backend: BackendConfig{Driver: DriverMemory},
		API: APIConfig{
			BaseURL: defaultAPIBaseURL,
			Timeout: defaultAPITimeout,
		},
		ImageHost: ImageHostConfig{
			MaxBytes:    defaultImageMaxBytes,
			Concurrency: defaultImageConcurrency,
			PicUI: PicUIConfig{
				URL:        defaultPicUIURL,
				AlbumID:    defaultPicUIAlbumID,
				Permission: defaultPicUIPermission,
			},
		},
		Expiry: expiry.Default.Thresholds,
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Auth: AuthConfig{TokenTTL: defaultJWTTTL},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_PATH (config.yaml when unset, skipped when absent), then
// environment variables.
func Load() (*Config, error) {
	path := getEnv(envConfigPath, defaultConfigPath)
	explicit := os.Getenv(envConfigPath) != ""
	return LoadFile(path, explicit)
}

// LoadFile is Load with an explicit file. A missing file is an error only
// when mustExist is set.
func LoadFile(path string, mustExist bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf(errParseConfigFileFmt, path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !mustExist:
		default:
			return nil, fmt.Errorf(errReadConfigFileFmt, path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv(envPort, c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv(envServerReadTimeout, c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv(envServerWriteTimeout, c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getDurationEnv(envServerShutdownTimeout, c.Server.ShutdownTimeout)
	c.Server.BodyLimit = getEnv(envServerBodyLimit, c.Server.BodyLimit)
	c.Server.RateLimitRPS = getFloatEnv(envRateLimitRPS, c.Server.RateLimitRPS)
	c.Server.RateLimitBurst = getIntEnv(envRateLimitBurst, c.Server.RateLimitBurst)
	c.Server.Profiling = getBoolEnv(envEnableProfiling, c.Server.Profiling)

	c.Backend.Driver = strings.ToLower(getEnv(envBackendDriver, c.Backend.Driver))

	c.Database.Host = getEnv(envDBHost, c.Database.Host)
	c.Database.Port = getIntEnv(envDBPort, c.Database.Port)
	c.Database.Database = getEnv(envDBName, c.Database.Database)
	c.Database.User = getEnv(envDBUser, c.Database.User)
	c.Database.Password = getEnv(envDBPassword, c.Database.Password)
	c.Database.SSLMode = getEnv(envDBSSLMode, c.Database.SSLMode)
	c.Database.MaxConns = getIntEnv(envDBMaxConns, c.Database.MaxConns)
	c.Database.MinConns = getIntEnv(envDBMinConns, c.Database.MinConns)

	c.API.BaseURL = strings.TrimRight(getEnv(envAPIBaseURL, c.API.BaseURL), "/")
	c.API.Timeout = getDurationEnv(envAPITimeout, c.API.Timeout)
	c.API.Token = getEnv(envAPIToken, c.API.Token)

	c.ImageHost.Provider = strings.ToLower(getEnv(envImageProvider, c.ImageHost.Provider))
	c.ImageHost.MaxBytes = getInt64Env(envImageMaxBytes, c.ImageHost.MaxBytes)
	c.ImageHost.Concurrency = getIntEnv(envImageConcurrency, c.ImageHost.Concurrency)
	c.ImageHost.PicUI.URL = strings.TrimRight(getEnv(envPicUIURL, c.ImageHost.PicUI.URL), "/")
	c.ImageHost.PicUI.Token = getEnv(envPicUIToken, c.ImageHost.PicUI.Token)
	c.ImageHost.PicUI.AlbumID = getInt64Env(envPicUIAlbumID, c.ImageHost.PicUI.AlbumID)
	c.ImageHost.PicUI.Permission = getIntEnv(envPicUIPermission, c.ImageHost.PicUI.Permission)
	c.ImageHost.S3.Bucket = getEnv(envS3Bucket, c.ImageHost.S3.Bucket)
	c.ImageHost.S3.Region = getEnv(envAWSRegion, c.ImageHost.S3.Region)
	c.ImageHost.S3.AccessKeyID = getEnv(envAWSAccessKeyID, c.ImageHost.S3.AccessKeyID)
	c.ImageHost.S3.SecretAccessKey = getEnv(envAWSSecretAccessKey, c.ImageHost.S3.SecretAccessKey)
	c.ImageHost.S3.Endpoint = getEnv(envS3Endpoint, c.ImageHost.S3.Endpoint)
	c.ImageHost.S3.PublicBaseURL = strings.TrimRight(getEnv(envS3PublicBaseURL, c.ImageHost.S3.PublicBaseURL), "/")
	c.ImageHost.S3.KeyPrefix = getEnv(envS3Prefix, c.ImageHost.S3.KeyPrefix)

	c.Expiry.DangerDays = getIntEnv(envExpiryDangerDays, c.Expiry.DangerDays)
	c.Expiry.WarningDays = getIntEnv(envExpiryWarningDays, c.Expiry.WarningDays)

	c.Log.Level = getEnv(envLogLevel, c.Log.Level)
	c.Log.Format = getEnv(envLogFormat, c.Log.Format)

	c.Auth.JWTSecret = getEnv(envJWTSecret, c.Auth.JWTSecret)
	c.Auth.TokenTTL = getDurationEnv(envJWTTTL, c.Auth.TokenTTL)
	if v := os.Getenv(envOperators); v != "" {
		c.Auth.Operators = parseOperators(v)
	}
}

// parseOperators reads "name:hash" pairs separated by commas.
func parseOperators(v string) map[string]string {
	operators := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		name, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || hash == "" {
			continue
		}
		operators[name] = strings.TrimSpace(hash)
	}
	return operators
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	switch c.Backend.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf(errDBPasswordRequiredFmt)
		}
	default:
		return errors.New(messages.unknownOption(envBackendDriver, c.Backend.Driver))
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf(errAPIBaseURLRequiredFmt)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf(errAPITimeoutFmt)
	}

	switch c.ImageHost.Provider {
	case ProviderNone:
	case ProviderPicUI:
		if c.ImageHost.PicUI.Token == "" {
			return fmt.Errorf(errPicUITokenRequiredFmt)
		}
	case ProviderS3:
		if c.ImageHost.S3.Bucket == "" {
			return fmt.Errorf(errS3BucketRequiredFmt)
		}
		if c.ImageHost.S3.Region == "" {
			return fmt.Errorf(errRegionRequiredFmt)
		}
	default:
		return errors.New(messages.unknownOption(envImageProvider, c.ImageHost.Provider))
	}

	if c.Auth.JWTSecret != "" {
		if len(c.Auth.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
		}
		if !hasMinimumEntropy(c.Auth.JWTSecret) {
			return fmt.Errorf(errJWTSecretLowEntropyFmt)
		}
	} else if len(c.Auth.Operators) > 0 {
		return fmt.Errorf(errOperatorsNeedSecretFmt)
	}

	return nil
}

// AuthEnabled reports whether the reference server guards its API.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	if len(charCounts) < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_min_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode, c.MaxConns, c.MinConns,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
