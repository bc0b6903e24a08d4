package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	Email  EmailConfig
	Import ImportConfig
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
// MaxOpen is deliberately small: the hosting database caps concurrent connections.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings used for the import archive.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ImportConfig holds the bulk client import limits.
type ImportConfig struct {
	// MaxRows is the largest number of data rows accepted in one spreadsheet.
	MaxRows int `mapstructure:"max_rows"`
	// BatchSize is the number of records committed per transaction.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout bounds each batch transaction.
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	MaxFileSizeMB  int64         `mapstructure:"max_file_size_mb"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	// Archive stores source files and result workbooks in S3 when enabled.
	Archive bool `mapstructure:"archive"`
}

// MaxFileSizeBytes returns the upload size limit in bytes.
func (c *ImportConfig) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// Load reads configuration from environment variables with the LAWDESK_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LAWDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "lawdesk")
	v.SetDefault("db.password", "lawdesk_secret")
	v.SetDefault("db.name", "lawdesk_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 5)
	v.SetDefault("db.max_idle", 2)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "lawdesk")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "lawdesk-imports")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "text")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@lawdesk.local")
	v.SetDefault("email.from_name", "Lawdesk")

	// Import defaults
	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("import.batch_size", 100)
	v.SetDefault("import.batch_timeout", "30s")
	v.SetDefault("import.max_file_size_mb", 10)
	v.SetDefault("import.max_concurrent", 2)
	v.SetDefault("import.acquire_timeout", "30s")
	v.SetDefault("import.archive", false)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "LAWDESK_SERVER_PORT",
		"server.read_timeout":     "LAWDESK_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "LAWDESK_SERVER_WRITE_TIMEOUT",
		"server.environment":      "LAWDESK_SERVER_ENVIRONMENT",
		"db.host":                 "LAWDESK_DB_HOST",
		"db.port":                 "LAWDESK_DB_PORT",
		"db.user":                 "LAWDESK_DB_USER",
		"db.password":             "LAWDESK_DB_PASSWORD",
		"db.name":                 "LAWDESK_DB_NAME",
		"db.sslmode":              "LAWDESK_DB_SSLMODE",
		"db.max_open":             "LAWDESK_DB_MAX_OPEN",
		"db.max_idle":             "LAWDESK_DB_MAX_IDLE",
		"jwt.secret":              "LAWDESK_JWT_SECRET",
		"jwt.issuer":              "LAWDESK_JWT_ISSUER",
		"s3.region":               "LAWDESK_S3_REGION",
		"s3.bucket":               "LAWDESK_S3_BUCKET",
		"s3.endpoint":             "LAWDESK_S3_ENDPOINT",
		"s3.access_key":           "LAWDESK_S3_ACCESS_KEY",
		"s3.secret_key":           "LAWDESK_S3_SECRET_KEY",
		"log.level":               "LAWDESK_LOG_LEVEL",
		"log.format":              "LAWDESK_LOG_FORMAT",
		"cors.allowed_origins":    "LAWDESK_CORS_ALLOWED_ORIGINS",
		"email.provider":          "LAWDESK_EMAIL_PROVIDER",
		"email.region":            "LAWDESK_EMAIL_REGION",
		"email.from_address":      "LAWDESK_EMAIL_FROM_ADDRESS",
		"email.from_name":         "LAWDESK_EMAIL_FROM_NAME",
		"import.max_rows":         "LAWDESK_IMPORT_MAX_ROWS",
		"import.batch_size":       "LAWDESK_IMPORT_BATCH_SIZE",
		"import.batch_timeout":    "LAWDESK_IMPORT_BATCH_TIMEOUT",
		"import.max_file_size_mb": "LAWDESK_IMPORT_MAX_FILE_SIZE_MB",
		"import.max_concurrent":   "LAWDESK_IMPORT_MAX_CONCURRENT",
		"import.acquire_timeout":  "LAWDESK_IMPORT_ACQUIRE_TIMEOUT",
		"import.archive":          "LAWDESK_IMPORT_ARCHIVE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LAWDESK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LAWDESK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	cfg.Import = ImportConfig{
		MaxRows:        v.GetInt("import.max_rows"),
		BatchSize:      v.GetInt("import.batch_size"),
		BatchTimeout:   v.GetDuration("import.batch_timeout"),
		MaxFileSizeMB:  v.GetInt64("import.max_file_size_mb"),
		MaxConcurrent:  v.GetInt("import.max_concurrent"),
		AcquireTimeout: v.GetDuration("import.acquire_timeout"),
		Archive:        v.GetBool("import.archive"),
	}
	if err := cfg.Import.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ImportConfig) validate() error {
	switch {
	case c.MaxRows <= 0:
		return fmt.Errorf("config: import.max_rows must be positive, got %d", c.MaxRows)
	case c.BatchSize <= 0:
		return fmt.Errorf("config: import.batch_size must be positive, got %d", c.BatchSize)
	case c.BatchTimeout <= 0:
		return fmt.Errorf("config: import.batch_timeout must be positive, got %s", c.BatchTimeout)
	case c.MaxConcurrent <= 0:
		return fmt.Errorf("config: import.max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	return nil
}
