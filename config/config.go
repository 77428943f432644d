package config

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT" validate:"required"`
	LogLevel           string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	InternalAuthHeader string        `mapstructure:"INTERNAL_AUTH_HEADER" validate:"required"`
	Db                 DbConfig      `mapstructure:",squash"`
	Jwt                JwtConfig     `mapstructure:",squash"`
	Nats               NatsConfig    `mapstructure:",squash"`
	Restock            RestockConfig `mapstructure:",squash"`
}

type DbConfig struct {
	Host     string `mapstructure:"DB_HOST" validate:"required"`
	Port     string `mapstructure:"DB_PORT" validate:"required"`
	Username string `mapstructure:"DB_USERNAME" validate:"required"`
	Password string `mapstructure:"DB_PASSWORD" validate:"required"`
	DbName   string `mapstructure:"DB_DBNAME" validate:"required"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type JwtConfig struct {
	SecretKey string `mapstructure:"JWT_SECRETKEY" validate:"required"`
}

type NatsConfig struct {
	Url             string        `mapstructure:"NATS_URL" validate:"required"`
	StreamName      string        `mapstructure:"NATS_STREAM_NAME" validate:"required"`
	StockStreamName string        `mapstructure:"NATS_STOCK_STREAM_NAME" validate:"required"`
	DuplicateWindow time.Duration `mapstructure:"NATS_DUPLICATE_WINDOW" validate:"gte=0"`
}

type RestockConfig struct {
	// TriggerDelay defers restock execution through the broker when positive.
	TriggerDelay      time.Duration `mapstructure:"RESTOCK_TRIGGER_DELAY" validate:"gte=0"`
	InventoryRequired int64         `mapstructure:"RESTOCK_INVENTORY_REQUIRED" validate:"min=1"`
}

var envVars = []string{
	"PORT",
	"LOG_LEVEL",
	"INTERNAL_AUTH_HEADER",
	"DB_HOST",
	"DB_PORT",
	"DB_USERNAME",
	"DB_PASSWORD",
	"DB_DBNAME",
	"DB_SSLMODE",
	"JWT_SECRETKEY",
	"NATS_URL",
	"NATS_STREAM_NAME",
	"NATS_STOCK_STREAM_NAME",
	"NATS_DUPLICATE_WINDOW",
	"RESTOCK_TRIGGER_DELAY",
	"RESTOCK_INVENTORY_REQUIRED",
}

func InitConfig(ctx context.Context) (*Config, error) {
	var cfg Config

	// Reset viper to avoid any previous configuration
	viper.Reset()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("env")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("NATS_STREAM_NAME", "restock")
	viper.SetDefault("NATS_STOCK_STREAM_NAME", "stock")
	viper.SetDefault("NATS_DUPLICATE_WINDOW", "2m")
	viper.SetDefault("RESTOCK_TRIGGER_DELAY", "0s")
	viper.SetDefault("RESTOCK_INVENTORY_REQUIRED", 1)

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	_, err := os.Stat(envFile)
	if !os.IsNotExist(err) {
		viper.SetConfigFile(envFile)

		if err := viper.ReadInConfig(); err != nil {
			// Continue with just environment variables
			slog.WarnContext(ctx, "[InitConfig] ReadInConfig warning, continuing with env vars only", "error", err)
		} else {
			slog.InfoContext(ctx, "[InitConfig] Successfully loaded config file", "file", envFile)
		}
	} else {
		slog.InfoContext(ctx, "[InitConfig] No config file found, using environment variables")
	}

	viper.AutomaticEnv()

	for _, key := range envVars {
		if err := viper.BindEnv(key); err != nil {
			slog.WarnContext(ctx, "[InitConfig] BindEnv", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.ErrorContext(ctx, "[InitConfig] Unmarshal", "failed bind config", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Configuration after binding",
		"PORT", cfg.Port,
		"LOG_LEVEL", cfg.LogLevel,
		"DB_HOST", cfg.Db.Host,
		"DB_PORT", cfg.Db.Port,
		"DB_USERNAME", cfg.Db.Username,
		"DB_DBNAME", cfg.Db.DbName,
		"DB_SSLMODE", cfg.Db.SSLMode,
		"NATS_URL", cfg.Nats.Url,
		"NATS_STREAM_NAME", cfg.Nats.StreamName,
		"NATS_STOCK_STREAM_NAME", cfg.Nats.StockStreamName,
		"RESTOCK_TRIGGER_DELAY", cfg.Restock.TriggerDelay,
		"RESTOCK_INVENTORY_REQUIRED", cfg.Restock.InventoryRequired)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if ok {
			for _, validationErr := range validationErrs {
				slog.ErrorContext(ctx, "[InitConfig] Validation error",
					"field", validationErr.Field(),
					"namespace", validationErr.Namespace(),
					"tag", validationErr.Tag(),
					"value", validationErr.Value())
			}
		} else {
			slog.ErrorContext(ctx, "[InitConfig] Validation", "error", err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Config loaded successfully")
	return &cfg, nil
}
