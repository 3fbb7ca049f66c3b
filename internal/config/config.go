/**
 * @description
 * This package handles configuration management for the service. It uses the
 * Viper library to read settings from environment variables and an optional
 * .env file, applying defaults and clamping obviously invalid values.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the transfer-service.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	LedgerServiceURL           string `mapstructure:"LEDGER_SERVICE_URL"`
	LedgerAPIKey               string `mapstructure:"LEDGER_API_KEY"`
	LedgerRetryAttempts        int    `mapstructure:"LEDGER_RETRY_ATTEMPTS"`
	RiskServiceURL             string `mapstructure:"RISK_SERVICE_URL"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	NotifyExchange             string `mapstructure:"NOTIFY_EXCHANGE"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables and an optional
// .env file at the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LEDGER_RETRY_ATTEMPTS", 3)
	viper.SetDefault("NOTIFY_EXCHANGE", "bank.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "transfer:rate_limit")
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 30)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("LEDGER_SERVICE_URL")
	_ = viper.BindEnv("LEDGER_API_KEY")
	_ = viper.BindEnv("LEDGER_RETRY_ATTEMPTS")
	_ = viper.BindEnv("RISK_SERVICE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFY_EXCHANGE")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.LedgerServiceURL = strings.TrimSpace(config.LedgerServiceURL)
	config.RiskServiceURL = strings.TrimSpace(config.RiskServiceURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)

	if config.LedgerRetryAttempts <= 0 {
		log.Printf("level=warn component=config msg=\"invalid ledger retry attempts; using default\" value=%d", config.LedgerRetryAttempts)
		config.LedgerRetryAttempts = 3
	}
	if config.TransferRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative rate limit configured; disabling\" value=%d", config.TransferRateLimitPerMinute)
		config.TransferRateLimitPerMinute = 0
	}
	if strings.TrimSpace(config.RedisRateLimitPrefix) == "" {
		config.RedisRateLimitPrefix = "transfer:rate_limit"
	}
	if strings.TrimSpace(config.NotifyExchange) == "" {
		config.NotifyExchange = "bank.events"
	}

	return
}
