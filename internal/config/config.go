/**
 * @description
 * This file handles configuration management for the dunning service.
 * It loads settings from environment variables, providing defaults for the
 * reminder schedule and dispatch behavior.
 */
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dunning service.
type Config struct {
	DatabaseURL            string  `mapstructure:"DATABASE_URL"`
	RabbitMQURL            string  `mapstructure:"RABBITMQ_URL"`
	ServerPort             string  `mapstructure:"SERVER_PORT"`
	InternalAPIKey         string  `mapstructure:"INTERNAL_API_KEY"`
	ReminderJobSchedule    string  `mapstructure:"REMINDER_JOB_SCHEDULE"`
	WorkerCount            int     `mapstructure:"WORKER_COUNT"`
	DispatchMaxRetries     int     `mapstructure:"DISPATCH_MAX_RETRIES"`
	DispatchInitialDelayMS int     `mapstructure:"DISPATCH_INITIAL_DELAY_MS"`
	FailureAlertThreshold  int     `mapstructure:"FAILURE_ALERT_THRESHOLD"`
	MonthlyBudgetCap       float64 `mapstructure:"MONTHLY_BUDGET_CAP"`
	EmailProviderURL       string  `mapstructure:"EMAIL_PROVIDER_URL"`
	EmailProviderKey       string  `mapstructure:"EMAIL_PROVIDER_KEY"`
	SMSProviderURL         string  `mapstructure:"SMS_PROVIDER_URL"`
	SMSProviderKey         string  `mapstructure:"SMS_PROVIDER_KEY"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("REMINDER_JOB_SCHEDULE", "0 */6 * * *") // Every 6 hours.
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("DISPATCH_MAX_RETRIES", 3)
	viper.SetDefault("DISPATCH_INITIAL_DELAY_MS", 1000)
	viper.SetDefault("FAILURE_ALERT_THRESHOLD", 3)
	viper.SetDefault("MONTHLY_BUDGET_CAP", 0) // 0 disables the budget check.
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("REMINDER_JOB_SCHEDULE")
	_ = viper.BindEnv("WORKER_COUNT")
	_ = viper.BindEnv("DISPATCH_MAX_RETRIES")
	_ = viper.BindEnv("DISPATCH_INITIAL_DELAY_MS")
	_ = viper.BindEnv("FAILURE_ALERT_THRESHOLD")
	_ = viper.BindEnv("MONTHLY_BUDGET_CAP")
	_ = viper.BindEnv("EMAIL_PROVIDER_URL")
	_ = viper.BindEnv("EMAIL_PROVIDER_KEY")
	_ = viper.BindEnv("SMS_PROVIDER_URL")
	_ = viper.BindEnv("SMS_PROVIDER_KEY")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL must be set")
	}

	return &config, nil
}
