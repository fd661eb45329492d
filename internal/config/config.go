package config

import (
	"fmt"
	"time"

	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"github.com/abenikeb/biisho-a2p/pkg/mysql"
	"github.com/spf13/viper"
)

type Config struct {
	API        API             `mapstructure:"api"`
	Database   mysql.Config    `mapstructure:"database"`
	RabbitMQ   mq.Config       `mapstructure:"rabbitmq"`
	Redis      Redis           `mapstructure:"redis"`
	Contacts   contacts.Config `mapstructure:"contacts"`
	Dispatch   Dispatch        `mapstructure:"dispatch"`
	Settlement Settlement      `mapstructure:"settlement"`
	Scheduler  Scheduler       `mapstructure:"scheduler"`
}

type API struct {
	Port string `mapstructure:"port"`
}

type Redis struct {
	Addr       string        `mapstructure:"addr"`
	SettingTTL time.Duration `mapstructure:"setting_ttl"`
}

type Dispatch struct {
	MaxTxRetries int           `mapstructure:"max_tx_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type Settlement struct {
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
	DeliveredPercent int           `mapstructure:"delivered_percent"`
}

type Scheduler struct {
	Spec      string `mapstructure:"spec"`
	BatchSize int    `mapstructure:"batch_size"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
