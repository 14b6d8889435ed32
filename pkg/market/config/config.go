package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration, sourced from the environment.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	ListenAddress       string        `mapstructure:"listen_address"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	SolanaRpcUrl  string        `mapstructure:"solana_rpc_url"`
	IndexInterval time.Duration `mapstructure:"index_interval"`

	HeartbeatCronSchedule string `mapstructure:"heartbeat_cron_schedule"`

	Db DbConfig `mapstructure:"db"`
}

type DbConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`

	MaxOpenConnections int `mapstructure:"max_open_connections"`
	MaxIdleConnections int `mapstructure:"max_idle_connections"`
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("listen_address", "LISTEN_ADDRESS")
	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("solana_rpc_url", "SOLANA_RPC_URL")
	_ = viper.BindEnv("index_interval", "INDEX_INTERVAL")

	_ = viper.BindEnv("heartbeat_cron_schedule", "HEARTBEAT_CRON_SCHEDULE")

	_ = viper.BindEnv("db.user", "DB_USER")
	_ = viper.BindEnv("db.password", "DB_PASSWORD")
	_ = viper.BindEnv("db.host", "DB_HOST")
	_ = viper.BindEnv("db.port", "DB_PORT")
	_ = viper.BindEnv("db.name", "DB_NAME")
	_ = viper.BindEnv("db.max_open_connections", "DB_MAX_OPEN_CONNECTIONS")
	_ = viper.BindEnv("db.max_idle_connections", "DB_MAX_IDLE_CONNECTIONS")
}

// Load resolves the configuration from the environment, applying defaults
// for anything unset.
func Load() (*Config, error) {
	viper.SetDefault("log_level", "info")

	viper.SetDefault("listen_address", ":8080")
	viper.SetDefault("shutdown_grace_period", 30*time.Second)

	viper.SetDefault("solana_rpc_url", "http://localhost:8899")
	viper.SetDefault("index_interval", 15*time.Second)

	viper.SetDefault("heartbeat_cron_schedule", "0 * * * *")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.max_open_connections", 16)
	viper.SetDefault("db.max_idle_connections", 4)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
