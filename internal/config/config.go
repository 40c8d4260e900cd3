package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Router   RouterConfig   `mapstructure:"router"`
	Bridge   BridgeConfig   `mapstructure:"bridge"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Actors   []ActorConfig  `mapstructure:"actors"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	AdminKey      string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
	AuditListKey          string `mapstructure:"audit_list_key"`
	AuditListMax          int    `mapstructure:"audit_list_max"`
}

// RouterConfig bootstraps the mandate authority at process start. The
// core never reads ambient state; this struct is handed in once.
type RouterConfig struct {
	Admin            string `mapstructure:"admin"`
	OracleAuthority  string `mapstructure:"oracle_authority"`
	RiskThresholdBps int    `mapstructure:"risk_threshold_bps"`

	// ConfidenceMode picks the floor applied to signal confidence at
	// execution time: "current" reapplies the live risk threshold,
	// "frozen" uses the threshold captured when the mandate was minted.
	ConfidenceMode string `mapstructure:"confidence_mode"`
}

type BridgeConfig struct {
	Mode           string `mapstructure:"mode"`    // "mock" or "wormhole"
	Network        string `mapstructure:"network"` // "testnet" or "mainnet"
	EvmRPCURL      string `mapstructure:"evm_rpc_url"`
	EvmPrivateKey  string `mapstructure:"evm_private_key"`
	EvmTokenBridge string `mapstructure:"evm_token_bridge"`
	EvmChainID     int64  `mapstructure:"evm_chain_id"`
	GuardianAPI    string `mapstructure:"guardian_api"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms"`
	TimeoutMs      int    `mapstructure:"timeout_ms"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ActorConfig struct {
	ID     string  `mapstructure:"id"`
	Name   string  `mapstructure:"name"`
	APIKey string  `mapstructure:"api_key"`
	Role   string  `mapstructure:"role"`
	QPS    float64 `mapstructure:"qps"`
	Burst  int     `mapstructure:"burst"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. SLABGATE_BRIDGE_EVM_RPC_URL
	viper.SetEnvPrefix("slabgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("auth.admin_key", "")
	viper.SetDefault("redis.idempotency_ttl_seconds", 86400)
	viper.SetDefault("redis.audit_list_key", "audit_logs")
	viper.SetDefault("redis.audit_list_max", 10000)
	viper.SetDefault("database.audit_retention_days", 30)
	viper.SetDefault("router.risk_threshold_bps", 7000)
	viper.SetDefault("router.confidence_mode", "current")
	viper.SetDefault("bridge.mode", "mock")
	viper.SetDefault("bridge.network", "testnet")
	viper.SetDefault("bridge.evm_chain_id", 56)
	viper.SetDefault("bridge.poll_interval_ms", 2000)
	viper.SetDefault("bridge.timeout_ms", 120000)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
