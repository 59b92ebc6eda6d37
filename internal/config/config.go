package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Debug       DebugConfig       `mapstructure:"debug"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	ListKey    string `mapstructure:"list_key"`
	ListMax    int    `mapstructure:"list_max"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type DiagnosticsConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Pretty       bool    `mapstructure:"pretty"`
	Sink         string  `mapstructure:"sink"` // stderr, stdout, file
	FileDir      string  `mapstructure:"file_dir"`
	BufferSize   int     `mapstructure:"buffer_size"`
	RecentMax    int     `mapstructure:"recent_max"`
	MaxPerSecond float64 `mapstructure:"max_per_second"` // 0 disables throttling
	Burst        int     `mapstructure:"burst"`
}

type DebugConfig struct {
	Key string `mapstructure:"key"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// Environment variables support
	// e.g. SCHEMASCOPE_DATABASE_DSN
	v.SetEnvPrefix("schemascope")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.list_key", "schemascope:diagnostics")
	v.SetDefault("redis.list_max", 500)
	v.SetDefault("redis.ttl_seconds", 3600)
	v.SetDefault("diagnostics.enabled", true)
	v.SetDefault("diagnostics.pretty", true)
	v.SetDefault("diagnostics.sink", "stderr")
	v.SetDefault("diagnostics.file_dir", "./logs")
	v.SetDefault("diagnostics.buffer_size", 1000)
	v.SetDefault("diagnostics.recent_max", 200)
	v.SetDefault("diagnostics.max_per_second", 0)
	v.SetDefault("diagnostics.burst", 50)
	v.SetDefault("debug.key", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
