package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Cron   CronConfig   `mapstructure:"cron"`
	Oracle OracleConfig `mapstructure:"oracle"`
	Game   GameConfig   `mapstructure:"game"`
	Assets []AssetSeed  `mapstructure:"assets"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Disabled bool          `mapstructure:"disabled"`
}

type CronConfig struct {
	Evaluate      string `mapstructure:"evaluate"`
	PriceRefresh  string `mapstructure:"price_refresh"`
	SlotBroadcast string `mapstructure:"slot_broadcast"`
	RolloverCheck string `mapstructure:"rollover_check"`
}

type OracleConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Endpoint templates per asset class; %s is replaced by the symbol.
	CryptoEndpoint string `mapstructure:"crypto_endpoint"`
	StockEndpoint  string `mapstructure:"stock_endpoint"`
	ForexEndpoint  string `mapstructure:"forex_endpoint"`
}

type GameConfig struct {
	// Timezone anchors slot periods and the monthly rollover boundary.
	Timezone        string `mapstructure:"timezone"`
	LeaderboardSize int    `mapstructure:"leaderboard_size"`
	EvaluateBatch   int    `mapstructure:"evaluate_batch"`
}

type AssetSeed struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
	Class  string `mapstructure:"class"`
	Active bool   `mapstructure:"active"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UPDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("cron.evaluate", "0 */5 * * * *")
	v.SetDefault("cron.price_refresh", "0 */1 * * * *")
	v.SetDefault("cron.slot_broadcast", "0 */15 * * * *")
	v.SetDefault("cron.rollover_check", "0 */1 * * * *")
	v.SetDefault("oracle.timeout", "10s")
	v.SetDefault("oracle.cache_ttl", "10m")
	v.SetDefault("oracle.crypto_endpoint", "https://api.binance.com/api/v3/ticker/price?symbol=%sUSDT")
	v.SetDefault("oracle.stock_endpoint", "")
	v.SetDefault("oracle.forex_endpoint", "")
	v.SetDefault("game.timezone", "UTC")
	v.SetDefault("game.leaderboard_size", 100)
	v.SetDefault("game.evaluate_batch", 500)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
