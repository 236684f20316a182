package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Game        GameConfig        `mapstructure:"game"`
}

type ServerConfig struct {
	ListenAddress  string `mapstructure:"listen_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
}

type PersistenceConfig struct {
	// Backend is "file" or "postgres".
	Backend  string         `mapstructure:"backend"`
	FilePath string         `mapstructure:"file_path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type GameConfig struct {
	MaxPlayers    int           `mapstructure:"max_players"`
	StartingCards int           `mapstructure:"starting_cards"`
	DealPacing    time.Duration `mapstructure:"deal_pacing"`
	BotDelayMin   time.Duration `mapstructure:"bot_delay_min"`
	BotDelayMax   time.Duration `mapstructure:"bot_delay_max"`
	GracePeriod   time.Duration `mapstructure:"grace_period"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.listen_address", ":3000")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.rpc_address", ":9101")
	viper.SetDefault("persistence.backend", "file")
	viper.SetDefault("persistence.file_path", "gamestate.json")
	viper.SetDefault("game.max_players", 10)
	viper.SetDefault("game.starting_cards", 7)
	viper.SetDefault("game.deal_pacing", "200ms")
	viper.SetDefault("game.bot_delay_min", "600ms")
	viper.SetDefault("game.bot_delay_max", "1100ms")
	viper.SetDefault("game.grace_period", "30s")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		// A missing file falls back to defaults; anything else is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
