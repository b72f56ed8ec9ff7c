package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type MicroSQLConfig struct {
	AppName string `mapstructure:"app_name"`

	Database struct {
		Name string `mapstructure:"name"`
		Dir  string `mapstructure:"dir"`
	} `mapstructure:"database"`

	Server struct {
		Addr  string `mapstructure:"addr"`
		Debug bool   `mapstructure:"debug"`
	} `mapstructure:"server"`
}

func LoadConfig(path string) (*MicroSQLConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "microsql")
	v.SetDefault("database.name", "microsql")
	v.SetDefault("database.dir", "./data")
	v.SetDefault("server.addr", "127.0.0.1:8877")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg MicroSQLConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
