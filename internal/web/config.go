package web

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds server settings read from VP_* environment variables.
type Config struct {
	Port    int
	DBPath  string
	DevMode bool
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadConfig reads VP_PORT, VP_DB and VP_DEV_MODE.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VP")
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("DB", "")
	v.SetDefault("DEV_MODE", false)

	cfg := Config{
		Port:    v.GetInt("PORT"),
		DBPath:  v.GetString("DB"),
		DevMode: v.GetBool("DEV_MODE"),
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid VP_PORT %d", cfg.Port)
	}
	return cfg, nil
}
