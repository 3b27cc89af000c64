package utils

import (
	"fmt"
	"log/slog"
	"os"
)

type AppConfig struct {
	DiscordBotToken    string
	DiscordHTTPBaseURL string
	APIAddress         string
	APIAuthToken       string
	AppEnv             string
}

func LoadConfiguration() AppConfig {
	cfg := AppConfig{}
	requiredEnv := map[string]*string{
		"DC_BOT_TOKEN":     &cfg.DiscordBotToken,
		"DC_HTTP_BASE_URL": &cfg.DiscordHTTPBaseURL,
		"API_ADDRESS":      &cfg.APIAddress,
		"APP_ENV":          &cfg.AppEnv,
	}
	for k, v := range requiredEnv {
		if val, ok := os.LookupEnv(k); !ok {
			slog.Error(fmt.Sprintf("Provide: %s", k))
			os.Exit(1)
		} else {
			*v = val
		}
	}
	// Optional. Leaving it unset disables the inspection endpoints' auth.
	cfg.APIAuthToken = os.Getenv("API_AUTH_TOKEN")
	return cfg
}
