package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string

	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string

	LogFormat string // text or json
	LogLevel  string

	// Bot API used as ad-hoc remote file storage.
	BotToken   string
	BotAPIBase string

	FileCacheTTL  time.Duration
	FileCacheSize int

	RateLimitMax    int
	RateLimitWindow time.Duration

	AdminEmail string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "eduplatform")
	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("BOT_API_BASE", "https://api.telegram.org")
	v.SetDefault("FILE_CACHE_TTL", "55m")
	v.SetDefault("FILE_CACHE_SIZE", 1000)
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("ADMIN_EMAIL", "")

	return &Config{
		ServerPort:      v.GetString("SERVER_PORT"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		BotToken:        v.GetString("BOT_TOKEN"),
		BotAPIBase:      v.GetString("BOT_API_BASE"),
		FileCacheTTL:    v.GetDuration("FILE_CACHE_TTL"),
		FileCacheSize:   v.GetInt("FILE_CACHE_SIZE"),
		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
	}, nil
}
