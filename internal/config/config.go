package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Engine struct {
		WindowSeconds           int `mapstructure:"window_seconds"`
		HeartbeatTimeoutSeconds int `mapstructure:"heartbeat_timeout_seconds"`
	} `mapstructure:"engine"`
	Storage struct {
		Provider      string `mapstructure:"provider"` // "s3" or "local"
		KeyID         string `mapstructure:"key_id"`
		AppKey        string `mapstructure:"app_key"`
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		Bucket        string `mapstructure:"bucket"`
		URLTTLSeconds int    `mapstructure:"url_ttl_seconds"`
		LocalPath     string `mapstructure:"local_path"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	} `mapstructure:"storage"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
}

// Window is the manifest validity window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Engine.WindowSeconds) * time.Second
}

// HeartbeatTimeout is the online-device window as a duration.
func (c *Config) HeartbeatTimeout() time.Duration {
	return time.Duration(c.Engine.HeartbeatTimeoutSeconds) * time.Second
}

func Load() *Config {
	viper.SetEnvPrefix("STORECAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")

	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	viper.BindEnv("engine.window_seconds")
	viper.BindEnv("engine.heartbeat_timeout_seconds")

	viper.BindEnv("storage.provider")
	viper.BindEnv("storage.key_id")
	viper.BindEnv("storage.app_key")
	viper.BindEnv("storage.endpoint")
	viper.BindEnv("storage.region")
	viper.BindEnv("storage.bucket")
	viper.BindEnv("storage.url_ttl_seconds")
	viper.BindEnv("storage.local_path")
	viper.BindEnv("storage.public_base_url")

	viper.BindEnv("auth.jwt_secret")

	// Defaults
	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.metrics_port", ":9091")

	// Manifest validity window: one hour, heartbeat: ten minutes.
	viper.SetDefault("engine.window_seconds", 3600)
	viper.SetDefault("engine.heartbeat_timeout_seconds", 600)

	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_path", "./media")
	viper.SetDefault("storage.public_base_url", "http://localhost:8080/media")
	viper.SetDefault("storage.url_ttl_seconds", 3900) // outlives the manifest TTL

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Auth.JWTSecret == "" {
		log.Println("Warning: STORECAST_AUTH_JWT_SECRET not set, using insecure dev secret")
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}

	return &cfg
}
