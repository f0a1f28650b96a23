package config

import (
	"os"
	"strconv"
	"time"
)

// Config device-registry 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Mongo struct {
		URI      string
		Database string
		Timeout  time.Duration
	}
	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
		QoS      byte
	}
	Asset struct {
		BaseURL string
		Timeout time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Mongo.URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", "device-registry")
	cfg.Mongo.Timeout = time.Duration(parseInt(getEnv("MONGO_TIMEOUT_SECONDS", "10"), 10)) * time.Second

	// Redis backs the per-device assignment lock. When disabled the
	// registry falls back to an in-process lock (single instance only).
	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	// MQTT 生命周期事件发布（默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "device-registry")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC_PREFIX", "registry/events")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "0"), 0))

	cfg.Asset.BaseURL = getEnv("ASSET_MODULE_URL", "http://localhost:9000")
	cfg.Asset.Timeout = time.Duration(parseInt(getEnv("ASSET_TIMEOUT_SECONDS", "5"), 5)) * time.Second

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}
