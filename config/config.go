package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	FirebaseCredentials string

	ConsulAddr  string
	ServiceName string
	ServiceHost string

	AlertTTL      time.Duration
	AlertCooldown time.Duration
	SweepCron     string
	NearbyLimit   int64

	NotifyTimeout time.Duration
	PushBatchSize int
}

func LoadConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "logs/sos-service.log")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "sos")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CONSUL_ADDR", "localhost:8500")
	v.SetDefault("SERVICE_NAME", "sos-service")
	v.SetDefault("SERVICE_HOST", "localhost")
	v.SetDefault("ALERT_TTL", "2h")
	v.SetDefault("ALERT_COOLDOWN", "30m")
	v.SetDefault("SWEEP_CRON", "0 */5 * * * *")
	v.SetDefault("NEARBY_LIMIT", 50)
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("PUSH_BATCH_SIZE", 500)

	return &Config{
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFile:             v.GetString("LOG_FILE"),
		MongoURI:            v.GetString("MONGO_URI"),
		MongoDB:             v.GetString("MONGO_DB"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		FirebaseCredentials: v.GetString("FIREBASE_CREDENTIALS"),
		ConsulAddr:          v.GetString("CONSUL_ADDR"),
		ServiceName:         v.GetString("SERVICE_NAME"),
		ServiceHost:         v.GetString("SERVICE_HOST"),
		AlertTTL:            v.GetDuration("ALERT_TTL"),
		AlertCooldown:       v.GetDuration("ALERT_COOLDOWN"),
		SweepCron:           v.GetString("SWEEP_CRON"),
		NearbyLimit:         v.GetInt64("NEARBY_LIMIT"),
		NotifyTimeout:       v.GetDuration("NOTIFY_TIMEOUT"),
		PushBatchSize:       v.GetInt("PUSH_BATCH_SIZE"),
	}
}
