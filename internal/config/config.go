package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            string
	MongoURI        string
	MongoDB         string
	AuthBaseURL     string
	RedisAddr       string
	RabbitURL       string
	CORSOrigins     string
	SessionTTLDays  int
	RateLimitPerMin int
	Prod            bool
}

func Load() Config {
	return Config{
		Port:            getenv("APP_PORT", "8080"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "blood_db"),
		AuthBaseURL:     getenv("AUTH_BASE_URL", "https://demobackend.emergentagent.com"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RabbitURL:       getenv("RABBIT_URL", ""),
		CORSOrigins:     getenv("CORS_ORIGINS", "*"),
		SessionTTLDays:  atoi(getenv("SESSION_TTL_DAYS", "7")),
		RateLimitPerMin: atoi(getenv("RATE_LIMIT_PER_MIN", "30")),
		Prod:            getenv("APP_ENV", "dev") == "prod",
	}
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
