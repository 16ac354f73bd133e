package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	RemoteURL             string
	RemoteAPIKey          string
	LocalDBPath           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	AdminPassword         string
	StaffPassword         string
	RentPhp               int64
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	rentPhp, err := strconv.ParseInt(getEnv("RENT_PHP", "0"), 10, 64)
	if err != nil || rentPhp < 0 {
		rentPhp = 0
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		RemoteURL:             strings.TrimRight(strings.TrimSpace(os.Getenv("POSTGREST_URL")), "/"),
		RemoteAPIKey:          strings.TrimSpace(os.Getenv("POSTGREST_API_KEY")),
		LocalDBPath:           getEnv("LOCAL_DB_PATH", "tindahan.db"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		AdminPassword:         strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		StaffPassword:         strings.TrimSpace(os.Getenv("STAFF_PASSWORD")),
		RentPhp:               rentPhp,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
