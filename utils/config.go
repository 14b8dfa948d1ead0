package utils

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DomainName     string
	AllowedOrigins []string
}

func LoadConfig() *Config {
	// A missing .env file is fine in production; env vars win either way.
	_ = godotenv.Load()

	origins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		DomainName:     os.Getenv("DOMAIN_NAME"),
		AllowedOrigins: origins,
	}
}
