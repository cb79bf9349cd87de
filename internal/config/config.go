// Package config loads runtime configuration from environment variables.
// A .env file is honored in development; required variables that are missing
// abort startup immediately rather than failing later mid-request.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.
type Config struct {
	Env  string // application environment ("dev", "prod")
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	JWTSecret  string // secret used to sign access tokens
	BcryptCost int    // bcrypt cost for password and setup-token hashing

	AMQPURL string // security alert broker; empty disables alert fan-out

	FrontendURL string // public origin the password-setup link points at
	StoreName   string // display name used in outgoing mail
}

// Load reads configuration from the environment. Optional values default;
// required values are enforced by must() and abort the process when missing.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   must("JWT_SECRET"),
		BcryptCost:  mustInt("BCRYPT_COST"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		FrontendURL: envStr("FRONTEND_URL", "http://localhost:3000"),
		StoreName:   envStr("STORE_NAME", "Velora"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() with integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
