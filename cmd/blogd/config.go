package main

import (
	"os"
	"strconv"
	"strings"

	blog "github.com/goliatone/go-blog"
	"github.com/joho/godotenv"
)

type appConfig struct {
	port            string
	dsn             string
	signingKey      string
	signingMethod   string
	contextKey      string
	tokenExpiration int
	tokenLookup     string
	authScheme      string
	issuer          string
	audience        []string
	debug           bool
}

// loadConfig reads the environment, with .env as an optional overlay for
// local development.
func loadConfig(logger blog.Logger) *appConfig {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment")
	}

	return &appConfig{
		port:            getEnv("PORT", "5000"),
		dsn:             getEnv("DATABASE_DSN", "file:blog.db?_pragma=foreign_keys(1)"),
		signingKey:      getEnv("JWT_SECRET", "fallback-secret"),
		signingMethod:   getEnv("JWT_SIGNING_METHOD", "HS256"),
		contextKey:      getEnv("AUTH_CONTEXT_KEY", "user"),
		tokenExpiration: getEnvAsInt("JWT_EXPIRATION_HOURS", blog.DefaultTokenExpiration),
		tokenLookup:     getEnv("AUTH_TOKEN_LOOKUP", "header:Authorization"),
		authScheme:      getEnv("AUTH_SCHEME", "Bearer"),
		issuer:          getEnv("JWT_ISSUER", ""),
		audience:        getEnvAsSlice("JWT_AUDIENCE"),
		debug:           getEnvAsBool("DEBUG", false),
	}
}

func (c *appConfig) GetSigningKey() string   { return c.signingKey }
func (c *appConfig) GetSigningMethod() string { return c.signingMethod }
func (c *appConfig) GetContextKey() string   { return c.contextKey }
func (c *appConfig) GetTokenExpiration() int { return c.tokenExpiration }
func (c *appConfig) GetTokenLookup() string  { return c.tokenLookup }
func (c *appConfig) GetAuthScheme() string   { return c.authScheme }
func (c *appConfig) GetIssuer() string       { return c.issuer }
func (c *appConfig) GetAudience() []string   { return c.audience }

var _ blog.Config = (*appConfig)(nil)

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return nil
	}
	parts := strings.Split(strValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
