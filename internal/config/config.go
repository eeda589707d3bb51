package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisURL      string
	RedisAddr     string
	RedisPassword string

	MongoURI string
	MongoDB  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret   string
	CORSOrigins []string
}

// Load reads the environment, after loading a .env file outside production.
// It fails when JWT_SECRET is not set.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, using process environment")
		}
	}

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DBDriver:       strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", ""),
		DBUser:         getenv("DB_USER", ""),
		DBPassword:     getenv("DB_PASS", ""),
		DBName:         getenv("DB_NAME", "todolist"),
		RedisURL:       getenv("REDIS_URL", ""),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "todolist"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "todolist-archive"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		JWTSecret:      getenv("JWT_SECRET", ""),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// DSN returns the data source name for the configured driver.
// DATABASE_URL wins over the individual DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	switch c.DBDriver {
	case "mysql":
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, port)
		mc.DBName = c.DBName
		return mc.FormatDSN()
	case "sqlite3":
		return c.DBName + ".db"
	default:
		host := c.DBHost
		if c.DBPort != "" {
			host = net.JoinHostPort(c.DBHost, c.DBPort)
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.DBUser, c.DBPassword),
			Host:   host,
			Path:   "/" + c.DBName,
		}
		return u.String()
	}
}

// CacheEnabled reports whether a Redis target is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

// String returns a representation of the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, DB: %s@%s/%s (%s), Redis: %t, Mongo: %t, MinIO: %t, JWT: ***}",
		c.Port, c.DBUser, c.DBHost, c.DBName, c.DBDriver,
		c.CacheEnabled(), c.MongoURI != "", c.MinioEndpoint != "")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
