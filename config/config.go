package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Clerk    ClerkConfig
	Theme    ThemeConfig
	Upload   UploadConfig
	Sweeper  SweeperConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	URL      string // takes precedence over the discrete fields when set
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
	Folder          string
}

type ClerkConfig struct {
	SecretKey string
	APIURL    string
	// JWTKey is the PEM encoded public key used to verify session tokens without a network call.
	JWTKey string
	// AuthorizedParties restricts the azp claim when non-empty.
	AuthorizedParties []string
}

type ThemeConfig struct {
	FilePath string
}

type UploadConfig struct {
	MaxFiles     int
	MaxFileBytes int64
	AllowedTypes []string
}

type SweeperConfig struct {
	Schedule string
	Grace    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "5000"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", "storefront"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "storefront-products"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			Folder:          getEnv("AWS_S3_FOLDER", "products"),
		},
		Clerk: ClerkConfig{
			SecretKey:         getEnv("CLERK_SECRET_KEY", ""),
			APIURL:            getEnv("CLERK_API_URL", "https://api.clerk.com/v1"),
			JWTKey:            getEnv("CLERK_JWT_KEY", ""),
			AuthorizedParties: parseSlice(getEnv("CLERK_AUTHORIZED_PARTIES", "")),
		},
		Theme: ThemeConfig{
			FilePath: getEnv("THEME_FILE", "theme.json"),
		},
		Upload: UploadConfig{
			MaxFiles:     parseInt(getEnv("UPLOAD_MAX_FILES", "5"), 5),
			MaxFileBytes: int64(parseInt(getEnv("UPLOAD_MAX_FILE_MB", "10"), 10)) << 20,
			AllowedTypes: parseSlice(getEnv("UPLOAD_ALLOWED_TYPES", "image/jpeg,image/png,image/webp")),
		},
		Sweeper: SweeperConfig{
			Schedule: getEnv("ORPHAN_SWEEP_SCHEDULE", "*/30 * * * *"),
			Grace:    parseDuration(getEnv("ORPHAN_SWEEP_GRACE", "1h"), time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "*")),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
