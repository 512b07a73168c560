package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
	URLExpiry  time.Duration
}

type Firestore struct {
	ProjectID       string
	EmulatorHost    string
	CredentialsFile string
}

type Push struct {
	Endpoint    string
	AccessToken string
	Timeout     time.Duration
}

type Config struct {
	ServerPort           int
	LogLevel             string
	DB                   DB
	MinIO                MinIO
	Firestore            Firestore
	Push                 Push
	JWTSecretKey         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	RecentLoginWindow    time.Duration
	ProfileCheckTimeout  time.Duration
	MaxUploadSize        int64
	SeedEventsFile       string
	PurgeConcurrency     int
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "heronnest"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadMinIO() MinIO {
	return MinIO{
		Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "heronnest"),
		UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
		URLExpiry:  getEnvDuration("MINIO_URL_EXPIRY", 7*24*time.Hour),
	}
}

func LoadFirestore() Firestore {
	return Firestore{
		ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		EmulatorHost:    getEnv("FIRESTORE_EMULATOR_HOST", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
	}
}

func LoadPush() Push {
	return Push{
		Endpoint:    getEnv("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),
		AccessToken: getEnv("PUSH_ACCESS_TOKEN", ""),
		Timeout:     getEnvDuration("PUSH_TIMEOUT", 5*time.Second),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		ServerPort:           getEnvAsInt("SERVER_PORT", 8080),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DB:                   LoadDB(),
		MinIO:                LoadMinIO(),
		Firestore:            LoadFirestore(),
		Push:                 LoadPush(),
		JWTSecretKey:         getEnv("JWT_SECRET_KEY", ""),
		AccessTokenDuration:  getEnvDuration("ACCESS_TOKEN_DURATION", 2*time.Hour),
		RefreshTokenDuration: getEnvDuration("REFRESH_TOKEN_DURATION", 168*time.Hour),
		RecentLoginWindow:    getEnvDuration("RECENT_LOGIN_WINDOW", 5*time.Minute),
		ProfileCheckTimeout:  getEnvDuration("PROFILE_CHECK_TIMEOUT", 10*time.Second),
		MaxUploadSize:        parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		SeedEventsFile:       getEnv("SEED_EVENTS_FILE", ""),
		PurgeConcurrency:     getEnvAsInt("PURGE_CONCURRENCY", 16),
	}
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}
