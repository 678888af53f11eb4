package config

import (
	"log"
	"os"

	"truckdrive-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Log is the application-wide structured logger
var Log *zap.SugaredLogger

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret []byte

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads .env (if present) and initializes logger and secrets
func Load() {
	// Missing .env is fine, env vars may come from the shell
	_ = godotenv.Load()

	zl, err := zap.NewProduction()
	if getEnv("APP_ENV", "development") == "development" {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	Log = zl.Sugar()

	JWTSecret = []byte(getEnv("JWT_SECRET", "truckdrive_super_secret_2024"))
}

func InitDB() {
	dsn := getEnv("DB_PATH", "truckdrive.db")
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		Log.Fatalw("Failed to connect to database", "error", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.DeliveryRequest{},
		&models.Bid{},
		&models.Delivery{},
		&models.Contact{},
		&models.Message{},
	)
	if err != nil {
		Log.Fatalw("Failed to migrate database", "error", err)
	}

	Log.Infow("Database connected and migrated", "path", dsn)
}
