package main

import (
	"log"
	"os"

	"arivu-ai-be/internal/model"
	"arivu-ai-be/pkg/database"
	"arivu-ai-be/pkg/quota"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Running GORM migration...")

	// gen_random_uuid defaults on the id columns need pgcrypto
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	models := []interface{}{
		&model.User{},
		&model.UserProvider{},
		&model.UserRefreshToken{},
		&model.UserTier{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.PaymentOrder{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Migration failed: %v", err)
		os.Exit(1)
	}
	color.Green("Migration completed (%d tables)", len(models))

	seedDemoUser(db)
}

// seedDemoUser creates a local account for manual testing. Safe to rerun.
func seedDemoUser(db *gorm.DB) {
	email := os.Getenv("SEED_USER_EMAIL")
	if email == "" {
		color.Yellow("SEED_USER_EMAIL not set, skipping demo user")
		return
	}
	password := os.Getenv("SEED_USER_PASSWORD")
	if password == "" {
		password = "password123"
	}

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		color.Yellow("User '%s' already exists, skipping...", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		color.Red("Failed to hash password: %v", err)
		return
	}
	hashStr := string(hash)

	user := model.User{
		FullName:     "Demo User",
		Email:        email,
		PasswordHash: &hashStr,
	}
	if err := db.Create(&user).Error; err != nil {
		color.Red("Failed to create demo user: %v", err)
		return
	}

	tier := model.UserTier{
		UserId: user.Id,
		Kind:   string(quota.TierFree),
	}
	if err := db.Create(&tier).Error; err != nil {
		color.Red("Failed to create demo tier: %v", err)
		return
	}

	color.Green("Created demo user: %s", email)
}
