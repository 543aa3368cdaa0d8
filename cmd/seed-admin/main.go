package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/wwtech/onboarding-backend/internal/config"
	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/services"
)

func main() {
	flags := pflag.NewFlagSet("seed-admin", pflag.ExitOnError)
	dbURL := flags.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	email := flags.String("email", "", "admin email (overrides ADMIN_EMAIL)")
	password := flags.String("password", "", "admin password (overrides ADMIN_PASSWORD)")
	fullName := flags.String("name", "HR Administrator", "admin display name")
	cost := flags.Int("bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost for the password hash")
	_ = flags.Parse(os.Args[1:])

	_ = godotenv.Load()

	dsn := firstNonEmpty(*dbURL, os.Getenv("DATABASE_URL"))
	adminEmail := firstNonEmpty(*email, os.Getenv("ADMIN_EMAIL"))
	adminPassword := firstNonEmpty(*password, os.Getenv("ADMIN_PASSWORD"))
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set and --database-url was not provided")
	}
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dsn,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	stores := database.NewStores(db)
	auth := services.NewAuthService(stores.Accounts, nil, *cost, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := auth.CreateAdmin(ctx, adminEmail, adminPassword, *fullName)
	if errors.Is(err, services.ErrAccountExists) {
		fmt.Println("Admin user already exists")
		return
	}
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	fmt.Println("Admin user created successfully")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Println("Password: check ADMIN_PASSWORD")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
