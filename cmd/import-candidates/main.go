package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/wwtech/onboarding-backend/internal/config"
	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/services"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

// Input file layout:
//
//	candidates:
//	  - fullName: Jane Doe
//	    email: jane@example.com
//	    phone: "+91 98765 43210"
//	    practice: Engineering
//	    position: Backend Engineer
func main() {
	flags := pflag.NewFlagSet("import-candidates", pflag.ExitOnError)
	file := flags.StringP("file", "f", "candidates.yaml", "YAML file with a candidates list")
	dbURL := flags.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	adminEmail := flags.String("admin-email", "", "admin recorded as creator (overrides ADMIN_EMAIL)")
	dryRun := flags.Bool("dry-run", false, "parse the file and print the rows without writing")
	_ = flags.Parse(os.Args[1:])

	_ = godotenv.Load()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *file, err)
	}
	var batch models.BulkCreateCandidatesRequest
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		log.Fatalf("failed to parse %s: %v", *file, err)
	}
	if len(batch.Candidates) == 0 {
		log.Fatalf("%s has no candidates", *file)
	}

	if *dryRun {
		for i, c := range batch.Candidates {
			fmt.Printf("%3d  %-30s %-35s %s / %s\n", i+1, c.FullName, c.Email, c.Practice, c.Position)
		}
		return
	}

	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set and --database-url was not provided")
	}
	creator := *adminEmail
	if creator == "" {
		creator = os.Getenv("ADMIN_EMAIL")
	}

	db, err := database.NewConnection(config.DatabaseConfig{URL: dsn, MaxConnections: 2, MaxIdleConnections: 1})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stores := database.NewStores(db)
	admin, err := stores.Accounts.GetByEmail(ctx, creator)
	if err != nil {
		log.Fatalf("failed to load admin: %v", err)
	}
	if admin == nil || admin.Role != models.RoleAdmin {
		log.Fatalf("no admin account for %q; run seed-admin first or pass --admin-email", creator)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	// candidate creation sends no email and stores no files
	workflow := services.NewWorkflowService(stores, nil, validator.NewFileIntake(0), nil, nil, nil, logger, services.WorkflowConfig{})
	result := workflow.BulkCreateCandidates(ctx, batch.Candidates, admin.ID)

	for _, row := range result.Results {
		status := "ok"
		if !row.Success {
			status = row.Error
		}
		fmt.Printf("row %3d  %-35s %s\n", row.Row, row.Email, status)
	}
	fmt.Printf("\n%d rows: %d created, %d failed\n", result.Total, result.Succeeded, result.Failed)
	if result.Failed > 0 {
		os.Exit(1)
	}
}
