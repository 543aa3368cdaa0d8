package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/wwtech/onboarding-backend/internal/config"
	"github.com/wwtech/onboarding-backend/internal/database"
)

// Deletion order follows the foreign keys: employees and joining requests
// reference candidates, which reference the creating admin account.
var clearSteps = []struct {
	table string
	query string
}{
	{"employees", `DELETE FROM employees`},
	{"joining_requests", `DELETE FROM joining_requests`},
	{"candidates", `DELETE FROM candidates`},
	{"user_accounts", `DELETE FROM user_accounts WHERE role <> 'admin'`},
}

func main() {
	flags := pflag.NewFlagSet("clear-data", pflag.ExitOnError)
	dbURLFlag := flags.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	yes := flags.BoolP("yes", "y", false, "confirm deletion of all onboarding data")
	resetSequence := flags.Bool("reset-employee-ids", false, "restart employee IDs at EMP00001")
	withAudit := flags.Bool("audit-logs", false, "also delete audit log entries")
	_ = flags.Parse(os.Args[1:])

	if !*yes {
		fmt.Println("This removes every candidate, joining request, employee and employee account.")
		fmt.Println("Admin accounts are kept. Re-run with --yes to proceed.")
		os.Exit(2)
	}

	_ = godotenv.Load()

	dbURL := *dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and --database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	steps := clearSteps
	if *withAudit {
		steps = append([]struct {
			table string
			query string
		}{{"audit_logs", `DELETE FROM audit_logs`}}, steps...)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	deleted := make([]int64, len(steps))
	for i, step := range steps {
		res, err := tx.ExecContext(ctx, step.query)
		if err != nil {
			log.Fatalf("failed to clear %s: %v", step.table, err)
		}
		deleted[i], _ = res.RowsAffected()
	}

	if *resetSequence {
		if _, err := tx.ExecContext(ctx, `UPDATE id_sequences SET last_value = 0 WHERE name = 'employee_id'`); err != nil {
			log.Fatalf("failed to reset employee ID sequence: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("failed to commit: %v", err)
	}

	fmt.Println("Onboarding data cleared:")
	for i, step := range steps {
		fmt.Printf("  %-18s %d rows\n", step.table, deleted[i])
	}
	if *resetSequence {
		fmt.Println("  employee IDs restart at EMP00001")
	}
}
