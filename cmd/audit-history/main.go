package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/wwtech/onboarding-backend/internal/config"
	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/services"
)

func main() {
	flags := pflag.NewFlagSet("audit-history", pflag.ExitOnError)
	entity := flags.StringP("entity", "e", services.EntityCandidate, "entity type: candidate, joining_request or user")
	limit := flags.IntP("limit", "n", 50, "maximum entries to print")
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: audit-history [--entity candidate|joining_request|user] <id>")
		os.Exit(2)
	}
	entityID, err := uuid.Parse(flags.Arg(0))
	if err != nil {
		log.Fatalf("invalid id %q: %v", flags.Arg(0), err)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	audit := services.NewAuditService(database.NewAuditRepository(db))
	history, err := audit.GetEntityHistory(ctx, *entity, entityID, *limit)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	if len(history) == 0 {
		fmt.Printf("No audit entries for %s %s\n", *entity, entityID)
		return
	}

	for _, entry := range history {
		actor := "public"
		if entry.ActorID.Valid {
			actor = entry.ActorID.UUID.String()
		}
		fmt.Printf("%s  %-24s actor=%s", entry.CreatedAt.Format(time.RFC3339), entry.Action, actor)
		if entry.IPAddress.Valid {
			fmt.Printf(" ip=%s", entry.IPAddress.String)
		}
		if entry.Details.Valid {
			fmt.Printf(" %s", entry.Details.String)
		}
		fmt.Println()
	}
}
