package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/wwtech/onboarding-backend/migrations"
)

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	dbURL := flags.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	steps := flags.Int("steps", 0, "apply N migrations (negative rolls back) instead of the action")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [flags] [up|down|version|force <version>]\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	_ = godotenv.Load()

	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set and --database-url was not provided")
	}

	action := "up"
	if flags.NArg() > 0 {
		action = flags.Arg(0)
	}

	if err := run(action, flags.Args(), *steps, dsn); err != nil {
		log.Fatalf("migration %s failed: %v", action, err)
	}
	log.Printf("migration %s completed", action)
}

func run(action string, args []string, steps int, dsn string) error {
	src, err := iofs.New(migrations.FS, migrations.Dir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if steps != 0 {
		return ignoreNoChange(m.Steps(steps))
	}

	switch action {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		return ignoreNoChange(m.Down())
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		var version int
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.Force(version)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Printf("no migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		log.Printf("version=%d dirty=%t", version, dirty)
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
