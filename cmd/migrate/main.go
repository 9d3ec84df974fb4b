package main

import (
	"errors"
	"log"
	"os"
	"strings"

	"grateful-roasted/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	dir := pflag.String("dir", "db/migrations", "directory holding the migration files")
	down := pflag.Int("down", 0, "roll back this many migrations instead of applying")
	pflag.Parse()

	m, err := migrate.New("file://"+*dir, mustDatabaseURL())
	if err != nil {
		log.Fatalf("migration setup failed: %v", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if *down > 0 {
		if err := m.Steps(-*down); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("database rollback failed: %v", err)
		}
		log.Printf("rolled back %d migration(s)", *down)
		return
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")
}

// mustDatabaseURL reads the same variable the server does. golang-migrate
// only takes postgres URLs here; sqlite databases use the server's
// --auto-migrate instead.
func mustDatabaseURL() string {
	dsn := os.Getenv(config.EnvPrefix + "_DATABASE_URL")
	if dsn == "" {
		log.Fatalf("%s_DATABASE_URL is not set", config.EnvPrefix)
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		log.Fatalf("migrations need a postgres:// database url")
	}
	return dsn
}
