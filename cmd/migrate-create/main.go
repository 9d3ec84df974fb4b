package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/pflag"
)

var migrationName = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// migrate-create adds an empty up/down pair to the directory cmd/migrate
// reads from.
func main() {
	dir := pflag.String("dir", "db/migrations", "directory holding the migration files")
	name := pflag.StringP("name", "n", "", "snake_case migration name")
	pflag.Parse()

	if !migrationName.MatchString(*name) {
		log.Fatalf("migration name must be snake_case, got %q", *name)
	}

	base := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102150405"), *name)
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}
	for _, direction := range []string{"up", "down"} {
		path := filepath.Join(*dir, base+"."+direction+".sql")
		header := fmt.Sprintf("-- %s: %s\n", *name, direction)
		if err := createFile(path, header); err != nil {
			log.Fatalf("create %s migration: %v", direction, err)
		}
		log.Printf("created %s", path)
	}
}

func createFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
