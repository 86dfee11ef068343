package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pressly/goose/v3"
)

// CreateSQLMigration writes a timestamped SQL migration skeleton into dir and
// returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure migrations dir: %w", err)
	}

	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return "", fmt.Errorf("goose create: %w", err)
	}

	// goose prefixes the file with a timestamp; the newest match is ours.
	matches, err := filepath.Glob(filepath.Join(dir, "*_"+strings.ReplaceAll(name, " ", "_")+".sql"))
	if err != nil || len(matches) == 0 {
		return filepath.Join(dir, name+".sql"), nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// ValidateDir checks that every migration in dir parses.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}
	if _, err := goose.CollectMigrations(dir, 0, goose.MaxVersion); err != nil {
		return fmt.Errorf("collect migrations: %w", err)
	}
	return nil
}
