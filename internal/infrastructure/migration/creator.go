package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"

	// versionLayout gives sortable versions golang-migrate parses as uint
	versionLayout = "20060102150405"
)

// ErrEmptyMigrationName is returned when the name has no usable character
var ErrEmptyMigrationName = errors.New("migration: name is empty")

var (
	upTemplate = template.Must(template.New("up").Parse(`-- {{.Version}} {{.Name}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

BEGIN;

COMMIT;
`))

	downTemplate = template.Must(template.New("down").Parse(`-- {{.Version}} {{.Name}} (rollback)

BEGIN;

COMMIT;
`))
)

// MigrationFile is a created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// MigrationInfo describes a migration found in a directory
type MigrationInfo struct {
	Version string
	Name    string
	HasDown bool
}

// BaseName returns the file name without its direction suffix
func (i MigrationInfo) BaseName() string {
	return i.Version + "_" + i.Name
}

// CreateMigration writes an empty up/down pair versioned with the current time
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	return createMigration(migrationsDir, name, description, time.Now().UTC())
}

func createMigration(migrationsDir, name, description string, now time.Time) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, ErrEmptyMigrationName
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := now.Format(versionLayout)
	base := version + "_" + slug
	mf := &MigrationFile{
		Version:     version,
		Name:        slug,
		Description: strings.TrimSpace(description),
		UpPath:      filepath.Join(migrationsDir, base+upSuffix),
		DownPath:    filepath.Join(migrationsDir, base+downSuffix),
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

// writeTemplate refuses to overwrite an existing file
func writeTemplate(path string, tmpl *template.Template, data *MigrationFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if err := tmpl.Execute(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return f.Close()
}

// sanitizeName lowercases the name and keeps ASCII letters and digits.
// Runs of spaces, dashes and underscores become one underscore.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the migrations of a directory ordered by version.
// A missing directory has no migrations.
func ListMigrations(migrationsDir string) ([]MigrationInfo, error) {
	entries, err := os.ReadDir(migrationsDir)
	if errors.Is(err, os.ErrNotExist) {
		return []MigrationInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	downs := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), downSuffix) {
			downs[strings.TrimSuffix(e.Name(), downSuffix)] = true
		}
	}

	migrations := make([]MigrationInfo, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), upSuffix) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), upSuffix)
		version, name, ok := strings.Cut(base, "_")
		if !ok {
			version, name = base, ""
		}
		migrations = append(migrations, MigrationInfo{
			Version: version,
			Name:    name,
			HasDown: downs[base],
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}
