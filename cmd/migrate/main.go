package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/migration"
)

// invocation is what a command gets to work with; m is nil for offline commands
type invocation struct {
	args []string
	dir  string
	m    *migration.Migrator
	log  *zap.Logger
}

type command struct {
	usage   string
	summary string
	args    int
	offline bool
	run     func(inv invocation) error
}

var commands = map[string]command{
	"up": {summary: "Apply all pending migrations", run: func(inv invocation) error {
		return inv.m.Up()
	}},
	"down": {summary: "Roll back all migrations", run: func(inv invocation) error {
		return inv.m.Down()
	}},
	"step": {usage: "<n>", summary: "Apply n migrations (positive=up, negative=down)", args: 1, run: func(inv invocation) error {
		n, err := strconv.Atoi(inv.args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", inv.args[0])
		}
		return inv.m.Steps(n)
	}},
	"goto": {usage: "<version>", summary: "Migrate to a specific version", args: 1, run: func(inv invocation) error {
		v, err := strconv.ParseUint(inv.args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q", inv.args[0])
		}
		return inv.m.GoTo(uint(v))
	}},
	"force": {usage: "<version>", summary: "Force set migration version (clears a dirty state)", args: 1, run: func(inv invocation) error {
		v, err := strconv.Atoi(inv.args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", inv.args[0])
		}
		return inv.m.Force(v)
	}},
	"drop": {usage: "-confirm", summary: "Drop all database objects", args: 1, run: func(inv invocation) error {
		if inv.args[0] != "-confirm" && inv.args[0] != "--confirm" {
			return errors.New("drop cancelled, pass -confirm")
		}
		return inv.m.Drop()
	}},
	"version": {summary: "Show current migration version", run: func(inv invocation) error {
		v, dirty, err := inv.m.Version()
		if err != nil {
			return err
		}
		inv.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"status": {summary: "List migrations and mark the applied ones", run: status},
	"create": {usage: "<name> [desc]", summary: "Create a new migration file pair", args: 1, offline: true, run: create},
	"list":   {summary: "List available migrations", offline: true, run: list},
}

// commandOrder fixes the usage listing
var commandOrder = []string{"up", "down", "step", "goto", "version", "status", "force", "drop", "create", "list"}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: database.migrations_path)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if len(args)-1 < cmd.args {
		fmt.Fprintf(os.Stderr, "Usage: migrate %s %s\n", args[0], cmd.usage)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if migrationsPath == "" {
		migrationsPath = cfg.Database.MigrationsPath
	}

	inv := invocation{args: args[1:], dir: migrationsPath, log: log}
	log.Debug("Migration CLI started",
		zap.String("command", args[0]),
		zap.String("migrations_path", migrationsPath),
	)

	if !cmd.offline {
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database", zap.Error(err))
		}
		inv.m, err = migration.New(db, migrationsPath, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		defer inv.m.Close()
	}

	if err := cmd.run(inv); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func create(inv invocation) error {
	description := ""
	if len(inv.args) > 1 {
		description = inv.args[1]
	}
	mf, err := migration.CreateMigration(inv.dir, inv.args[0], description)
	if err != nil {
		return err
	}
	inv.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(inv invocation) error {
	migrations, err := migration.ListMigrations(inv.dir)
	if err != nil {
		return err
	}
	if len(migrations) == 0 {
		inv.log.Info("No migrations found")
		return nil
	}
	for _, m := range migrations {
		suffix := ""
		if !m.HasDown {
			suffix = " (no down)"
		}
		fmt.Printf("  - %s%s\n", m.BaseName(), suffix)
	}
	return nil
}

func status(inv invocation) error {
	current, dirty, err := inv.m.Version()
	if err != nil {
		return err
	}
	migrations, err := migration.ListMigrations(inv.dir)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		v, err := strconv.ParseUint(m.Version, 10, 64)
		if err != nil {
			return fmt.Errorf("migration %s: bad version: %w", m.BaseName(), err)
		}
		mark := " "
		switch {
		case uint(v) == current && dirty:
			mark = "!"
		case uint(v) <= current:
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, m.BaseName())
	}
	return nil
}

func printUsage() {
	fmt.Println("Stoflow Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Printf("  %-22s%s\n", name+" "+c.usage, c.summary)
	}
	fmt.Println()
	fmt.Println(`Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level (default: info)

Environment:
  STOFLOW_DATABASE_HOST, STOFLOW_DATABASE_PORT, STOFLOW_DATABASE_USER,
  STOFLOW_DATABASE_PASSWORD, STOFLOW_DATABASE_DBNAME, STOFLOW_DATABASE_SSLMODE,
  STOFLOW_DATABASE_MIGRATIONS_PATH`)
}
