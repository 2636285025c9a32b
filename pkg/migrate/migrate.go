package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"sync"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk root of the per-dialect migration sets, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedded embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Source selects where goose reads migrations from. An empty Dir means the
// migrations compiled into the binary for the given dialect.
type Source struct {
	Dialect string
	Dir     string
}

// EmbeddedDir returns the embedded directory holding the migrations for dialect.
func EmbeddedDir(dialect string) string {
	return path.Join("migrations", dialectDir(dialect))
}

// DiskDir returns the on-disk directory holding the migrations for dialect.
func DiskDir(dialect string) string {
	return path.Join(DefaultDir, dialectDir(dialect))
}

// Embedded exposes the compiled-in migrations for tooling and tests.
func Embedded() fs.FS {
	return embedded
}

func dialectDir(dialect string) string {
	if dialect == db.DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

func gooseDialect(dialect string) string {
	if dialect == db.DialectSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func (s Source) prepare() (string, error) {
	if err := goose.SetDialect(gooseDialect(s.Dialect)); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if s.Dir != "" {
		goose.SetBaseFS(nil)
		return s.Dir, nil
	}
	goose.SetBaseFS(embedded)
	return EmbeddedDir(s.Dialect), nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, sqlDB *sql.DB, src Source, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := src.prepare()
	if err != nil {
		return err
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration for the client's dialect from the embedded set.
func Up(ctx context.Context, client *db.Client) error {
	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	return Run(ctx, sqlDB, Source{Dialect: client.Dialect()}, "up")
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, sqlDB *sql.DB, src Source, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := src.prepare()
	if err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil

	case current < target:
		if err := goose.UpToContext(ctx, sqlDB, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil

	default:
		if err := goose.DownToContext(ctx, sqlDB, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
