// Package state provides SQLite-backed persistence for installed packages.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the lifecycle status of an installed package.
type Status string

const (
	StatusInstalling Status = "installing"
	StatusInstalled  Status = "installed"
	StatusFailed     Status = "failed"
)

// InstalledPackage is one row of install state.
type InstalledPackage struct {
	Name           string
	Ref            string
	CheckoutDir    string
	VenvDir        string
	Status         Status
	InstalledAt    time.Time
	LastLaunchedAt time.Time
}

// Store provides SQLite-backed persistence for install state.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates an install-state SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) migrate() error {
	_, err := s.sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS installed_packages (
			name             TEXT PRIMARY KEY,
			ref              TEXT NOT NULL DEFAULT '',
			checkout_dir     TEXT NOT NULL,
			venv_dir         TEXT NOT NULL,
			status           TEXT NOT NULL,
			installed_at     INTEGER NOT NULL,
			last_launched_at INTEGER NOT NULL DEFAULT 0
		)`)
	return err
}

// Put upserts an install-state row.
func (s *Store) Put(ctx context.Context, pkg InstalledPackage) error {
	pkg.Name = strings.TrimSpace(pkg.Name)
	if pkg.Name == "" {
		return fmt.Errorf("package name is required")
	}
	if pkg.InstalledAt.IsZero() {
		pkg.InstalledAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO installed_packages (name, ref, checkout_dir, venv_dir, status, installed_at, last_launched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			ref = excluded.ref,
			checkout_dir = excluded.checkout_dir,
			venv_dir = excluded.venv_dir,
			status = excluded.status,
			installed_at = excluded.installed_at`,
		pkg.Name, pkg.Ref, pkg.CheckoutDir, pkg.VenvDir, string(pkg.Status),
		pkg.InstalledAt.UnixMilli(), pkg.LastLaunchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put installed package: %w", err)
	}
	return nil
}

// Get loads one install-state row by package name.
func (s *Store) Get(ctx context.Context, name string) (InstalledPackage, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT name, ref, checkout_dir, venv_dir, status, installed_at, last_launched_at
		FROM installed_packages WHERE name = ?`, name)

	pkg, err := scanPackage(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return InstalledPackage{}, false, nil
		}
		return InstalledPackage{}, false, fmt.Errorf("get installed package: %w", err)
	}
	return pkg, true, nil
}

// List returns all install-state rows ordered by name.
func (s *Store) List(ctx context.Context) ([]InstalledPackage, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT name, ref, checkout_dir, venv_dir, status, installed_at, last_launched_at
		FROM installed_packages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list installed packages: %w", err)
	}
	defer rows.Close()

	var pkgs []InstalledPackage
	for rows.Next() {
		pkg, err := scanPackage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan installed package: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, rows.Err()
}

// Delete removes a package's install-state row. Deleting an absent row is
// not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM installed_packages WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete installed package: %w", err)
	}
	return nil
}

// TouchLaunched records that the package was just launched.
func (s *Store) TouchLaunched(ctx context.Context, name string, at time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE installed_packages SET last_launched_at = ? WHERE name = ?`,
		at.UnixMilli(), name)
	if err != nil {
		return fmt.Errorf("touch installed package: %w", err)
	}
	return nil
}

// SetStatus updates only the status column.
func (s *Store) SetStatus(ctx context.Context, name string, status Status) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE installed_packages SET status = ? WHERE name = ?`,
		string(status), name)
	if err != nil {
		return fmt.Errorf("set package status: %w", err)
	}
	return nil
}

func scanPackage(scan func(dest ...any) error) (InstalledPackage, error) {
	var pkg InstalledPackage
	var status string
	var installedAt, lastLaunchedAt int64
	if err := scan(&pkg.Name, &pkg.Ref, &pkg.CheckoutDir, &pkg.VenvDir, &status, &installedAt, &lastLaunchedAt); err != nil {
		return InstalledPackage{}, err
	}
	pkg.Status = Status(status)
	pkg.InstalledAt = time.UnixMilli(installedAt)
	if lastLaunchedAt > 0 {
		pkg.LastLaunchedAt = time.UnixMilli(lastLaunchedAt)
	}
	return pkg, nil
}
