// Package migrations exposes the embedded activity ledger migrations per SQL
// dialect and registers them with go-persistence-bun.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	eventsub "github.com/goliatone/go-eventsub"
	"github.com/goliatone/go-eventsub/core"
	persistence "github.com/goliatone/go-persistence-bun"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	DefaultSourceLabel = "go-eventsub"

	migrationsDir = "data/sql/migrations"
	upSuffix      = ".up.sql"
	downSuffix    = ".down.sql"
)

type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets limits registration to the given dialects.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		if next := normalizeDialects(targets); len(next) > 0 {
			r.ValidationTargets = next
		}
	}
}

func WithFilesystems(filesystems ...FilesystemSpec) Option {
	return func(r *Registration) {
		copied := make([]FilesystemSpec, 0, len(filesystems))
		for _, spec := range filesystems {
			dialect := strings.TrimSpace(strings.ToLower(spec.Dialect))
			if dialect == "" || spec.FS == nil {
				continue
			}
			copied = append(copied, FilesystemSpec{Dialect: dialect, Path: spec.Path, FS: spec.FS})
		}
		if len(copied) > 0 {
			r.Filesystems = copied
		}
	}
}

// Filesystems returns the postgres and sqlite migration trees. Each tree must
// hold at least one migration and every up file needs a matching down file.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := eventsub.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	base, basePath, err := migrationsRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, DialectSQLite)
	if err != nil {
		return nil, migrationError(fmt.Sprintf("migrations: resolve sqlite filesystem: %v", err))
	}

	filesystems := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: pathJoin(basePath, DialectSQLite), FS: sqliteFS},
	}
	for _, spec := range filesystems {
		if err := checkPairs(spec); err != nil {
			return nil, err
		}
	}
	return filesystems, nil
}

func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       DefaultSourceLabel,
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}

	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = filesystems

	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	switch {
	case len(reg.ValidationTargets) == 0:
		return reg, migrationError("migrations: validation targets are required")
	case strings.TrimSpace(reg.SourceLabel) == "":
		return reg, migrationError("migrations: source label is required")
	case len(reg.Filesystems) == 0:
		return reg, migrationError("migrations: filesystems are required")
	case registerFn == nil:
		return reg, notConfiguredError("migrations: register function is required")
	}

	for _, spec := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, spec.Dialect) {
			continue
		}
		if err := registerFn(ctx, spec.Dialect, reg.SourceLabel, spec.FS); err != nil {
			return reg, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: register "+spec.Dialect).
				WithCode(http.StatusInternalServerError).
				WithTextCode(core.ErrorInternal).
				WithMetadata(map[string]any{"dialect": spec.Dialect, "path": spec.Path})
		}
	}
	return reg, nil
}

// RegisterWithClient registers the migrations matching dialect on a
// go-persistence-bun client. Call client.Migrate afterwards, or use Apply.
func RegisterWithClient(ctx context.Context, client *persistence.Client, dialect string) (Registration, error) {
	if client == nil {
		return Registration{}, notConfiguredError("migrations: persistence client is required")
	}
	dialect = strings.TrimSpace(strings.ToLower(dialect))
	return Register(ctx, func(_ context.Context, target string, _ string, fsys fs.FS) error {
		if target == dialect {
			client.RegisterSQLMigrations(fsys)
		}
		return nil
	}, WithValidationTargets(dialect))
}

// Apply registers the ledger migrations for dialect and runs them.
func Apply(ctx context.Context, client *persistence.Client, dialect string) (Registration, error) {
	reg, err := RegisterWithClient(ctx, client, dialect)
	if err != nil {
		return reg, err
	}
	if err := client.Migrate(ctx); err != nil {
		return reg, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: apply "+dialect).
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorInternal)
	}
	return reg, nil
}

func checkPairs(spec FilesystemSpec) error {
	ups, err := fs.Glob(spec.FS, "*"+upSuffix)
	if err != nil {
		return migrationError(fmt.Sprintf("migrations: glob %s %s: %v", spec.Dialect, spec.Path, err))
	}
	if len(ups) == 0 {
		return migrationError(fmt.Sprintf("migrations: %s filesystem %q has no *%s files", spec.Dialect, spec.Path, upSuffix))
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, upSuffix) + downSuffix
		if _, err := fs.Stat(spec.FS, down); err != nil {
			return migrationError(fmt.Sprintf("migrations: %s migration %s has no %s", spec.Dialect, up, down))
		}
	}
	return nil
}

func migrationsRoot(root fs.FS) (fs.FS, string, error) {
	sub, err := fs.Sub(root, migrationsDir)
	if err == nil {
		if _, statErr := fs.Stat(sub, "."); statErr == nil {
			return sub, migrationsDir, nil
		}
	}

	entries, readErr := fs.ReadDir(root, ".")
	if readErr == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
				return root, ".", nil
			}
		}
	}
	return nil, "", migrationError(migrationsDir + " not found")
}

func normalizeDialects(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(strings.ToLower(value))
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func pathJoin(base string, suffix string) string {
	if base == "." {
		return suffix
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(suffix, "/")
}

func migrationError(message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput)
}

func notConfiguredError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorNotConfigured)
}
