package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "sql/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"sql/00001_init.sql", "sql/00002_outbox.sql"}, names)

	b, err := FS.ReadFile("sql/00002_outbox.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "outbox_events")
}

func TestUp_UsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	var gotDB *sql.DB
	gooseUp = func(_ context.Context, d *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDB, gotDir = d, dir
		return nil
	}

	require.NoError(t, Up(context.Background(), db))
	assert.Equal(t, "sql", gotDir)
	assert.Same(t, db, gotDB)
}

func TestUp_PropagatesError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	boom := errors.New("migration 2 failed")
	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	assert.ErrorIs(t, Up(context.Background(), db), boom)
}
