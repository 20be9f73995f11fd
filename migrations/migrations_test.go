package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/shop?sslmode=disable", DriverURL("postgres://u:p@h:5432/shop?sslmode=disable"))
	assert.Equal(t, "pgx5://h/shop", DriverURL("postgresql://h/shop"))
	assert.Equal(t, "pgx5://h/shop", DriverURL("pgx5://h/shop"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(files, "sql/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(files, "sql/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
