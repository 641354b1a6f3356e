package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

func TestOpen_CreatesRootRecursively(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b", "c")

	db, err := Open(root)
	require.NoError(t, err)
	assert.Equal(t, root, db.Root())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Opening again is fine.
	_, err = Open(root)
	require.NoError(t, err)
}

func TestOpen_RootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, nil, 0o644))

	_, err := Open(root)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestDb_Collection(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	require.NoError(t, err)

	c, err := db.Collection("users")
	require.NoError(t, err)
	assert.Equal(t, "users", c.Name())
	assert.Equal(t, filepath.Join(root, "users"), c.Dir())

	id, err := c.InsertOne(domain.Document{"name": "a"})
	require.NoError(t, err)

	// A second handle sees the same documents.
	again, err := db.Collection("users")
	require.NoError(t, err)
	got, err := again.GetOne(id)
	require.NoError(t, err)
	assert.Equal(t, domain.Document{"name": "a"}, got.Data)

	// Collections do not share documents.
	other, err := db.Collection("orders")
	require.NoError(t, err)
	_, err = other.GetOne(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDb_CollectionFileModes(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, WithFileModes(0o700, 0o600))
	require.NoError(t, err)
	c, err := db.Collection("private")
	require.NoError(t, err)
	id, err := c.InsertOne(domain.Document{"secret": "x"})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(c.Dir(), id.String()))
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o077)
}

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"users", false},
		{"user-data_2024", false},
		{".hidden", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{`a\b`, true},
		{"../escape", true},
		{"nul\x00byte", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollectionName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidCollectionName)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	db, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = db.Collection("../escape")
	assert.ErrorIs(t, err, domain.ErrInvalidCollectionName)
}
