package fileops

import (
	"testing"
	"time"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name   string
		hidden bool
	}{
		{".hidden", true},
		{".config", true},
		{"dir/.git", true},
		{"a.txt", false},
		{".", false},
		{"..", false},
		{"...", false},
		{"visible", false},
		{"name.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hidden, IsHidden(tt.name))
		})
	}
}

func TestIsJunk(t *testing.T) {
	for _, name := range []string{".DS_Store", "Thumbs.db", "ehthumbs.db", "Desktop.ini", "._photo.jpg",
		"npm-debug.log", ".file.swp", "__MACOSX", "backup~", "Icon\r", ".Trashes", "@eaDir",
		"desktop.ini", ".fseventsd", "$RECYCLE.BIN", "System Volume Information"} {
		assert.True(t, IsJunk(name), name)
	}
	for _, name := range []string{"a.txt", "DCIM", "thumbs.dbx", "Icon", ".hidden"} {
		assert.False(t, IsJunk(name), name)
	}
}

func TestExtension(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		ext := Extension("a.txt", false)
		require.NotNil(t, ext)
		assert.Equal(t, "txt", *ext)
	})

	t.Run("lower cased last suffix", func(t *testing.T) {
		ext := Extension("Archive.TAR.GZ", false)
		require.NotNil(t, ext)
		assert.Equal(t, "gz", *ext)
	})

	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, Extension("a.txt", true))
		assert.Nil(t, Extension("README", false))
		assert.Nil(t, Extension(".bashrc", false))
		assert.Nil(t, Extension("trailing.", false))
	})
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2019, 7, 13, 14, 37, 2, 0, time.Local)
	assert.Equal(t, "2019-07-13 14:37:02", FormatDate(ts))
}

func TestCollector(t *testing.T) {
	c := NewCollector(0)
	assert.NotNil(t, c.Entries())
	assert.Empty(t, c.Entries())

	assert.True(t, c.Add(models.FileEntry{Name: "a", Path: "/x/a"}))
	assert.True(t, c.Add(models.FileEntry{Name: "b", Path: "/x/b"}))
	assert.False(t, c.Add(models.FileEntry{Name: "a-again", Path: "/x/a"}))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, 1, c.Dropped())
}

func TestCheckRemovable(t *testing.T) {
	assert.NoError(t, CheckRemovable([]string{"/tmp/a", "DCIM/b"}, nil))

	for _, p := range []string{"", " ", "/", "//", "/tmp/..", "/./"} {
		assert.ErrorIs(t, CheckRemovable([]string{"/tmp/a", p}, nil), ErrUnsafePath, "%q", p)
	}

	rootResolver := func(string) (string, error) { return "/", nil }
	assert.ErrorIs(t, CheckRemovable([]string{"../.."}, rootResolver), ErrUnsafePath)
}
